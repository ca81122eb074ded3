package tags

import "time"

// Scope is one (taggable, context, tagger) partition of a taggable's tags.
// An empty Context means "no context" and is persisted as NULL.
type Scope struct {
	Taggable Ref
	Context  string
	Tagger   Tagger
}

// Tag is a Tag Dictionary entry. Name is case-folded.
type Tag struct {
	ID   int64
	Name string
}

func (t Tag) String() string { return t.Name }

// Tagging is a persisted association between a taggable and a tag.
// Name keeps the tag as it was submitted; Tag.Name is its folded form.
type Tagging struct {
	ID        int64
	TagID     int64
	Name      string
	Taggable  Ref
	Context   string
	Tagger    Tagger
	CreatedAt time.Time
}

// Scope returns the scope the tagging belongs to.
func (t Tagging) Scope() Scope {
	return Scope{Taggable: t.Taggable, Context: t.Context, Tagger: t.Tagger}
}

// TagCount is the number of taggings referencing one tag.
type TagCount struct {
	Name  string
	Count int
}

// CountsToMap converts counts to a name -> count mapping.
func CountsToMap(counts []TagCount) map[string]int {
	m := make(map[string]int, len(counts))
	for _, c := range counts {
		m[c.Name] = c.Count
	}
	return m
}

// CountFilter narrows a tag count aggregation.
type CountFilter struct {
	// Kind is the base kind of the taggables being counted. Empty counts
	// across all kinds.
	Kind string
	// IDs restricts counting to these taggables of Kind. Nil means every
	// taggable of Kind; a non-nil empty slice matches nothing.
	IDs []int64
	// Contexts restricts counting to these contexts. Empty means any context.
	Contexts []string
	// Tagger restricts attribution; Unset means any tagger.
	Tagger Tagger
	// Limit caps the number of returned counts; 0 means no limit.
	Limit int
}
