package tags

import "strings"

// DefaultDelimiter separates tag names in delimited input.
const DefaultDelimiter = ","

// Parser turns raw input into an ordered, deduplicated, blank-free list of
// tag names. Its delimiter is explicit configuration, not shared state.
type Parser struct {
	Delimiter string
}

// NewParser returns a Parser splitting on delimiter, or DefaultDelimiter
// when delimiter is empty.
func NewParser(delimiter string) Parser {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}
	return Parser{Delimiter: delimiter}
}

func (p Parser) delimiter() string {
	if p.Delimiter == "" {
		return DefaultDelimiter
	}
	return p.Delimiter
}

// Parse splits input on the delimiter, trims each piece and normalizes the
// result. Parse("a, b ,a,, c") returns [a b c].
func (p Parser) Parse(input string) []string {
	pieces := strings.Split(input, p.delimiter())
	for i, piece := range pieces {
		pieces[i] = strings.TrimSpace(piece)
	}
	return p.Normalize(pieces)
}

// Normalize removes duplicates, keeping first occurrences in order, and
// drops blank entries. Names are otherwise used as given.
func (p Parser) Normalize(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// Join renders names separated by the delimiter and a space.
func (p Parser) Join(names []string) string {
	return strings.Join(names, p.delimiter()+" ")
}

// TagList is the staged set of tag names for one (context, tagger) scope of
// one entity. It is not safe for concurrent use; it lives for a single
// load/mutate/save cycle.
type TagList struct {
	parser Parser
	names  []string
	dirty  bool
}

// NewTagList returns an empty, clean list.
func NewTagList(parser Parser) *TagList {
	return &TagList{parser: parser, names: []string{}}
}

// Load hydrates the list from persisted names without marking it dirty.
func (l *TagList) Load(names []string) {
	l.names = l.parser.Normalize(names)
}

// Update replaces the contents and marks the list dirty. The list is marked
// dirty even when the contents do not change.
func (l *TagList) Update(names []string) {
	l.names = l.parser.Normalize(names)
	l.dirty = true
}

// UpdateString parses delimited input and replaces the contents.
func (l *TagList) UpdateString(input string) {
	l.names = l.parser.Parse(input)
	l.dirty = true
}

// Names returns a copy of the staged names in order.
func (l *TagList) Names() []string {
	return append([]string{}, l.names...)
}

// Len returns the number of staged names.
func (l *TagList) Len() int { return len(l.names) }

// Contains reports whether name is staged, compared exactly.
func (l *TagList) Contains(name string) bool {
	for _, n := range l.names {
		if n == name {
			return true
		}
	}
	return false
}

// Dirty reports whether Update has been called since the last commit.
func (l *TagList) Dirty() bool { return l.dirty }

// Committed clears the dirty flag after a successful write.
func (l *TagList) Committed() { l.dirty = false }

func (l *TagList) String() string {
	return l.parser.Join(l.names)
}
