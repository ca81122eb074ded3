package tags

import "context"

// Store is the persistence boundary consumed by the tagging core.
// Refs and taggers passed to a Store carry base kinds already.
type Store interface {
	// WithinTx runs fn in one transaction. The transaction commits when fn
	// returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error

	// ScopeNames returns the submitted names of the taggings in scope, in
	// insertion order.
	ScopeNames(ctx context.Context, scope Scope) ([]string, error)

	// CountTags groups taggings matching filter by tag and counts them.
	CountTags(ctx context.Context, filter CountFilter) ([]TagCount, error)

	// TaggingsInContexts returns the taggings of taggable in any of contexts.
	TaggingsInContexts(ctx context.Context, taggable Ref, contexts []string) ([]Tagging, error)

	// RemoveTaggings deletes every tagging of taggable.
	RemoveTaggings(ctx context.Context, taggable Ref) (int64, error)
}

// Tx is the set of writes a reconciliation performs inside one transaction.
type Tx interface {
	// PruneScope deletes the taggings in scope whose name is not in keep.
	// An empty keep deletes every tagging in scope.
	PruneScope(ctx context.Context, scope Scope, keep []string) (int64, error)

	// ScopeNames returns the submitted names of the taggings in scope.
	ScopeNames(ctx context.Context, scope Scope) ([]string, error)

	// FindOrCreateTag returns the dictionary entry for name, creating it when
	// missing. Lookup is case-insensitive.
	FindOrCreateTag(ctx context.Context, name string) (*Tag, error)

	// CreateTagging inserts t and sets its ID.
	CreateTagging(ctx context.Context, t *Tagging) error
}
