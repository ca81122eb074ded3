// Package tags is a reusable tagging layer for persisted entities.
//
// Any record addressable by a (kind, id) Ref can carry freeform string tags,
// partitioned by an optional context ("skills", "interests") and optionally
// attributed to the actor who applied them (a Tagger).
//
// The package holds the storage-independent core:
//
//   - Parser and TagList: the mutable, deduplicated working set for one
//     (context, tagger) scope of one entity, with a dirty flag.
//   - Taggable: per-entity working state for one load/mutate/save cycle.
//   - Reconciler: the post-save hook that diffs every dirty TagList against
//     persisted taggings and writes the minimal insert/delete set in one
//     transaction.
//   - Registry: the injected mapping from entity kinds to their base kind
//     and named context groups.
//
// Persistence is consumed through the Store and Tx interfaces; package
// tags/storage implements them on SQLite and also provides the query
// builders (tagged-with, related-by-tags, tag counts).
//
// Typical cycle:
//
//	item, _ := svc.Taggable(tags.Ref{Kind: "item", ID: 42})
//	item.SetTagString(ctx, "go, sqlite", "skills", tags.SystemDefault())
//	// ... host persists the item ...
//	err := svc.ReconcileTags(ctx, item)
package tags
