package tags

import (
	"context"

	"github.com/teranos/tagteam/errors"
)

type listKey struct {
	context string
	tagger  Tagger
}

// Taggable is the tagging working state of one entity for one
// load/mutate/save cycle. Obtain one from Service.Taggable; it must not be
// shared across goroutines or requests.
type Taggable struct {
	ref      Ref // as given by the host
	stored   Ref // base kind, as persisted
	store    Store
	registry *Registry
	parser   Parser

	lists map[listKey]*TagList
	order []listKey
}

func newTaggable(ref, stored Ref, store Store, registry *Registry, parser Parser) *Taggable {
	return &Taggable{
		ref:      ref,
		stored:   stored,
		store:    store,
		registry: registry,
		parser:   parser,
		lists:    make(map[listKey]*TagList),
	}
}

// Ref returns the entity reference the Taggable was created for.
func (t *Taggable) Ref() Ref { return t.ref }

// TagList returns the list for (context, tagger), hydrating it from the
// store on first access. An Unset tagger is treated as SystemDefault.
func (t *Taggable) TagList(ctx context.Context, context string, tagger Tagger) (*TagList, error) {
	scope, err := t.scope(context, tagger)
	if err != nil {
		return nil, err
	}
	key := listKey{context: scope.Context, tagger: scope.Tagger}
	if list, ok := t.lists[key]; ok {
		return list, nil
	}

	names, err := t.store.ScopeNames(ctx, scope)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load tag list for %s", t.ref)
	}
	list := NewTagList(t.parser)
	list.Load(names)

	t.lists[key] = list
	t.order = append(t.order, key)
	return list, nil
}

// SetTagList replaces the (context, tagger) list with names.
func (t *Taggable) SetTagList(ctx context.Context, names []string, context string, tagger Tagger) error {
	list, err := t.TagList(ctx, context, tagger)
	if err != nil {
		return err
	}
	list.Update(names)
	return nil
}

// SetTagString replaces the (context, tagger) list with delimited input.
func (t *Taggable) SetTagString(ctx context.Context, input string, context string, tagger Tagger) error {
	list, err := t.TagList(ctx, context, tagger)
	if err != nil {
		return err
	}
	list.UpdateString(input)
	return nil
}

// TagCounts returns how many times each tag was applied to the entity.
// An empty context counts across all contexts and an Unset tagger across
// all taggers.
func (t *Taggable) TagCounts(ctx context.Context, context string, tagger Tagger) (map[string]int, error) {
	resolved, err := t.resolveTagger(tagger)
	if err != nil {
		return nil, err
	}
	filter := CountFilter{
		Kind:   t.stored.Kind,
		IDs:    []int64{t.stored.ID},
		Tagger: resolved,
	}
	if context != "" {
		filter.Contexts = []string{context}
	}

	counts, err := t.store.CountTags(ctx, filter)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to count tags for %s", t.ref)
	}
	return CountsToMap(counts), nil
}

// Group returns the entity's taggings in the contexts of a declared group.
func (t *Taggable) Group(ctx context.Context, name string) ([]Tagging, error) {
	contexts, err := t.registry.Group(t.ref.Kind, name)
	if err != nil {
		return nil, err
	}
	taggings, err := t.store.TaggingsInContexts(ctx, t.stored, contexts)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load group %q for %s", name, t.ref)
	}
	return taggings, nil
}

// Dirty reports whether any list has pending changes.
func (t *Taggable) Dirty() bool {
	for _, list := range t.lists {
		if list.Dirty() {
			return true
		}
	}
	return false
}

type pendingList struct {
	scope Scope
	list  *TagList
}

// pending returns the dirty lists in the order they were first accessed.
func (t *Taggable) pending() []pendingList {
	var out []pendingList
	for _, key := range t.order {
		list := t.lists[key]
		if !list.Dirty() {
			continue
		}
		out = append(out, pendingList{
			scope: Scope{Taggable: t.stored, Context: key.context, Tagger: key.tagger},
			list:  list,
		})
	}
	return out
}

func (t *Taggable) scope(context string, tagger Tagger) (Scope, error) {
	resolved, err := t.resolveTagger(tagger.forList())
	if err != nil {
		return Scope{}, err
	}
	return Scope{Taggable: t.stored, Context: context, Tagger: resolved}, nil
}

func (t *Taggable) resolveTagger(tagger Tagger) (Tagger, error) {
	actor, ok := tagger.Actor()
	if !ok {
		return tagger, nil
	}
	resolved, err := t.registry.Resolve(actor)
	if err != nil {
		return Tagger{}, errors.Wrap(err, "failed to resolve tagger")
	}
	return Actor(resolved), nil
}
