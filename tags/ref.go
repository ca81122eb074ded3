package tags

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/teranos/tagteam/errors"
)

// Ref is a polymorphic reference to a persisted entity.
type Ref struct {
	Kind string
	ID   int64
}

// String renders the ref as kind:id.
func (r Ref) String() string {
	return fmt.Sprintf("%s:%d", r.Kind, r.ID)
}

// IsZero reports whether r is the zero Ref.
func (r Ref) IsZero() bool {
	return r.Kind == "" && r.ID == 0
}

// ParseRef parses the kind:id form produced by Ref.String.
func ParseRef(s string) (Ref, error) {
	kind, rawID, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || kind == "" {
		return Ref{}, errors.NewInvalidRequestError("ref %q is not of the form kind:id", s)
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return Ref{}, errors.Mark(errors.Wrapf(err, "ref %q has a non-numeric id", s), errors.ErrInvalidRequest)
	}
	return Ref{Kind: kind, ID: id}, nil
}

// Kind describes a taggable (or tagger) entity kind.
type Kind struct {
	// Name identifies the kind in refs.
	Name string
	// Base names the registered parent kind whose name is persisted in place
	// of Name, so subkinds share one tag space. Empty for root kinds.
	Base string
	// Groups maps a group name to the contexts it covers.
	Groups map[string][]string
}

// Registry resolves entity kinds to their persisted base kind and groups.
// It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	kinds  map[string]Kind
	strict bool
}

// NewRegistry creates an empty registry. A strict registry rejects refs of
// unregistered kinds; a lenient one treats them as root kinds.
func NewRegistry(strict bool) *Registry {
	return &Registry{
		kinds:  make(map[string]Kind),
		strict: strict,
	}
}

// Register adds or replaces a kind. A Base must already be registered.
func (r *Registry) Register(k Kind) error {
	if strings.TrimSpace(k.Name) == "" {
		return errors.NewInvalidRequestError("kind name is blank")
	}
	if k.Base == k.Name {
		return errors.NewInvalidRequestError("kind %q cannot be its own base", k.Name)
	}
	for group, contexts := range k.Groups {
		if len(contexts) == 0 {
			return errors.NewInvalidRequestError("group %q of kind %q has no contexts", group, k.Name)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if k.Base != "" {
		if _, ok := r.kinds[k.Base]; !ok {
			return errors.Wrapf(ErrUnknownKind, "base %q of kind %q", k.Base, k.Name)
		}
	}
	r.kinds[k.Name] = k
	return nil
}

// Lookup returns the registered kind named name.
func (r *Registry) Lookup(name string) (Kind, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.kinds[name]
	return k, ok
}

// BaseKind follows the Base chain of name to its root kind.
func (r *Registry) BaseKind(name string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	k, ok := r.kinds[name]
	if !ok {
		if r.strict {
			return "", errors.Wrapf(ErrUnknownKind, "kind %q", name)
		}
		return name, nil
	}
	for k.Base != "" {
		k = r.kinds[k.Base]
	}
	return k.Name, nil
}

// Resolve rewrites ref to carry its base kind.
func (r *Registry) Resolve(ref Ref) (Ref, error) {
	base, err := r.BaseKind(ref.Kind)
	if err != nil {
		return Ref{}, err
	}
	return Ref{Kind: base, ID: ref.ID}, nil
}

// Group returns the contexts of group for kind, searching the kind first and
// then its bases.
func (r *Registry) Group(kind, group string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name := kind
	for name != "" {
		k, ok := r.kinds[name]
		if !ok {
			break
		}
		if contexts, ok := k.Groups[group]; ok {
			return append([]string(nil), contexts...), nil
		}
		name = k.Base
	}
	return nil, errors.Wrapf(ErrUnknownGroup, "group %q on kind %q", group, kind)
}
