package tags

type taggerKind uint8

const (
	taggerUnset taggerKind = iota
	taggerSystem
	taggerActor
)

// Tagger identifies who applied a tag.
//
// It is one of three cases:
//   - Unset: no tagger given. In queries this matches any tagger; for tag
//     lists it is treated as SystemDefault.
//   - SystemDefault: tags applied without an actor (NULL tagger columns).
//   - Actor: tags applied by a specific entity.
//
// The zero value is Unset. Taggers are comparable and usable as map keys.
type Tagger struct {
	kind  taggerKind
	actor Ref
}

// Unset returns the Tagger that leaves tagger attribution unconstrained.
func Unset() Tagger { return Tagger{} }

// SystemDefault returns the Tagger for tags with no attributed actor.
func SystemDefault() Tagger { return Tagger{kind: taggerSystem} }

// Actor returns the Tagger for tags applied by ref.
func Actor(ref Ref) Tagger { return Tagger{kind: taggerActor, actor: ref} }

// IsUnset reports whether t is Unset.
func (t Tagger) IsUnset() bool { return t.kind == taggerUnset }

// IsSystemDefault reports whether t is SystemDefault.
func (t Tagger) IsSystemDefault() bool { return t.kind == taggerSystem }

// Actor returns the actor ref and true when t is an Actor.
func (t Tagger) Actor() (Ref, bool) {
	if t.kind != taggerActor {
		return Ref{}, false
	}
	return t.actor, true
}

// forList maps Unset to SystemDefault; tag lists always have a concrete owner.
func (t Tagger) forList() Tagger {
	if t.kind == taggerUnset {
		return SystemDefault()
	}
	return t
}

func (t Tagger) String() string {
	switch t.kind {
	case taggerSystem:
		return "default"
	case taggerActor:
		return t.actor.String()
	default:
		return "unset"
	}
}
