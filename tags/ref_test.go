package tags

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/tagteam/errors"
)

func TestParseRef(t *testing.T) {
	ref, err := ParseRef(" user:42 ")
	require.NoError(t, err)
	assert.Equal(t, Ref{Kind: "user", ID: 42}, ref)
	assert.Equal(t, "user:42", ref.String())

	for _, bad := range []string{"", "user", ":1", "user:x", "user:"} {
		_, err := ParseRef(bad)
		assert.True(t, errors.IsInvalidRequestError(err), bad)
	}
}

func TestRegistry_BaseKind(t *testing.T) {
	r := NewRegistry(false)
	require.NoError(t, r.Register(Kind{Name: "item"}))
	require.NoError(t, r.Register(Kind{Name: "book", Base: "item"}))
	require.NoError(t, r.Register(Kind{Name: "ebook", Base: "book"}))

	base, err := r.BaseKind("ebook")
	require.NoError(t, err)
	assert.Equal(t, "item", base)

	base, err = r.BaseKind("unregistered")
	require.NoError(t, err)
	assert.Equal(t, "unregistered", base, "lenient registry treats unknown kinds as roots")

	ref, err := r.Resolve(Ref{Kind: "book", ID: 3})
	require.NoError(t, err)
	assert.Equal(t, Ref{Kind: "item", ID: 3}, ref)
}

func TestRegistry_Strict(t *testing.T) {
	r := NewRegistry(true)
	require.NoError(t, r.Register(Kind{Name: "item"}))

	_, err := r.Resolve(Ref{Kind: "user", ID: 1})
	assert.True(t, errors.Is(err, ErrUnknownKind))
}

func TestRegistry_RegisterValidation(t *testing.T) {
	r := NewRegistry(false)

	assert.True(t, errors.IsInvalidRequestError(r.Register(Kind{Name: " "})))
	assert.True(t, errors.IsInvalidRequestError(r.Register(Kind{Name: "a", Base: "a"})))
	assert.True(t, errors.Is(r.Register(Kind{Name: "book", Base: "item"}), ErrUnknownKind))
	assert.True(t, errors.IsInvalidRequestError(r.Register(Kind{
		Name:   "item",
		Groups: map[string][]string{"empty": nil},
	})))
}

func TestRegistry_Group(t *testing.T) {
	r := NewRegistry(false)
	require.NoError(t, r.Register(Kind{
		Name:   "user",
		Groups: map[string][]string{"profile": {"skills", "interests"}},
	}))
	require.NoError(t, r.Register(Kind{Name: "admin", Base: "user"}))

	contexts, err := r.Group("admin", "profile")
	require.NoError(t, err)
	assert.Equal(t, []string{"skills", "interests"}, contexts)

	contexts[0] = "mutated"
	again, err := r.Group("user", "profile")
	require.NoError(t, err)
	assert.Equal(t, "skills", again[0])

	_, err = r.Group("user", "missing")
	assert.True(t, errors.Is(err, ErrUnknownGroup))
	assert.True(t, errors.IsNotFoundError(err))
}

func TestTagger(t *testing.T) {
	var zero Tagger
	assert.True(t, zero.IsUnset())
	assert.Equal(t, Unset(), zero)
	assert.Equal(t, SystemDefault(), zero.forList())

	alice := Actor(Ref{Kind: "user", ID: 9})
	ref, ok := alice.Actor()
	require.True(t, ok)
	assert.Equal(t, Ref{Kind: "user", ID: 9}, ref)
	assert.Equal(t, alice, alice.forList())
	assert.Equal(t, "user:9", alice.String())

	_, ok = SystemDefault().Actor()
	assert.False(t, ok)
	assert.Equal(t, "default", SystemDefault().String())

	keys := map[Tagger]int{SystemDefault(): 1, alice: 2}
	assert.Equal(t, 2, keys[Actor(Ref{Kind: "user", ID: 9})])
}
