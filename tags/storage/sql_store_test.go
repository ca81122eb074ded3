package storage_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/tagteam/errors"
	"github.com/teranos/tagteam/tags"
	"github.com/teranos/tagteam/tags/storage"
	"github.com/teranos/tagteam/tags/storage/testutil"
)

type fixture struct {
	db    *sql.DB
	store *storage.SQLStore
	svc   *tags.Service
}

func newFixture(t *testing.T, opts ...storage.Option) *fixture {
	testDB := testutil.SetupTestDB(t)
	log := zaptest.NewLogger(t).Sugar()
	store := storage.NewSQLStore(testDB, log, opts...)
	return &fixture{
		db:    testDB,
		store: store,
		svc:   tags.NewService(store, nil, tags.WithLogger(log)),
	}
}

func item(id int64) tags.Ref { return tags.Ref{Kind: "item", ID: id} }

// tag sets the tag string of ref in context for tagger and saves it.
func (f *fixture) tag(t *testing.T, ref tags.Ref, input, tagContext string, tagger tags.Tagger) {
	t.Helper()
	ctx := context.Background()
	taggable, err := f.svc.Taggable(ref)
	require.NoError(t, err)
	require.NoError(t, taggable.SetTagString(ctx, input, tagContext, tagger))
	require.NoError(t, f.svc.ReconcileTags(ctx, taggable))
}

func TestFindTagged_ExactTagSet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.tag(t, item(1), "go, sql", "", tags.Unset())
	f.tag(t, item(2), "go", "", tags.Unset())
	f.tag(t, item(3), "sql, rust", "", tags.Unset())
	f.tag(t, tags.Ref{Kind: "user", ID: 1}, "go, sql", "", tags.Unset())

	testCases := []struct {
		name     string
		query    storage.TaggedQuery
		expected []int64
	}{
		{"both tags required", storage.TaggedWith("go", "sql").OfKind("item"), []int64{1}},
		{"single tag case-insensitive", storage.TaggedWith("GO").OfKind("item"), []int64{1, 2}},
		{"duplicates collapse", storage.TaggedWith("go", "Go", "sql").OfKind("item"), []int64{1}},
		{"any tag", storage.TaggedWith("go", "rust").OfKind("item").AnyTag(), []int64{1, 2, 3}},
		{"no entity carries all", storage.TaggedWith("go", "rust").OfKind("item"), []int64{}},
		{"other kind", storage.TaggedWith("go", "sql").OfKind("user"), []int64{1}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ids, err := f.store.FindTagged(ctx, tc.query)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, ids)
		})
	}
}

func TestFindTagged_UnknownTagMatchesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.tag(t, item(1), "go", "", tags.Unset())

	pred, err := f.store.ResolveTagged(ctx, storage.TaggedWith("go", "never-used").OfKind("item"))
	require.NoError(t, err)
	assert.True(t, pred.MatchesNone())

	clause, args, err := pred.SQL("id")
	require.NoError(t, err)
	assert.Equal(t, "1 = 0", clause)
	assert.Empty(t, args)
}

func TestFindTagged_EmptyNames(t *testing.T) {
	ctx := context.Background()

	t.Run("matches none by default", func(t *testing.T) {
		f := newFixture(t)
		f.tag(t, item(1), "go", "", tags.Unset())

		ids, err := f.store.FindTagged(ctx, storage.TaggedWith().OfKind("item"))
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("legacy switch matches every tagged entity", func(t *testing.T) {
		f := newFixture(t, storage.WithEmptyFilterMatchesAll(true))
		f.tag(t, item(1), "go", "", tags.Unset())
		f.tag(t, item(2), "sql", "", tags.Unset())

		ids, err := f.store.FindTagged(ctx, storage.TaggedWith(" ").OfKind("item"))
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2}, ids)
	})
}

func TestFindTagged_ContextAndTagger(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := tags.Actor(tags.Ref{Kind: "user", ID: 9})

	f.tag(t, item(1), "go", "", tags.Unset())
	f.tag(t, item(2), "go", "skills", tags.Unset())
	f.tag(t, item(3), "go", "skills", alice)

	ids, err := f.store.FindTagged(ctx, storage.TaggedWith("go").OfKind("item").WithContext("skills"))
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3}, ids)

	ids, err = f.store.FindTagged(ctx, storage.TaggedWith("go").OfKind("item").WithTagger(tags.SystemDefault()))
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids)

	ids, err = f.store.FindTagged(ctx, storage.TaggedWith("go").OfKind("item").WithTagger(alice))
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, ids)

	ids, err = f.store.FindTagged(ctx, storage.TaggedWith("go").OfKind("item"))
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids)
}

func TestPredicate_ComposesIntoHostQuery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.db.Exec(`CREATE TABLE items (id INTEGER PRIMARY KEY, title TEXT NOT NULL)`)
	require.NoError(t, err)
	_, err = f.db.Exec(`INSERT INTO items (id, title) VALUES (1, 'a'), (2, 'b'), (3, 'c')`)
	require.NoError(t, err)

	f.tag(t, item(1), "go, sql", "", tags.Unset())
	f.tag(t, item(3), "sql, go, rust", "", tags.Unset())

	pred, err := f.store.ResolveTagged(ctx, storage.TaggedWith("sql", "go").OfKind("item"))
	require.NoError(t, err)
	clause, args, err := pred.SQL("items.id")
	require.NoError(t, err)

	rows, err := f.db.QueryContext(ctx, "SELECT title FROM items WHERE "+clause+" ORDER BY id", args...)
	require.NoError(t, err)
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var title string
		require.NoError(t, rows.Scan(&title))
		titles = append(titles, title)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"a", "c"}, titles)
}

func TestFindRelated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.tag(t, item(1), "a, b, c", "", tags.Unset())
	f.tag(t, item(2), "a, b", "", tags.Unset())
	f.tag(t, item(3), "c", "", tags.Unset())
	f.tag(t, item(4), "z", "", tags.Unset())
	f.tag(t, item(5), "a", "skills", tags.Unset())
	f.tag(t, tags.Ref{Kind: "user", ID: 2}, "a, b, c", "", tags.Unset())

	related, err := f.store.FindRelated(ctx, storage.RelatedTo(item(1)))
	require.NoError(t, err)
	assert.Equal(t, []storage.RelatedEntity{
		{ID: 2, Shared: 2},
		{ID: 3, Shared: 1},
		{ID: 5, Shared: 1},
	}, related)

	related, err = f.store.FindRelated(ctx, storage.RelatedTo(item(1)).Limit(1))
	require.NoError(t, err)
	assert.Equal(t, []storage.RelatedEntity{{ID: 2, Shared: 2}}, related)

	related, err = f.store.FindRelated(ctx, storage.RelatedTo(item(4)))
	require.NoError(t, err)
	assert.Empty(t, related)
}

func TestFindRelated_ContextFilter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.tag(t, item(1), "go", "skills", tags.Unset())
	f.tag(t, item(1), "chess", "interests", tags.Unset())
	f.tag(t, item(2), "go", "skills", tags.Unset())
	f.tag(t, item(3), "chess", "interests", tags.Unset())

	related, err := f.store.FindRelated(ctx, storage.RelatedTo(item(1)).WithContext("skills"))
	require.NoError(t, err)
	assert.Equal(t, []storage.RelatedEntity{{ID: 2, Shared: 1}}, related)
}

func TestTagCounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := tags.Actor(tags.Ref{Kind: "user", ID: 9})

	f.tag(t, item(1), "go, sql", "", tags.Unset())
	f.tag(t, item(2), "go, rust", "", tags.Unset())
	f.tag(t, item(3), "go", "skills", alice)
	f.tag(t, tags.Ref{Kind: "user", ID: 1}, "sql", "", tags.Unset())

	t.Run("global", func(t *testing.T) {
		counts, err := f.store.TagCounts(ctx, storage.CountTags())
		require.NoError(t, err)
		assert.Equal(t, []tags.TagCount{
			{Name: "go", Count: 3},
			{Name: "sql", Count: 2},
			{Name: "rust", Count: 1},
		}, counts)
	})

	t.Run("selected taggables", func(t *testing.T) {
		counts, err := f.store.TagCounts(ctx, storage.CountTags().ForTaggables("item", 1, 2))
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"go": 2, "rust": 1, "sql": 1}, tags.CountsToMap(counts))
	})

	t.Run("empty collection", func(t *testing.T) {
		counts, err := f.store.TagCounts(ctx, storage.CountTags().ForNoTaggables("item"))
		require.NoError(t, err)
		assert.Empty(t, counts)
	})

	t.Run("limit keeps the most used", func(t *testing.T) {
		counts, err := f.store.TagCounts(ctx, storage.CountTags().ForTaggables("item").Limit(1))
		require.NoError(t, err)
		assert.Equal(t, []tags.TagCount{{Name: "go", Count: 3}}, counts)
	})

	t.Run("context and tagger", func(t *testing.T) {
		counts, err := f.store.TagCounts(ctx, storage.CountTags().WithContext("skills").WithTagger(alice))
		require.NoError(t, err)
		assert.Equal(t, []tags.TagCount{{Name: "go", Count: 1}}, counts)

		counts, err = f.store.TagCounts(ctx, storage.CountTags().WithTagger(tags.SystemDefault()))
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"go": 2, "sql": 2, "rust": 1}, tags.CountsToMap(counts))
	})

	t.Run("within tagged predicate", func(t *testing.T) {
		pred, err := f.store.ResolveTagged(ctx, storage.TaggedWith("rust").OfKind("item"))
		require.NoError(t, err)

		counts, err := f.store.TagCounts(ctx, storage.CountTags().WithinTagged(pred))
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"go": 1, "rust": 1}, tags.CountsToMap(counts))
	})

	t.Run("within predicate matching nothing", func(t *testing.T) {
		pred, err := f.store.ResolveTagged(ctx, storage.TaggedWith("missing").OfKind("item"))
		require.NoError(t, err)

		counts, err := f.store.TagCounts(ctx, storage.CountTags().WithinTagged(pred))
		require.NoError(t, err)
		assert.Empty(t, counts)
	})
}

func TestCreateTag_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tag, err := f.store.CreateTag(ctx, "Ruby")
	require.NoError(t, err)
	assert.Equal(t, "ruby", tag.Name)

	_, err = f.store.CreateTag(ctx, "RUBY")
	assert.True(t, errors.Is(err, tags.ErrDuplicateTagName))
	assert.True(t, errors.IsConflictError(err))

	_, err = f.store.CreateTag(ctx, "   ")
	assert.True(t, errors.Is(err, tags.ErrBlankTagName))
	assert.True(t, errors.IsInvalidRequestError(err))
	assert.NotEmpty(t, errors.GetAllHints(err))
}

func TestFindOrCreateTag_CaseInsensitive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.store.FindOrCreateTag(ctx, "Golang")
	require.NoError(t, err)
	second, err := f.store.FindOrCreateTag(ctx, "GOLANG")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "golang", second.Name)
	assert.Equal(t, 1, testutil.CountRows(t, f.db, "tags"))

	found, err := f.store.FindTagByName(ctx, "goLang")
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)

	_, err = f.store.FindTagByName(ctx, "missing")
	assert.True(t, errors.IsNotFoundError(err))
}

func TestDeleteTag_CascadesToTaggings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.tag(t, item(1), "go, sql", "", tags.Unset())
	f.tag(t, item(2), "go", "", tags.Unset())

	require.NoError(t, f.store.DeleteTag(ctx, "GO"))

	rows := testutil.TaggingRows(t, f.db)
	require.Len(t, rows, 1)
	assert.Equal(t, "sql", rows[0].Name)

	err := f.store.DeleteTag(ctx, "go")
	assert.True(t, errors.IsNotFoundError(err))
}

func TestListTags(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, name := range []string{"golang", "go_kit", "gossip", "rust"} {
		_, err := f.store.CreateTag(ctx, name)
		require.NoError(t, err)
	}

	all, err := f.store.ListTags(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	prefixed, err := f.store.ListTags(ctx, "GO", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"go_kit", "golang", "gossip"}, tagNames(prefixed))

	escaped, err := f.store.ListTags(ctx, "go_", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"go_kit"}, tagNames(escaped))

	limited, err := f.store.ListTags(ctx, "go", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestSharedAndIndividualContexts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := tags.Actor(tags.Ref{Kind: "user", ID: 9})

	f.tag(t, item(1), "go", "skills", tags.Unset())
	f.tag(t, item(1), "chess", "interests", tags.Unset())
	f.tag(t, item(1), "tea", "", tags.Unset())
	f.tag(t, item(2), "go", "favorites", alice)
	f.tag(t, tags.Ref{Kind: "user", ID: 1}, "go", "languages", tags.Unset())

	shared, err := f.store.SharedContexts(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"interests", "languages", "skills"}, shared)

	shared, err = f.store.SharedContexts(ctx, "item")
	require.NoError(t, err)
	assert.Equal(t, []string{"interests", "skills"}, shared)

	individual, err := f.store.IndividualContexts(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"favorites"}, individual)
}

func TestTaggingsAndRemoval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := tags.Actor(tags.Ref{Kind: "user", ID: 9})

	f.tag(t, item(1), "Go", "skills", alice)
	f.tag(t, item(1), "chess", "interests", tags.Unset())
	f.tag(t, item(2), "go", "skills", tags.Unset())

	taggings, err := f.store.TaggingsInContexts(ctx, item(1), []string{"skills"})
	require.NoError(t, err)
	require.Len(t, taggings, 1)
	assert.Equal(t, "Go", taggings[0].Name)
	assert.Equal(t, "skills", taggings[0].Context)
	assert.Equal(t, alice, taggings[0].Tagger)
	assert.False(t, taggings[0].CreatedAt.IsZero())

	all, err := f.store.Taggings(ctx, item(1))
	require.NoError(t, err)
	assert.Len(t, all, 2)

	removed, err := f.store.RemoveTaggings(ctx, item(1))
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	rows := testutil.TaggingRows(t, f.db)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(2), rows[0].TaggableID)
}

func TestSubkindsResolveToBaseKind(t *testing.T) {
	registry := tags.NewRegistry(true)
	require.NoError(t, registry.Register(tags.Kind{Name: "item"}))
	require.NoError(t, registry.Register(tags.Kind{Name: "book", Base: "item"}))

	testDB := testutil.SetupTestDB(t)
	store := storage.NewSQLStore(testDB, nil, storage.WithRegistry(registry))
	svc := tags.NewService(store, registry)
	ctx := context.Background()

	book, err := svc.Taggable(tags.Ref{Kind: "book", ID: 1})
	require.NoError(t, err)
	require.NoError(t, book.SetTagString(ctx, "fiction", "", tags.Unset()))
	require.NoError(t, svc.ReconcileTags(ctx, book))

	rows := testutil.TaggingRows(t, testDB)
	require.Len(t, rows, 1)
	assert.Equal(t, "item", rows[0].TaggableType)

	ids, err := store.FindTagged(ctx, storage.TaggedWith("fiction").OfKind("book"))
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids)

	_, err = store.FindTagged(ctx, storage.TaggedWith("fiction").OfKind("magazine"))
	assert.True(t, errors.Is(err, tags.ErrUnknownKind))
}

func tagNames(list []tags.Tag) []string {
	names := make([]string, len(list))
	for i, tag := range list {
		names[i] = tag.Name
	}
	return names
}
