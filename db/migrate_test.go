package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenWithMigrations(t *testing.T) {
	db, err := OpenWithMigrations(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	defer db.Close()

	for _, table := range []string{"schema_migrations", "tags", "taggings"} {
		var exists int
		err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&exists)
		require.NoError(t, err)
		assert.Equal(t, 1, exists, "%s table should exist after migrations", table)
	}

	var applied int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&applied))
	assert.Equal(t, 3, applied)
}

func TestMigrate(t *testing.T) {
	t.Run("is idempotent", func(t *testing.T) {
		db, err := Open(filepath.Join(t.TempDir(), "test.db"), nil)
		require.NoError(t, err)
		defer db.Close()

		require.NoError(t, Migrate(db, nil))
		require.NoError(t, Migrate(db, nil), "running migrations multiple times should be safe")

		var applied int
		require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&applied))
		assert.Equal(t, 3, applied)
	})

	t.Run("fails on closed database", func(t *testing.T) {
		db, err := Open(filepath.Join(t.TempDir(), "test.db"), nil)
		require.NoError(t, err)
		db.Close()

		assert.Error(t, Migrate(db, nil))
	})
}

func TestSchemaConstraints(t *testing.T) {
	db, err := OpenWithMigrations(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	defer db.Close()

	t.Run("tag names are unique regardless of case", func(t *testing.T) {
		_, err := db.Exec("INSERT INTO tags (name) VALUES ('ruby')")
		require.NoError(t, err)

		_, err = db.Exec("INSERT INTO tags (name) VALUES ('RUBY')")
		assert.Error(t, err)
	})

	t.Run("blank tag names are rejected", func(t *testing.T) {
		_, err := db.Exec("INSERT INTO tags (name) VALUES ('   ')")
		assert.Error(t, err)
	})

	t.Run("deleting a tag cascades to its taggings", func(t *testing.T) {
		res, err := db.Exec("INSERT INTO tags (name) VALUES ('cascade')")
		require.NoError(t, err)
		tagID, _ := res.LastInsertId()

		_, err = db.Exec(`INSERT INTO taggings (tag_id, name, taggable_type, taggable_id) VALUES (?, 'cascade', 'item', 1)`, tagID)
		require.NoError(t, err)

		_, err = db.Exec("DELETE FROM tags WHERE id = ?", tagID)
		require.NoError(t, err)

		var remaining int
		require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM taggings WHERE tag_id = ?", tagID).Scan(&remaining))
		assert.Zero(t, remaining)
	})

	t.Run("same tag twice in one scope is rejected even with NULL context", func(t *testing.T) {
		res, err := db.Exec("INSERT INTO tags (name) VALUES ('dup')")
		require.NoError(t, err)
		tagID, _ := res.LastInsertId()

		insert := `INSERT INTO taggings (tag_id, name, taggable_type, taggable_id, context) VALUES (?, 'dup', 'item', 7, NULL)`
		_, err = db.Exec(insert, tagID)
		require.NoError(t, err)
		_, err = db.Exec(insert, tagID)
		assert.Error(t, err)
	})
}
