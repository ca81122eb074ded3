package testutil

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/teranos/tagteam/db"
)

// SetupTestDB creates an in-memory SQLite database for testing.
// Uses real migrations to ensure test schema matches production schema.
func SetupTestDB(t *testing.T) *sql.DB {
	testDB, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	require.NoError(t, err)

	// Each new connection would get its own empty :memory: database
	testDB.SetMaxOpenConns(1)
	t.Cleanup(func() { testDB.Close() })

	err = db.Migrate(testDB, nil)
	require.NoError(t, err, "Failed to run migrations")

	return testDB
}

// SetupEmptyDB creates an in-memory SQLite database without the tagging schema.
// Used for testing error handling when tables are missing.
func SetupEmptyDB(t *testing.T) *sql.DB {
	emptyDB, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	emptyDB.SetMaxOpenConns(1)
	t.Cleanup(func() { emptyDB.Close() })
	return emptyDB
}

// TaggingRow is a raw taggings row as stored.
type TaggingRow struct {
	Name         string
	TaggableType string
	TaggableID   int64
	Context      sql.NullString
	TaggerType   sql.NullString
	TaggerID     sql.NullInt64
}

// TaggingRows returns every taggings row ordered by id.
func TaggingRows(t *testing.T, testDB *sql.DB) []TaggingRow {
	rows, err := testDB.QueryContext(context.Background(),
		"SELECT name, taggable_type, taggable_id, context, tagger_type, tagger_id FROM taggings ORDER BY id")
	require.NoError(t, err)
	defer rows.Close()

	var result []TaggingRow
	for rows.Next() {
		var r TaggingRow
		require.NoError(t, rows.Scan(&r.Name, &r.TaggableType, &r.TaggableID, &r.Context, &r.TaggerType, &r.TaggerID))
		result = append(result, r)
	}
	require.NoError(t, rows.Err())
	return result
}

// CountRows returns the number of rows in table.
func CountRows(t *testing.T, testDB *sql.DB, table string) int {
	var n int
	require.NoError(t, testDB.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}
