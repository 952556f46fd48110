package library

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/carolus/carolus/internal/migrations"
)

// setupTestDB returns a migrated in-memory database closed at test end.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// every :memory: connection is a separate database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migrations.Migrate(db, nil))
	return db
}

func ptr[T any](v T) *T { return &v }

func addTestMovie(t *testing.T, store *Store, title string, year int, path string) *Movie {
	t.Helper()
	m := &Movie{Title: title, Year: year, FilePath: path, SizeBytes: 1024}
	created, err := store.CreateMovie(m)
	require.NoError(t, err)
	require.True(t, created, "movie %q already indexed", path)
	return m
}
