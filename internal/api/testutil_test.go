package api

import (
	"database/sql"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/carolus/carolus/internal/events"
	"github.com/carolus/carolus/internal/index"
	"github.com/carolus/carolus/internal/library"
	"github.com/carolus/carolus/internal/migrations"
)

type testEnv struct {
	db      *sql.DB
	store   *library.Store
	log     *events.EventLog
	scanner *fakeScanner
	server  *Server
	handler http.Handler
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrations.Migrate(db, testLogger()))

	env := &testEnv{
		db:      db,
		store:   library.NewStore(db),
		log:     events.NewEventLog(db),
		scanner: &fakeScanner{},
	}
	env.server, err = NewWithDeps(ServerDeps{
		Library:  env.store,
		EventLog: env.log,
		Scanner:  env.scanner,
		Status:   env.scanner,
		Version:  "test",
		Roots:    []string{"/movies"},
	}, testLogger())
	require.NoError(t, err)
	env.handler = env.server.Handler()
	return env
}

func (e *testEnv) do(t *testing.T, method, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

// addMovie indexes a movie backed by a real file holding content.
func (e *testEnv) addMovie(t *testing.T, title string, year int, content string) *library.Movie {
	t.Helper()
	path := filepath.Join(t.TempDir(), title+".mkv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	m := &library.Movie{
		Title:       title,
		Year:        year,
		FilePath:    path,
		SizeBytes:   int64(len(content)),
		ModTime:     time.Now(),
		Fingerprint: "fp-" + title,
	}
	created, err := e.store.CreateMovie(m)
	require.NoError(t, err)
	require.True(t, created)
	return m
}

type fakeScanner struct {
	pending bool
	running bool
	last    *index.Result
}

func (f *fakeScanner) Trigger() bool {
	if f.pending {
		return false
	}
	f.pending = true
	return true
}

func (f *fakeScanner) Pending() bool             { return f.pending }
func (f *fakeScanner) Running() bool             { return f.running }
func (f *fakeScanner) LastResult() *index.Result { return f.last }
