package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carolus/carolus/internal/events"
	"github.com/carolus/carolus/internal/index"
)

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v))
	return v
}

func TestNewWithDeps_RequiresLibrary(t *testing.T) {
	_, err := NewWithDeps(ServerDeps{}, nil)
	assert.Error(t, err)
}

func TestListMovies_Empty(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/movies", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[listMoviesResponse](t, w.Body.Bytes())
	assert.Empty(t, resp.Items)
	assert.NotNil(t, resp.Items)
	assert.Zero(t, resp.Total)
	assert.Equal(t, 0, resp.Page)
	assert.Equal(t, defaultPageCount, resp.Count)
}

func TestListMovies_Pages(t *testing.T) {
	env := setupTestEnv(t)
	for i := 1; i <= 5; i++ {
		env.addMovie(t, fmt.Sprintf("Movie %d", i), 2000+i, "x")
	}

	w := env.do(t, http.MethodGet, "/api/movies?page=1&count=2", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[listMoviesResponse](t, w.Body.Bytes())
	assert.Equal(t, 5, resp.Total)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 2, resp.Count)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "Movie 3", resp.Items[0].Title)
	assert.Equal(t, "Movie 4", resp.Items[1].Title)
	assert.Equal(t, fmt.Sprintf("/api/movies/%d/video", resp.Items[0].ID), resp.Items[0].VideoURL)

	w = env.do(t, http.MethodGet, "/api/movies?page=9&count=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[listMoviesResponse](t, w.Body.Bytes()).Items)
}

func TestListMovies_CountCapped(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/movies?count=5000", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, maxPageCount, decode[listMoviesResponse](t, w.Body.Bytes()).Count)
}

func TestListMovies_InvalidPagination(t *testing.T) {
	env := setupTestEnv(t)

	for _, q := range []string{"page=-1", "count=0", "count=-5", "page=abc", "page=92233720368547759&count=100"} {
		t.Run(q, func(t *testing.T) {
			w := env.do(t, http.MethodGet, "/api/movies?"+q, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "INVALID_PAGINATION", decode[errorResponse](t, w.Body.Bytes()).Code)
		})
	}
}

func TestGetMovie(t *testing.T) {
	env := setupTestEnv(t)
	m := env.addMovie(t, "Heat", 1995, "heat")

	w := env.do(t, http.MethodGet, fmt.Sprintf("/api/movies/%d", m.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	resp := decode[movieResponse](t, w.Body.Bytes())
	assert.Equal(t, m.ID, resp.ID)
	assert.Equal(t, "Heat", resp.Title)
	assert.Equal(t, 1995, resp.Year)
	assert.Equal(t, int64(4), resp.SizeBytes)
}

func TestGetMovie_NotFound(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/movies/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decode[errorResponse](t, w.Body.Bytes()).Code)
}

func TestGetMovie_InvalidID(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/movies/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ID", decode[errorResponse](t, w.Body.Bytes()).Code)
}

func TestSearchMovies(t *testing.T) {
	env := setupTestEnv(t)
	env.addMovie(t, "Inception", 2010, "x")
	matrix := env.addMovie(t, "The Matrix", 1999, "x")
	env.addMovie(t, "The Matrix Reloaded", 2003, "x")

	w := env.do(t, http.MethodGet, "/api/movies/search?q=matrix", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[searchResponse](t, w.Body.Bytes())
	assert.Equal(t, "matrix", resp.Query)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, matrix.ID, resp.Items[0].ID)
	assert.Equal(t, "high", resp.Items[0].Confidence)
	assert.GreaterOrEqual(t, resp.Items[0].Score, resp.Items[1].Score)

	w = env.do(t, http.MethodGet, "/api/movies/search?q=matrix&limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[searchResponse](t, w.Body.Bytes()).Items, 1)
}

func TestSearchMovies_NoMatches(t *testing.T) {
	env := setupTestEnv(t)
	env.addMovie(t, "Inception", 2010, "x")

	w := env.do(t, http.MethodGet, "/api/movies/search?q=zzzz", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[searchResponse](t, w.Body.Bytes())
	assert.NotNil(t, resp.Items)
	assert.Empty(t, resp.Items)
}

func TestSearchMovies_MissingQuery(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/movies/search", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "MISSING_QUERY", decode[errorResponse](t, w.Body.Bytes()).Code)
}

func TestStreamMovie_Full(t *testing.T) {
	env := setupTestEnv(t)
	m := env.addMovie(t, "Heat", 1995, "0123456789")

	w := env.do(t, http.MethodGet, fmt.Sprintf("/api/movies/%d/video", m.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0123456789", w.Body.String())
	assert.Equal(t, "bytes", w.Header().Get("Accept-Ranges"))
	assert.Equal(t, "video/x-matroska", w.Header().Get("Content-Type"))
	assert.Equal(t, `"fp-Heat"`, w.Header().Get("ETag"))
}

func TestStreamMovie_Range(t *testing.T) {
	env := setupTestEnv(t)
	m := env.addMovie(t, "Heat", 1995, "0123456789")

	w := env.do(t, http.MethodGet, fmt.Sprintf("/api/movies/%d/video", m.ID), http.Header{"Range": {"bytes=4-"}})
	require.Equal(t, http.StatusPartialContent, w.Code)
	assert.Equal(t, "456789", w.Body.String())
	assert.Equal(t, "bytes 4-9/10", w.Header().Get("Content-Range"))
	assert.Equal(t, "6", w.Header().Get("Content-Length"))
}

func TestStreamMovie_Unsatisfiable(t *testing.T) {
	env := setupTestEnv(t)
	m := env.addMovie(t, "Heat", 1995, "0123456789")

	w := env.do(t, http.MethodGet, fmt.Sprintf("/api/movies/%d/video", m.ID), http.Header{"Range": {"bytes=50-60"}})
	assert.Equal(t, http.StatusRequestedRangeNotSatisfiable, w.Code)
	assert.Equal(t, "bytes */10", w.Header().Get("Content-Range"))
}

func TestStreamMovie_Head(t *testing.T) {
	env := setupTestEnv(t)
	m := env.addMovie(t, "Heat", 1995, "0123456789")

	w := env.do(t, http.MethodHead, fmt.Sprintf("/api/movies/%d/video", m.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "10", w.Header().Get("Content-Length"))
	assert.Empty(t, w.Body.String())
}

func TestStreamMovie_MissingFile(t *testing.T) {
	env := setupTestEnv(t)
	m := env.addMovie(t, "Heat", 1995, "0123456789")
	require.NoError(t, os.Remove(m.FilePath))

	w := env.do(t, http.MethodGet, fmt.Sprintf("/api/movies/%d/video", m.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "FILE_NOT_FOUND", decode[errorResponse](t, w.Body.Bytes()).Code)
}

func TestStreamMovie_UnknownMovie(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/movies/42/video", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decode[errorResponse](t, w.Body.Bytes()).Code)
}

func TestTriggerScan(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/scan", nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "queued", decode[scanResponse](t, w.Body.Bytes()).Status)

	w = env.do(t, http.MethodPost, "/api/scan", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "SCAN_PENDING", decode[errorResponse](t, w.Body.Bytes()).Code)
}

func TestTriggerScan_NoScanner(t *testing.T) {
	env := setupTestEnv(t)
	srv, err := NewWithDeps(ServerDeps{Library: env.store}, testLogger())
	require.NoError(t, err)

	req := httptestRequest(http.MethodPost, "/api/scan")
	w := serve(srv, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestTriggerScan_WrongMethod(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/scan", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestListEvents(t *testing.T) {
	env := setupTestEnv(t)
	for i := int64(1); i <= 3; i++ {
		_, err := env.log.Append(&events.MovieAdded{
			BaseEvent: events.NewBaseEvent(events.EventMovieAdded, events.EntityMovie, i),
			MovieID:   i,
			Title:     fmt.Sprintf("Movie %d", i),
		})
		require.NoError(t, err)
	}

	w := env.do(t, http.MethodGet, "/api/events?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[listEventsResponse](t, w.Body.Bytes())
	assert.Equal(t, 2, resp.Limit)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, int64(3), resp.Items[0].EntityID)
	assert.Equal(t, events.EventMovieAdded, resp.Items[0].Type)
	assert.Contains(t, string(resp.Items[0].Payload), `"title":"Movie 3"`)
}

func TestListEvents_InvalidLimit(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/events?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetStatus(t *testing.T) {
	env := setupTestEnv(t)
	env.addMovie(t, "Heat", 1995, "x")
	env.scanner.running = true
	env.scanner.last = &index.Result{Run: 4, Found: 1, Added: 1}

	w := env.do(t, http.MethodGet, "/api/status", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[statusResponse](t, w.Body.Bytes())
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "test", resp.Version)
	assert.Equal(t, 1, resp.Movies)
	assert.Equal(t, []string{"/movies"}, resp.Roots)
	assert.True(t, resp.Scanning)
	assert.False(t, resp.ScanPending)
	require.NotNil(t, resp.LastScan)
	assert.Equal(t, int64(4), resp.LastScan.Run)
}

func TestListEvents_Since(t *testing.T) {
	env := setupTestEnv(t)
	old := &events.MovieRemoved{
		BaseEvent: events.NewBaseEvent(events.EventMovieRemoved, events.EntityMovie, 1),
		MovieID:   1,
	}
	old.Timestamp = time.Now().UTC().Add(-48 * time.Hour)
	_, err := env.log.Append(old)
	require.NoError(t, err)
	_, err = env.log.Append(&events.MovieAdded{
		BaseEvent: events.NewBaseEvent(events.EventMovieAdded, events.EntityMovie, 2),
		MovieID:   2,
		Title:     "Fresh",
	})
	require.NoError(t, err)

	since := time.Now().UTC().Add(-time.Hour).Format(time.RFC3339)
	w := env.do(t, http.MethodGet, "/api/events?since="+since, nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[listEventsResponse](t, w.Body.Bytes())
	require.Len(t, resp.Items, 1)
	assert.Equal(t, int64(2), resp.Items[0].EntityID)
}

func TestListEvents_InvalidSince(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/events?since=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_SINCE")
}

func TestMovieHistory(t *testing.T) {
	env := setupTestEnv(t)
	_, err := env.log.Append(&events.MovieAdded{
		BaseEvent: events.NewBaseEvent(events.EventMovieAdded, events.EntityMovie, 7),
		MovieID:   7,
		Title:     "Alien",
	})
	require.NoError(t, err)
	_, err = env.log.Append(&events.MovieMoved{
		BaseEvent: events.NewBaseEvent(events.EventMovieMoved, events.EntityMovie, 7),
		MovieID:   7,
		OldPath:   "/movies/a.mkv",
		NewPath:   "/movies/b.mkv",
	})
	require.NoError(t, err)
	_, err = env.log.Append(&events.MovieAdded{
		BaseEvent: events.NewBaseEvent(events.EventMovieAdded, events.EntityMovie, 8),
		MovieID:   8,
	})
	require.NoError(t, err)

	w := env.do(t, http.MethodGet, "/api/movies/7/history", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[movieHistoryResponse](t, w.Body.Bytes())
	assert.Equal(t, int64(7), resp.MovieID)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, events.EventMovieAdded, resp.Items[0].Type)
	assert.Equal(t, events.EventMovieMoved, resp.Items[1].Type)
	assert.Contains(t, string(resp.Items[1].Payload), "/movies/b.mkv")
}

func TestMovieHistory_InvalidID(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/movies/abc/history", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetMovie_ReleaseHints(t *testing.T) {
	env := setupTestEnv(t)
	tagged := env.addMovie(t, "Heat.1995.1080p.BluRay.x264", 1995, "x")
	plain := env.addMovie(t, "Heat (1995)", 1995, "x")

	w := env.do(t, http.MethodGet, fmt.Sprintf("/api/movies/%d", tagged.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[movieResponse](t, w.Body.Bytes())
	require.NotNil(t, resp.Release)
	assert.Equal(t, releaseHints{Resolution: "1080p", Source: "bluray", Codec: "x264"}, *resp.Release)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/movies/%d", plain.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), `"release"`)
}
