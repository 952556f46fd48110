package main

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{500, "500 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1024 * 1024, "1.0 MB"},
		{12000000000, "11.2 GB"},
		{1024 * 1024 * 1024 * 1024, "1.0 TB"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, formatSize(tt.bytes))
		})
	}
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "-", formatDuration(0))
	assert.Equal(t, "45m", formatDuration(45*60))
	assert.Equal(t, "2h01m", formatDuration(7266))
}

func TestFormatTimeAgo(t *testing.T) {
	assert.Equal(t, "never", formatTimeAgo(time.Time{}))
	assert.Equal(t, "just now", formatTimeAgo(time.Now()))
	assert.Equal(t, "5m ago", formatTimeAgo(time.Now().Add(-5*time.Minute-time.Second)))
	assert.Equal(t, "3h ago", formatTimeAgo(time.Now().Add(-3*time.Hour-time.Minute)))
	assert.Equal(t, "2d ago", formatTimeAgo(time.Now().Add(-49*time.Hour)))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "Amélie ...", truncate("Amélie Poulain", 10))
}

func TestMoviesCmd(t *testing.T) {
	srv := newMockServer(t).
		ExpectPath("/api/movies").
		ExpectQuery("page", "1").
		ExpectQuery("count", "2").
		RespondJSON(ListMoviesResponse{
			Items: []MovieResponse{
				{ID: 3, Title: "Heat", Year: 1995, SizeBytes: 1536},
				{ID: 4, Title: "Ronin", Year: 1998, DurationSeconds: 7266},
			},
			Page:  1,
			Count: 2,
			Total: 5,
		}).
		Build()

	out, err := runCommand(t, srv.URL, "movies", "--page", "1", "--count", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Movies 3-4 of 5")
	assert.Contains(t, out, "Heat (1995)")
	assert.Contains(t, out, "1.5 KB")
	assert.Contains(t, out, "2h01m")
	assert.Contains(t, out, "carolus movies --page 2 --count 2")
}

func TestMoviesCmd_Empty(t *testing.T) {
	srv := newMockServer(t).
		RespondJSON(ListMoviesResponse{Items: []MovieResponse{}, Count: 20}).
		Build()

	out, err := runCommand(t, srv.URL, "movies")
	require.NoError(t, err)
	assert.Contains(t, out, "No movies in library")
}

func TestMoviesCmd_JSON(t *testing.T) {
	srv := newMockServer(t).
		RespondJSON(ListMoviesResponse{Items: []MovieResponse{{ID: 1, Title: "Heat"}}, Count: 20, Total: 1}).
		Build()

	out, err := runCommand(t, srv.URL, "--json", "movies")
	require.NoError(t, err)

	var resp ListMoviesResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "Heat", resp.Items[0].Title)
}

func TestMovieCmd(t *testing.T) {
	srv := newMockServer(t).
		ExpectPath("/api/movies/7").
		RespondJSON(MovieResponse{
			ID:         7,
			Title:      "Heat",
			Year:       1995,
			FilePath:   "/movies/Heat (1995).mkv",
			VideoCodec: "h264",
			Width:      1920,
			Height:     1080,
			Release:    &Release{Resolution: "1080p", Source: "bluray", Extended: true},
			VideoURL:   "/api/movies/7/video",
		}).
		Build()

	out, err := runCommand(t, srv.URL, "movie", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "Release:   1080p bluray extended")
	assert.Contains(t, out, "Heat (1995)")
	assert.Contains(t, out, "/movies/Heat (1995).mkv")
	assert.Contains(t, out, "h264 1920x1080")
	assert.Contains(t, out, srv.URL+"/api/movies/7/video")
}

func TestMovieCmd_InvalidID(t *testing.T) {
	_, err := runCommand(t, "http://127.0.0.1:1", "movie", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid movie ID")
}

func TestSearchCmd(t *testing.T) {
	srv := newMockServer(t).
		ExpectPath("/api/movies/search").
		ExpectQuery("q", "the matrix").
		RespondJSON(SearchResponse{
			Query: "the matrix",
			Items: []SearchResult{
				{MovieResponse: MovieResponse{ID: 1, Title: "The Matrix", Year: 1999}, Score: 1, Confidence: "high"},
			},
		}).
		Build()

	out, err := runCommand(t, srv.URL, "search", "the", "matrix")
	require.NoError(t, err)
	assert.Contains(t, out, `Matches for "the matrix" (1)`)
	assert.Contains(t, out, "The Matrix (1999)")
	assert.Contains(t, out, "1.00 high")
}

func TestSearchCmd_NoMatches(t *testing.T) {
	srv := newMockServer(t).
		RespondJSON(SearchResponse{Query: "zzz", Items: []SearchResult{}}).
		Build()

	out, err := runCommand(t, srv.URL, "search", "zzz")
	require.NoError(t, err)
	assert.Contains(t, out, `No matches for "zzz"`)
}

func TestScanCmd(t *testing.T) {
	srv := newMockServer(t).
		ExpectPath("/api/scan").
		ExpectPOST().
		RespondJSONStatus(http.StatusAccepted, ScanResponse{Status: "queued"}).
		Build()

	out, err := runCommand(t, srv.URL, "scan")
	require.NoError(t, err)
	assert.Contains(t, out, "Scan queued")
}

func TestScanCmd_AlreadyPending(t *testing.T) {
	srv := newMockServer(t).
		RespondError(http.StatusConflict, "SCAN_PENDING", "A scan is already queued").
		Build()

	out, err := runCommand(t, srv.URL, "scan")
	require.NoError(t, err)
	assert.Contains(t, out, "already queued")
}

func TestScanCmd_Unavailable(t *testing.T) {
	srv := newMockServer(t).
		RespondError(http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Scanner not configured").
		Build()

	_, err := runCommand(t, srv.URL, "scan")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestStatusCmd(t *testing.T) {
	srv := newMockServer(t).
		ExpectPath("/api/status").
		RespondJSON(StatusResponse{
			Status:  "ok",
			Version: "1.2.0",
			Movies:  42,
			Roots:   []string{"/movies", "/more"},
			LastScan: &ScanResult{
				Run:       3,
				StartedAt: time.Now().Add(-2 * time.Hour),
				Found:     42,
				Added:     2,
				Duration:  1500 * time.Millisecond,
			},
		}).
		Build()

	out, err := runCommand(t, srv.URL, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "carolus 1.2.0")
	assert.Contains(t, out, "Movies:  42")
	assert.Contains(t, out, "/movies, /more")
	assert.Contains(t, out, "State:   idle")
	assert.Contains(t, out, "#3 2h ago (took 1.5s)")
	assert.Contains(t, out, "Found 42 | added 2")
}

func TestStatusCmd_NeverScanned(t *testing.T) {
	srv := newMockServer(t).
		RespondJSON(StatusResponse{Status: "ok", ScanPending: true}).
		Build()

	out, err := runCommand(t, srv.URL, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "State:   queued")
	assert.Contains(t, out, "Last:    never")
}

func TestEventsCmd(t *testing.T) {
	srv := newMockServer(t).
		ExpectPath("/api/events").
		ExpectQuery("limit", "5").
		RespondJSON(ListEventsResponse{
			Items: []EventResponse{
				{ID: 2, Type: "movie.added", EntityType: "movie", EntityID: 9, OccurredAt: time.Now()},
			},
			Limit: 5,
		}).
		Build()

	out, err := runCommand(t, srv.URL, "events", "-n", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "Recent Events (1)")
	assert.Contains(t, out, "movie.added")
	assert.Contains(t, out, "movie/9")
}

func TestEventsCmd_Empty(t *testing.T) {
	srv := newMockServer(t).
		RespondJSON(ListEventsResponse{Items: []EventResponse{}}).
		Build()

	out, err := runCommand(t, srv.URL, "events")
	require.NoError(t, err)
	assert.Contains(t, out, "No events")
}

func TestInitCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "config.toml")

	out, err := runCommand(t, "http://127.0.0.1:1", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)
	assert.FileExists(t, path)

	_, err = runCommand(t, "http://127.0.0.1:1", "init", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = runCommand(t, "http://127.0.0.1:1", "init", "--force", path)
	require.NoError(t, err)
}

func TestConfigCheckCmd(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[server]
port = 9000

[database]
path = "` + filepath.Join(root, "carolus.db") + `"

[library]
roots = ["` + root + `"]
fingerprint = true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	out, err := runCommand(t, "http://127.0.0.1:1", "config", "check", path)
	require.NoError(t, err)
	assert.Contains(t, out, "http://0.0.0.0:9000")
	assert.Contains(t, out, "Roots:      "+root)
	assert.Contains(t, out, "fingerprint")
	assert.Contains(t, out, "Configuration valid!")
}

func TestConfigCheckCmd_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\nport = 99999\n"), 0o644))

	out, err := runCommand(t, "http://127.0.0.1:1", "config", "check", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration invalid")
	assert.Contains(t, out, "server.port")
}

func TestHistoryCmd(t *testing.T) {
	srv := newMockServer(t).
		ExpectPath("/api/movies/7/history").
		RespondJSON(MovieHistoryResponse{
			MovieID: 7,
			Items: []EventResponse{
				{Type: "movie.added", EntityType: "movie", EntityID: 7, OccurredAt: time.Now(),
					Payload: json.RawMessage(`{"title":"Alien","path":"/movies/a.mkv"}`)},
				{Type: "movie.moved", EntityType: "movie", EntityID: 7, OccurredAt: time.Now(),
					Payload: json.RawMessage(`{"old_path":"/movies/a.mkv","new_path":"/movies/b.mkv"}`)},
			},
		}).
		Build()

	out, err := runCommand(t, srv.URL, "history", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "History of movie 7")
	assert.Contains(t, out, "/movies/a.mkv -> /movies/b.mkv")
}

func TestHistoryCmd_InvalidID(t *testing.T) {
	_, err := runCommand(t, "http://127.0.0.1:1", "history", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid movie ID")
}
