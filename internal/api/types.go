package api

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/carolus/carolus/internal/index"
	"github.com/carolus/carolus/internal/library"
	"github.com/carolus/carolus/pkg/release"
)

// movieResponse is the API representation of a movie.
type movieResponse struct {
	ID              int64         `json:"id"`
	Title           string        `json:"title"`
	Year            int           `json:"year,omitempty"`
	FilePath        string        `json:"file_path"`
	SizeBytes       int64         `json:"size_bytes"`
	ModTime         time.Time     `json:"mod_time"`
	Container       string        `json:"container,omitempty"`
	DurationSeconds int64         `json:"duration_seconds,omitempty"`
	VideoCodec      string        `json:"video_codec,omitempty"`
	AudioCodec      string        `json:"audio_codec,omitempty"`
	Width           int           `json:"width,omitempty"`
	Height          int           `json:"height,omitempty"`
	Release         *releaseHints `json:"release,omitempty"`
	VideoURL        string        `json:"video_url"`
	AddedAt         time.Time     `json:"added_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

func movieToResponse(m *library.Movie) movieResponse {
	return movieResponse{
		ID:              m.ID,
		Title:           m.Title,
		Year:            m.Year,
		FilePath:        m.FilePath,
		SizeBytes:       m.SizeBytes,
		ModTime:         m.ModTime,
		Container:       m.Container,
		DurationSeconds: m.DurationSeconds,
		VideoCodec:      m.VideoCodec,
		AudioCodec:      m.AudioCodec,
		Width:           m.Width,
		Height:          m.Height,
		Release:         hintsFor(m.FilePath),
		VideoURL:        fmt.Sprintf("/api/movies/%d/video", m.ID),
		AddedAt:         m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// releaseHints is what the file name advertises about the encoding.
type releaseHints struct {
	Resolution string `json:"resolution,omitempty"`
	Source     string `json:"source,omitempty"`
	Codec      string `json:"codec,omitempty"`
	Extended   bool   `json:"extended,omitempty"`
}

// hintsFor parses the file name, returning nil when it advertises nothing.
func hintsFor(path string) *releaseHints {
	info := release.Parse(path)
	h := &releaseHints{Extended: info.Extended}
	if info.Resolution != release.ResolutionUnknown {
		h.Resolution = info.Resolution.String()
	}
	if info.Source != release.SourceUnknown {
		h.Source = info.Source.String()
	}
	if info.Codec != release.CodecUnknown {
		h.Codec = info.Codec.String()
	}
	if *h == (releaseHints{}) {
		return nil
	}
	return h
}

// listMoviesResponse is the response for GET /api/movies.
type listMoviesResponse struct {
	Items []movieResponse `json:"items"`
	Page  int             `json:"page"`
	Count int             `json:"count"`
	Total int             `json:"total"`
}

// searchResult is one fuzzy title match.
type searchResult struct {
	movieResponse
	Score      float64 `json:"score"`
	Confidence string  `json:"confidence"`
}

// searchResponse is the response for GET /api/movies/search.
type searchResponse struct {
	Query string         `json:"query"`
	Items []searchResult `json:"items"`
}

// scanResponse is the response for POST /api/scan.
type scanResponse struct {
	Status string `json:"status"`
}

// eventResponse is one entry of the audit log.
type eventResponse struct {
	ID         int64           `json:"id"`
	Type       string          `json:"type"`
	EntityType string          `json:"entity_type"`
	EntityID   int64           `json:"entity_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// listEventsResponse is the response for GET /api/events.
type listEventsResponse struct {
	Items []eventResponse `json:"items"`
	Limit int             `json:"limit"`
}

// movieHistoryResponse is the response for GET /api/movies/{id}/history.
type movieHistoryResponse struct {
	MovieID int64           `json:"movie_id"`
	Items   []eventResponse `json:"items"`
}

// statusResponse is the response for GET /api/status.
type statusResponse struct {
	Status      string        `json:"status"`
	Version     string        `json:"version"`
	Movies      int           `json:"movies"`
	Roots       []string      `json:"roots"`
	Scanning    bool          `json:"scanning"`
	ScanPending bool          `json:"scan_pending"`
	LastScan    *index.Result `json:"last_scan,omitempty"`
}
