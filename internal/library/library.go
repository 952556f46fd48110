// Package library manages the indexed movie records.
package library

import (
	"time"
)

// Movie is a video file found in one of the library roots.
type Movie struct {
	ID              int64     `db:"id"`
	Title           string    `db:"title"`
	Year            int       `db:"year"`
	FilePath        string    `db:"file_path"`
	SizeBytes       int64     `db:"size_bytes"`
	ModTime         time.Time `db:"mod_time"`
	Fingerprint     string    `db:"fingerprint"`
	Container       string    `db:"container"`
	DurationSeconds int64     `db:"duration_seconds"`
	VideoCodec      string    `db:"video_codec"`
	AudioCodec      string    `db:"audio_codec"`
	Width           int       `db:"width"`
	Height          int       `db:"height"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

// Duration returns the probed running time, zero when unknown.
func (m *Movie) Duration() time.Duration {
	return time.Duration(m.DurationSeconds) * time.Second
}
