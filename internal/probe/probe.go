// Package probe inspects video files with ffprobe.
package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// ErrUnavailable is returned when the ffprobe binary cannot be found.
var ErrUnavailable = errors.New("ffprobe not available")

// Info holds the details of a video file the library keeps.
type Info struct {
	Container  string
	Duration   time.Duration
	VideoCodec string
	Width      int
	Height     int
	AudioCodec string
}

type stream struct {
	Index     int    `json:"index"`
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

type format struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
}

type result struct {
	Streams []stream `json:"streams"`
	Format  format   `json:"format"`
}

// FFprobe runs an ffprobe binary.
type FFprobe struct {
	bin string
}

// New returns a prober using the given binary name or path.
// An empty name means "ffprobe" from PATH.
func New(bin string) *FFprobe {
	if bin == "" {
		bin = "ffprobe"
	}
	return &FFprobe{bin: bin}
}

// Available reports whether the binary can be executed.
func (p *FFprobe) Available() error {
	if _, err := exec.LookPath(p.bin); err != nil {
		return fmt.Errorf("%w: %s", ErrUnavailable, p.bin)
	}
	return nil
}

// Probe runs ffprobe on path and parses its output.
func (p *FFprobe) Probe(ctx context.Context, path string) (*Info, error) {
	cmd := exec.CommandContext(ctx, p.bin,
		"-v", "quiet", "-print_format", "json", "-show_format", "-show_streams", path)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	raw, err := cmd.Output()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUnavailable, p.bin)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("probe %s: %w: %s", path, err, strings.TrimSpace(stderr.String()))
	}
	info, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", path, err)
	}
	return info, nil
}

// Parse decodes ffprobe JSON output. The first video and first audio stream
// with a codec are used.
func Parse(raw []byte) (*Info, error) {
	var r result
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("decode ffprobe output: %w", err)
	}

	info := &Info{Container: r.Format.FormatName}
	if r.Format.Duration != "" {
		secs, err := strconv.ParseFloat(r.Format.Duration, 64)
		if err != nil {
			return nil, fmt.Errorf("parse duration %q: %w", r.Format.Duration, err)
		}
		info.Duration = time.Duration(secs * float64(time.Second)).Round(time.Second)
	}

	for _, s := range r.Streams {
		switch s.CodecType {
		case "video":
			if info.VideoCodec == "" && s.CodecName != "" {
				info.VideoCodec = s.CodecName
				info.Width = s.Width
				info.Height = s.Height
			}
		case "audio":
			// some files carry audio tracks without a codec
			if info.AudioCodec == "" && s.CodecName != "" {
				info.AudioCodec = s.CodecName
			}
		}
	}
	return info, nil
}
