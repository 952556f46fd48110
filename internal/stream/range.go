// Package stream serves video files with single byte-range support.
package stream

import (
	"errors"
	"strconv"
	"strings"
)

var (
	// ErrNoRange is returned by ParseRange for an empty header.
	ErrNoRange = errors.New("no range")
	// ErrInvalidRange is returned for a Range header that cannot be parsed.
	ErrInvalidRange = errors.New("invalid range")
)

// Kind is the form of a byte range.
type Kind int

const (
	FromTo  Kind = iota // bytes=a-b
	AllFrom             // bytes=a-
	Last                // bytes=-n
)

// Spec is one requested byte range. For Last only N is used.
type Spec struct {
	Kind  Kind
	Start int64
	End   int64
	N     int64
}

// ParseRange parses a Range header. Only the bytes unit is understood and
// only the first range of a list is kept.
func ParseRange(header string) (Spec, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return Spec{}, ErrNoRange
	}
	unit, set, ok := strings.Cut(header, "=")
	if !ok || !strings.EqualFold(strings.TrimSpace(unit), "bytes") {
		return Spec{}, ErrInvalidRange
	}
	first, _, _ := strings.Cut(set, ",")
	first = strings.TrimSpace(first)

	from, to, ok := strings.Cut(first, "-")
	if !ok {
		return Spec{}, ErrInvalidRange
	}
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)

	if from == "" {
		n, err := parseOffset(to)
		if err != nil {
			return Spec{}, err
		}
		return Spec{Kind: Last, N: n}, nil
	}
	start, err := parseOffset(from)
	if err != nil {
		return Spec{}, err
	}
	if to == "" {
		return Spec{Kind: AllFrom, Start: start}, nil
	}
	end, err := parseOffset(to)
	if err != nil {
		return Spec{}, err
	}
	return Spec{Kind: FromTo, Start: start, End: end}, nil
}

func parseOffset(s string) (int64, error) {
	if s == "" || strings.TrimLeft(s, "0123456789") != "" {
		return 0, ErrInvalidRange
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, ErrInvalidRange
	}
	return n, nil
}

// Resolve maps the range onto a file of the given size. It returns the
// inclusive first and last byte offsets, or ok=false when the range cannot
// be satisfied.
func (s Spec) Resolve(size int64) (start, end int64, ok bool) {
	if size <= 0 {
		return 0, 0, false
	}
	switch s.Kind {
	case FromTo:
		if s.Start > s.End || s.Start >= size {
			return 0, 0, false
		}
		return s.Start, min(s.End, size-1), true
	case AllFrom:
		if s.Start >= size {
			return 0, 0, false
		}
		return s.Start, size - 1, true
	case Last:
		if s.N == 0 {
			return 0, 0, false
		}
		if s.N >= size {
			return 0, size - 1, true
		}
		return size - s.N, size - 1, true
	}
	return 0, 0, false
}
