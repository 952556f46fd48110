// Package release derives a movie title, year and encoding hints from the
// name of a video file.
package release

// Resolution represents the video resolution advertised by a file name.
type Resolution int

const (
	ResolutionUnknown Resolution = iota
	Resolution480p
	Resolution720p
	Resolution1080p
	Resolution2160p
)

// unknownStr is the string representation for unknown values.
const unknownStr = "unknown"

func (r Resolution) String() string {
	switch r {
	case Resolution480p:
		return "480p"
	case Resolution720p:
		return "720p"
	case Resolution1080p:
		return "1080p"
	case Resolution2160p:
		return "2160p"
	default:
		return unknownStr
	}
}

// Source represents where the video was ripped from.
type Source int

const (
	SourceUnknown Source = iota
	SourceBluRay
	SourceWEBDL
	SourceWEBRip
	SourceHDTV
	SourceDVD
)

func (s Source) String() string {
	switch s {
	case SourceBluRay:
		return "bluray"
	case SourceWEBDL:
		return "webdl"
	case SourceWEBRip:
		return "webrip"
	case SourceHDTV:
		return "hdtv"
	case SourceDVD:
		return "dvd"
	default:
		return unknownStr
	}
}

// Codec represents the video codec advertised by a file name.
type Codec int

const (
	CodecUnknown Codec = iota
	CodecX264
	CodecX265
	CodecXviD
)

func (c Codec) String() string {
	switch c {
	case CodecX264:
		return "x264"
	case CodecX265:
		return "x265"
	case CodecXviD:
		return "xvid"
	default:
		return unknownStr
	}
}

// Info is what could be recovered from a file name.
type Info struct {
	Title      string
	Year       int // 0 when absent
	Resolution Resolution
	Source     Source
	Codec      Codec
	Extended   bool

	// CleanTitle is Title normalized for matching.
	CleanTitle string
}
