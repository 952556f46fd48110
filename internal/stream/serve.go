package stream

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ErrNotFile is returned when the path names a directory.
var ErrNotFile = errors.New("not a regular file")

// types missing from many system mime tables
var videoTypes = map[string]string{
	".mkv":  "video/x-matroska",
	".m4v":  "video/x-m4v",
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".wmv":  "video/x-ms-wmv",
	".mpg":  "video/mpeg",
	".mpeg": "video/mpeg",
}

// ContentType returns the MIME type for a file name.
func ContentType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := videoTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}

// File is an open video file ready to be served.
type File struct {
	f       *os.File
	name    string
	size    int64
	modTime time.Time
}

// Open opens a regular file for serving.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if fi.IsDir() {
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", path, ErrNotFile)
	}
	return &File{f: f, name: path, size: fi.Size(), modTime: fi.ModTime()}, nil
}

// Size returns the file size in bytes.
func (f *File) Size() int64 { return f.size }

// Close closes the underlying file.
func (f *File) Close() error { return f.f.Close() }

// ServeFile opens path and serves it. Errors from opening are returned
// before anything is written to w.
func ServeFile(w http.ResponseWriter, r *http.Request, path, etag string) error {
	f, err := Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return f.Serve(w, r, etag)
}

// Serve writes the file to w honoring a single Range header. etag is
// optional; when set it is sent quoted and checked against If-None-Match
// and If-Range. Errors are from writing the body.
func (f *File) Serve(w http.ResponseWriter, r *http.Request, etag string) error {
	size := f.size

	h := w.Header()
	h.Set("Accept-Ranges", "bytes")
	h.Set("Content-Type", ContentType(f.name))
	h.Set("Last-Modified", f.modTime.UTC().Format(http.TimeFormat))
	quoted := ""
	if etag != "" {
		quoted = strconv.Quote(etag)
		h.Set("ETag", quoted)
		if inm := r.Header.Get("If-None-Match"); inm != "" && etagListMatches(inm, quoted) {
			w.WriteHeader(http.StatusNotModified)
			return nil
		}
	}

	rangeHeader := r.Header.Get("Range")
	if ir := r.Header.Get("If-Range"); ir != "" && (quoted == "" || strings.TrimSpace(ir) != quoted) {
		rangeHeader = ""
	}

	spec, err := ParseRange(rangeHeader)
	if errors.Is(err, ErrNoRange) {
		h.Set("Content-Length", strconv.FormatInt(size, 10))
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return nil
		}
		_, err = io.Copy(w, io.NewSectionReader(f.f, 0, size))
		return err
	}

	var start, end int64
	ok := false
	if err == nil {
		start, end, ok = spec.Resolve(size)
	}
	if !ok {
		h.Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
		return nil
	}

	length := end - start + 1
	h.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, size))
	h.Set("Content-Length", strconv.FormatInt(length, 10))
	w.WriteHeader(http.StatusPartialContent)
	if r.Method == http.MethodHead {
		return nil
	}
	_, err = io.Copy(w, io.NewSectionReader(f.f, start, length))
	return err
}

func etagListMatches(header, quoted string) bool {
	for _, tag := range strings.Split(header, ",") {
		tag = strings.TrimSpace(tag)
		if tag == "*" || strings.TrimPrefix(tag, "W/") == quoted {
			return true
		}
	}
	return false
}
