package api

import (
	"errors"
	"io/fs"
	"net/http"
	"strings"

	"github.com/carolus/carolus/internal/library"
	"github.com/carolus/carolus/internal/stream"
	"github.com/carolus/carolus/pkg/release"
)

func (s *Server) listMovies(w http.ResponseWriter, r *http.Request) {
	page, okPage := queryInt(r, "page", 0)
	count, okCount := queryInt(r, "count", defaultPageCount)
	if !okPage || !okCount || page < 0 || count <= 0 {
		writeError(w, http.StatusBadRequest, "INVALID_PAGINATION", "page must be >= 0 and count > 0")
		return
	}
	count = min(count, maxPageCount)

	movies, total, err := s.deps.Library.PageMovies(page, count)
	if errors.Is(err, library.ErrInvalidPage) {
		writeError(w, http.StatusBadRequest, "INVALID_PAGINATION", err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}

	resp := listMoviesResponse{
		Items: make([]movieResponse, len(movies)),
		Page:  page,
		Count: count,
		Total: total,
	}
	for i, m := range movies {
		resp.Items[i] = movieToResponse(m)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) searchMovies(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "MISSING_QUERY", "query parameter q is required")
		return
	}
	limit, ok := queryInt(r, "limit", defaultPageCount)
	if !ok || limit <= 0 {
		writeError(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be > 0")
		return
	}
	limit = min(limit, maxPageCount)

	movies, _, err := s.deps.Library.ListMovies(library.MovieFilter{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	titles := make([]string, len(movies))
	for i, m := range movies {
		titles[i] = m.Title
	}

	resp := searchResponse{Query: q, Items: []searchResult{}}
	for _, match := range release.Rank(q, titles, limit) {
		resp.Items = append(resp.Items, searchResult{
			movieResponse: movieToResponse(movies[match.Index]),
			Score:         match.Score,
			Confidence:    match.Confidence.String(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// lookupMovie resolves the {id} path value, writing the error response when
// it fails.
func (s *Server) lookupMovie(w http.ResponseWriter, r *http.Request) (*library.Movie, bool) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return nil, false
	}

	m, err := s.deps.Library.GetMovie(id)
	if err != nil {
		if errors.Is(err, library.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Movie not found")
			return nil, false
		}
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return nil, false
	}
	return m, true
}

func (s *Server) getMovie(w http.ResponseWriter, r *http.Request) {
	m, ok := s.lookupMovie(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, movieToResponse(m))
}

func (s *Server) streamMovie(w http.ResponseWriter, r *http.Request) {
	m, ok := s.lookupMovie(w, r)
	if !ok {
		return
	}

	f, err := stream.Open(m.FilePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, stream.ErrNotFile) {
			writeError(w, http.StatusNotFound, "FILE_NOT_FOUND", "Movie file is missing")
			return
		}
		s.log.Error("open movie failed", "movie_id", m.ID, "path", m.FilePath, "error", err)
		writeError(w, http.StatusInternalServerError, "STREAM_ERROR", err.Error())
		return
	}
	defer func() { _ = f.Close() }()

	if err := f.Serve(w, r, m.Fingerprint); err != nil {
		// usually the player closed the connection mid-stream
		s.log.Debug("stream ended early", "movie_id", m.ID, "error", err)
	}
}
