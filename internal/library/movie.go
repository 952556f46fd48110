package library

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

const movieColumns = `id, title, year, file_path, size_bytes, mod_time, fingerprint, container,
	duration_seconds, video_codec, audio_codec, width, height, created_at, updated_at`

// mapSQLiteError converts SQLite errors to custom error types.
func mapSQLiteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	// modernc.org/sqlite wraps errors; check error message for constraint violations
	errStr := err.Error()
	if strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "PRIMARY KEY constraint failed") {
		return ErrDuplicate
	}
	if strings.Contains(errStr, "NOT NULL constraint failed") ||
		strings.Contains(errStr, "CHECK constraint failed") {
		return ErrConstraint
	}
	return err
}

func createMovie(q querier, m *Movie) (bool, error) {
	now := time.Now()
	result, err := q.Exec(`
		INSERT INTO movies (title, year, file_path, size_bytes, mod_time, fingerprint, container,
			duration_seconds, video_codec, audio_codec, width, height, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(file_path) DO NOTHING`,
		m.Title, m.Year, m.FilePath, m.SizeBytes, m.ModTime, m.Fingerprint, m.Container,
		m.DurationSeconds, m.VideoCodec, m.AudioCodec, m.Width, m.Height, now, now,
	)
	if err != nil {
		return false, fmt.Errorf("insert movie: %w", mapSQLiteError(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		existing, err := getMovieByPath(q, m.FilePath)
		if err != nil {
			return false, err
		}
		if existing == nil {
			return false, fmt.Errorf("insert movie %q: %w", m.FilePath, ErrNotFound)
		}
		*m = *existing
		return false, nil
	}
	id, err := result.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("get last insert id: %w", err)
	}
	m.ID = id
	m.CreatedAt = now
	m.UpdatedAt = now
	return true, nil
}

// CreateMovie inserts a movie unless one with the same file path exists.
// When the path is already indexed, m is replaced by the stored record and
// created is false. Sets ID, CreatedAt and UpdatedAt on the struct.
func (s *Store) CreateMovie(m *Movie) (created bool, err error) { return createMovie(s.db, m) }

// CreateMovie inserts a movie within a transaction.
func (t *Tx) CreateMovie(m *Movie) (bool, error) { return createMovie(t.tx, m) }

func getMovie(q querier, id int64) (*Movie, error) {
	m := &Movie{}
	if err := sqlx.Get(q, m, "SELECT "+movieColumns+" FROM movies WHERE id = ?", id); err != nil {
		return nil, fmt.Errorf("get movie %d: %w", id, mapSQLiteError(err))
	}
	return m, nil
}

// GetMovie retrieves a movie by ID.
// Returns ErrNotFound if the movie does not exist.
func (s *Store) GetMovie(id int64) (*Movie, error) { return getMovie(s.db, id) }

// GetMovie retrieves a movie by ID within a transaction.
func (t *Tx) GetMovie(id int64) (*Movie, error) { return getMovie(t.tx, id) }

func getMovieBy(q querier, column, value string) (*Movie, error) {
	m := &Movie{}
	err := sqlx.Get(q, m, "SELECT "+movieColumns+" FROM movies WHERE "+column+" = ? ORDER BY id LIMIT 1", value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get movie by %s: %w", column, mapSQLiteError(err))
	}
	return m, nil
}

func getMovieByPath(q querier, path string) (*Movie, error) {
	return getMovieBy(q, "file_path", path)
}

// GetMovieByPath finds a movie by its file path.
// Returns nil, nil if not found.
func (s *Store) GetMovieByPath(path string) (*Movie, error) { return getMovieByPath(s.db, path) }

// GetMovieByPath finds a movie by its file path within a transaction.
func (t *Tx) GetMovieByPath(path string) (*Movie, error) { return getMovieByPath(t.tx, path) }

// GetMovieByFingerprint finds the oldest movie with the given content fingerprint.
// Returns nil, nil if not found or if fp is empty.
func (s *Store) GetMovieByFingerprint(fp string) (*Movie, error) {
	if fp == "" {
		return nil, nil
	}
	return getMovieBy(s.db, "fingerprint", fp)
}

// PageMovies returns page number page (zero based) of count movies ordered by
// ID, along with the total number of movies. A page whose offset overflows
// int is ErrInvalidPage.
func (s *Store) PageMovies(page, count int) ([]*Movie, int, error) {
	if page < 0 || count <= 0 || page > math.MaxInt/count {
		return nil, 0, fmt.Errorf("page %d of %d: %w", page, count, ErrInvalidPage)
	}
	return listMovies(s.db, MovieFilter{Limit: count, Offset: page * count})
}

// escapeLike escapes LIKE wildcards so the value matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func listMovies(q querier, f MovieFilter) ([]*Movie, int, error) {
	var conditions []string
	var args []any

	if f.Title != nil {
		conditions = append(conditions, `title LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(*f.Title)+"%")
	}
	if f.Year != nil {
		conditions = append(conditions, "year = ?")
		args = append(args, *f.Year)
	}
	if f.PathPrefix != nil {
		conditions = append(conditions, `file_path LIKE ? ESCAPE '\'`)
		args = append(args, escapeLike(*f.PathPrefix)+"%")
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := sqlx.Get(q, &total, "SELECT COUNT(*) FROM movies "+whereClause, args...); err != nil {
		return nil, 0, fmt.Errorf("count movies: %w", err)
	}

	query := "SELECT " + movieColumns + " FROM movies " + whereClause + " ORDER BY id"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)
	}

	var results []*Movie
	if err := sqlx.Select(q, &results, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list movies: %w", err)
	}
	return results, total, nil
}

// ListMovies returns movies matching the filter with pagination.
// Returns (results, totalCount, error).
func (s *Store) ListMovies(f MovieFilter) ([]*Movie, int, error) { return listMovies(s.db, f) }

// ListMovies returns movies matching the filter within a transaction.
func (t *Tx) ListMovies(f MovieFilter) ([]*Movie, int, error) { return listMovies(t.tx, f) }

// Count returns the number of indexed movies.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.Get(&n, "SELECT COUNT(*) FROM movies"); err != nil {
		return 0, fmt.Errorf("count movies: %w", err)
	}
	return n, nil
}

func updateMovie(q querier, m *Movie) error {
	now := time.Now()
	result, err := q.Exec(`
		UPDATE movies SET title = ?, year = ?, file_path = ?, size_bytes = ?, mod_time = ?, fingerprint = ?,
			container = ?, duration_seconds = ?, video_codec = ?, audio_codec = ?, width = ?, height = ?,
			updated_at = ?
		WHERE id = ?`,
		m.Title, m.Year, m.FilePath, m.SizeBytes, m.ModTime, m.Fingerprint,
		m.Container, m.DurationSeconds, m.VideoCodec, m.AudioCodec, m.Width, m.Height,
		now, m.ID,
	)
	if err != nil {
		return fmt.Errorf("update movie %d: %w", m.ID, mapSQLiteError(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update movie %d: %w", m.ID, ErrNotFound)
	}
	m.UpdatedAt = now
	return nil
}

// UpdateMovie updates an existing movie.
// Sets UpdatedAt on the struct.
// Returns ErrNotFound if the movie does not exist.
func (s *Store) UpdateMovie(m *Movie) error { return updateMovie(s.db, m) }

// UpdateMovie updates an existing movie within a transaction.
func (t *Tx) UpdateMovie(m *Movie) error { return updateMovie(t.tx, m) }

func deleteMovie(q querier, id int64) error {
	_, err := q.Exec("DELETE FROM movies WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete movie %d: %w", id, mapSQLiteError(err))
	}
	return nil
}

// DeleteMovie removes a movie by ID.
// This operation is idempotent - no error is returned if the movie does not exist.
func (s *Store) DeleteMovie(id int64) error { return deleteMovie(s.db, id) }

// DeleteMovie removes a movie by ID within a transaction.
func (t *Tx) DeleteMovie(id int64) error { return deleteMovie(t.tx, id) }
