package library

import "errors"

// Sentinel errors returned by Store and Tx, usually wrapped with the
// offending id or path. Match them with errors.Is.
var (
	ErrNotFound    = errors.New("movie not found")
	ErrDuplicate   = errors.New("movie path already indexed")
	ErrConstraint  = errors.New("movie violates a schema constraint")
	ErrInvalidPage = errors.New("invalid page")
)
