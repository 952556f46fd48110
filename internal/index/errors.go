package index

import "errors"

var (
	// ErrScanInProgress is returned by Run while another run is active.
	ErrScanInProgress = errors.New("scan already in progress")

	// ErrNoRoots indicates the indexer was built without library roots.
	ErrNoRoots = errors.New("no library roots configured")
)
