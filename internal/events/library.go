package events

const (
	EntityMovie = "movie"
	EntityScan  = "scan"
)

const (
	EventMovieAdded    = "movie.added"
	EventMovieUpdated  = "movie.updated"
	EventMovieMoved    = "movie.moved"
	EventMovieRemoved  = "movie.removed"
	EventScanStarted   = "scan.started"
	EventScanCompleted = "scan.completed"
	EventScanFailed    = "scan.failed"
)

// MovieAdded is emitted when a file is indexed for the first time.
type MovieAdded struct {
	BaseEvent
	MovieID int64  `json:"movie_id"`
	Title   string `json:"title"`
	Year    int    `json:"year,omitempty"`
	Path    string `json:"path"`
}

// MovieUpdated is emitted when an indexed file changed size or mod time.
type MovieUpdated struct {
	BaseEvent
	MovieID   int64  `json:"movie_id"`
	Path      string `json:"path"`
	SizeBytes int64  `json:"size_bytes"`
}

// MovieMoved is emitted when a file reappears under a new path with the
// same fingerprint. The movie keeps its ID.
type MovieMoved struct {
	BaseEvent
	MovieID int64  `json:"movie_id"`
	OldPath string `json:"old_path"`
	NewPath string `json:"new_path"`
}

// MovieRemoved is emitted when an indexed file is gone.
type MovieRemoved struct {
	BaseEvent
	MovieID int64  `json:"movie_id"`
	Title   string `json:"title"`
	Path    string `json:"path"`
}

// ScanStarted is emitted at the beginning of an index run.
type ScanStarted struct {
	BaseEvent
	Roots []string `json:"roots"`
}

// ScanCompleted summarizes a finished index run. EntityID is the run number.
type ScanCompleted struct {
	BaseEvent
	Found      int   `json:"found"`
	Added      int   `json:"added"`
	Updated    int   `json:"updated"`
	Moved      int   `json:"moved"`
	Removed    int   `json:"removed"`
	Failed     int   `json:"failed"`
	DurationMS int64 `json:"duration_ms"`
}

// ScanFailed is emitted when an index run aborts.
type ScanFailed struct {
	BaseEvent
	Error string `json:"error"`
}
