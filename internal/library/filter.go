package library

// MovieFilter specifies criteria for listing movies.
type MovieFilter struct {
	Title      *string // case-insensitive substring
	Year       *int
	PathPrefix *string
	Limit      int // 0 = no limit
	Offset     int
}
