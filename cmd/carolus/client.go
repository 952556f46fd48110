package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client wraps HTTP calls to the carolus server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new carolus API client.
func NewClient(serverURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(serverURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("server error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("server error %d: %s", e.StatusCode, e.Message)
}

func (c *Client) do(method, path string, want int, result any) error {
	req, err := http.NewRequest(method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("request creation failed: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != want {
		return readAPIError(resp)
	}
	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func readAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}

	var e struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		apiErr.Code = e.Code
		apiErr.Message = e.Error
	}
	return apiErr
}

func (c *Client) get(path string, result any) error {
	return c.do(http.MethodGet, path, http.StatusOK, result)
}

// API response types (mirror server types)

type MovieResponse struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Year            int       `json:"year,omitempty"`
	FilePath        string    `json:"file_path"`
	SizeBytes       int64     `json:"size_bytes"`
	ModTime         time.Time `json:"mod_time"`
	Container       string    `json:"container,omitempty"`
	DurationSeconds int64     `json:"duration_seconds,omitempty"`
	VideoCodec      string    `json:"video_codec,omitempty"`
	AudioCodec      string    `json:"audio_codec,omitempty"`
	Width           int       `json:"width,omitempty"`
	Height          int       `json:"height,omitempty"`
	Release         *Release  `json:"release,omitempty"`
	VideoURL        string    `json:"video_url"`
	AddedAt         time.Time `json:"added_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type Release struct {
	Resolution string `json:"resolution,omitempty"`
	Source     string `json:"source,omitempty"`
	Codec      string `json:"codec,omitempty"`
	Extended   bool   `json:"extended,omitempty"`
}

type ListMoviesResponse struct {
	Items []MovieResponse `json:"items"`
	Page  int             `json:"page"`
	Count int             `json:"count"`
	Total int             `json:"total"`
}

type SearchResult struct {
	MovieResponse
	Score      float64 `json:"score"`
	Confidence string  `json:"confidence"`
}

type SearchResponse struct {
	Query string         `json:"query"`
	Items []SearchResult `json:"items"`
}

type ScanResponse struct {
	Status string `json:"status"`
}

type EventResponse struct {
	ID         int64           `json:"id"`
	Type       string          `json:"type"`
	EntityType string          `json:"entity_type"`
	EntityID   int64           `json:"entity_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

type ListEventsResponse struct {
	Items []EventResponse `json:"items"`
	Limit int             `json:"limit"`
}

type MovieHistoryResponse struct {
	MovieID int64           `json:"movie_id"`
	Items   []EventResponse `json:"items"`
}

type ScanResult struct {
	Run       int64         `json:"run"`
	StartedAt time.Time     `json:"started_at"`
	Found     int           `json:"found"`
	Added     int           `json:"added"`
	Updated   int           `json:"updated"`
	Moved     int           `json:"moved"`
	Removed   int           `json:"removed"`
	Unchanged int           `json:"unchanged"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration"`
}

type StatusResponse struct {
	Status      string      `json:"status"`
	Version     string      `json:"version"`
	Movies      int         `json:"movies"`
	Roots       []string    `json:"roots"`
	Scanning    bool        `json:"scanning"`
	ScanPending bool        `json:"scan_pending"`
	LastScan    *ScanResult `json:"last_scan,omitempty"`
}

// Movies returns one page of the library.
func (c *Client) Movies(page, count int) (*ListMoviesResponse, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("count", strconv.Itoa(count))

	var resp ListMoviesResponse
	if err := c.get("/api/movies?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Movie returns a single movie.
func (c *Client) Movie(id int64) (*MovieResponse, error) {
	var resp MovieResponse
	if err := c.get(fmt.Sprintf("/api/movies/%d", id), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Search fuzzy matches titles in the library.
func (c *Client) Search(query string, limit int) (*SearchResponse, error) {
	q := url.Values{}
	q.Set("q", query)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var resp SearchResponse
	if err := c.get("/api/movies/search?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Scan queues a library scan.
func (c *Client) Scan() (*ScanResponse, error) {
	var resp ScanResponse
	if err := c.do(http.MethodPost, "/api/scan", http.StatusAccepted, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status returns server and library status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.get("/api/status", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Events returns the most recent audit events.
func (c *Client) Events(limit int) (*ListEventsResponse, error) {
	var resp ListEventsResponse
	if err := c.get(fmt.Sprintf("/api/events?limit=%d", limit), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// History returns every recorded event for one movie, oldest first.
func (c *Client) History(id int64) (*MovieHistoryResponse, error) {
	var resp MovieHistoryResponse
	if err := c.get(fmt.Sprintf("/api/movies/%d/history", id), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// VideoURL returns the absolute stream URL for a movie.
func (c *Client) VideoURL(m *MovieResponse) string {
	return c.baseURL + m.VideoURL
}
