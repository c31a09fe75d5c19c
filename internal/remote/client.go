// Package remote implements the HTTP client for the board backend.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// defaultTimeout bounds each backend request.
const defaultTimeout = 30 * time.Second

// BoardRecord represents board record data used by this package.
type BoardRecord struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// ListRecord represents list record data used by this package.
type ListRecord struct {
	ID       string `json:"id"`
	BoardID  string `json:"board_id"`
	Title    string `json:"title"`
	Position int    `json:"position"`
}

// CardRecord represents card record data used by this package.
type CardRecord struct {
	ID          string     `json:"id"`
	BoardID     string     `json:"board_id"`
	ListID      string     `json:"list_id"`
	Position    int        `json:"position"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Labels      []string   `json:"labels,omitempty"`
	DueAt       *time.Time `json:"due_at,omitempty"`
}

// BoardSnapshot bundles one board with its lists and cards.
type BoardSnapshot struct {
	Board BoardRecord  `json:"board"`
	Lists []ListRecord `json:"lists"`
	Cards []CardRecord `json:"cards"`
}

// envelope is the backend response wrapper.
type envelope struct {
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

// Client handles HTTP communication with the board backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// Option defines a functional option for client configuration.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithToken sets the bearer token sent on every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient constructs a new value for this package.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Health probes backend reachability.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/health", nil, nil)
}

// ListBoards lists boards.
func (c *Client) ListBoards(ctx context.Context) ([]BoardRecord, error) {
	var out []BoardRecord
	if err := c.do(ctx, http.MethodGet, "/api/boards", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetBoard fetches one board with its lists and cards.
func (c *Client) GetBoard(ctx context.Context, boardID string) (BoardSnapshot, error) {
	boardID = strings.TrimSpace(boardID)
	if boardID == "" {
		return BoardSnapshot{}, fmt.Errorf("board id is required")
	}
	var out BoardSnapshot
	if err := c.do(ctx, http.MethodGet, "/api/boards/"+boardID, nil, &out); err != nil {
		return BoardSnapshot{}, err
	}
	return out, nil
}

// CreateCard creates card.
func (c *Client) CreateCard(ctx context.Context, in CardRecord) (CardRecord, error) {
	var out CardRecord
	if err := c.do(ctx, http.MethodPost, "/api/cards", in, &out); err != nil {
		return CardRecord{}, err
	}
	return out, nil
}

// UpdateCard updates state for the requested operation.
func (c *Client) UpdateCard(ctx context.Context, in CardRecord) (CardRecord, error) {
	if strings.TrimSpace(in.ID) == "" {
		return CardRecord{}, fmt.Errorf("card id is required")
	}
	var out CardRecord
	if err := c.do(ctx, http.MethodPatch, "/api/cards/"+in.ID, in, &out); err != nil {
		return CardRecord{}, err
	}
	return out, nil
}

// moveCardRequest carries the move payload.
type moveCardRequest struct {
	ListID   string `json:"list_id"`
	Position int    `json:"position"`
}

// MoveCard moves card.
func (c *Client) MoveCard(ctx context.Context, cardID, listID string, position int) (CardRecord, error) {
	cardID = strings.TrimSpace(cardID)
	if cardID == "" {
		return CardRecord{}, fmt.Errorf("card id is required")
	}
	var out CardRecord
	in := moveCardRequest{ListID: listID, Position: position}
	if err := c.do(ctx, http.MethodPatch, "/api/cards/"+cardID+"/move", in, &out); err != nil {
		return CardRecord{}, err
	}
	return out, nil
}

// DeleteCard deletes card.
func (c *Client) DeleteCard(ctx context.Context, cardID string) error {
	cardID = strings.TrimSpace(cardID)
	if cardID == "" {
		return fmt.Errorf("card id is required")
	}
	return c.do(ctx, http.MethodDelete, "/api/cards/"+cardID, nil, nil)
}

// do performs one backend request with shared encode/decode handling.
func (c *Client) do(ctx context.Context, method, path string, body, target any) error {
	var bodyReader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// A failed round trip is the only condition classified as
		// connectivity loss; everything after this point is an
		// application error.
		return &TransportError{Op: method + " " + path, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}
	if target == nil {
		return nil
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, target); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

// readErrorMessage extracts the error body from a failed response.
func readErrorMessage(body io.Reader) string {
	content, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return ""
	}
	var env envelope
	if json.Unmarshal(content, &env) == nil && env.Error != "" {
		return env.Error
	}
	return strings.TrimSpace(string(content))
}
