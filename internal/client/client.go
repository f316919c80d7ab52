package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mcoot/scopa-go/internal/model"
)

// DefaultTimeout bounds every request
const DefaultTimeout = 10 * time.Second

// Client is an HTTP client for the Scopa server
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithTimeout overrides the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithTransport sets the round tripper, e.g. a logging middleware chain
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.httpClient.Transport = rt
	}
}

// New creates a new server client
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the server root the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CreateGame opens a new game with the player in the first seat
func (c *Client) CreateGame(ctx context.Context, player model.PlayerIdentity) (int, error) {
	var result GameResponse
	if err := c.Post(ctx, "/create_game", PlayerRequest{PlayerID: string(player)}, &result); err != nil {
		return 0, err
	}
	return result.GameID, nil
}

// JoinGame takes the second seat of an existing game
func (c *Client) JoinGame(ctx context.Context, gameID int, player model.PlayerIdentity) (int, error) {
	var result GameResponse
	path := fmt.Sprintf("/join_game/%d", gameID)
	if err := c.Post(ctx, path, PlayerRequest{PlayerID: string(player)}, &result); err != nil {
		return 0, err
	}
	return result.GameID, nil
}

// GetState fetches the player's view of the game
func (c *Client) GetState(ctx context.Context, gameID int, player model.PlayerIdentity) (*StateResponse, error) {
	var result StateResponse
	path := fmt.Sprintf("/state/%d/%s", gameID, url.PathEscape(string(player)))
	if err := c.Get(ctx, path, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Play plays the card at handIndex of the player's hand
func (c *Client) Play(ctx context.Context, gameID int, player model.PlayerIdentity, handIndex int) error {
	path := fmt.Sprintf("/play/%d/%s/%d", gameID, url.PathEscape(string(player)), handIndex)
	return c.Post(ctx, path, nil, nil)
}

// Health reports server status
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var result HealthResponse
	if err := c.Get(ctx, "/health", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Do performs an HTTP request
func (c *Client) Do(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	// The play endpoint takes no body but the server expects JSON either way
	if body != nil || method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %w", ErrUnavailable, err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var detail detailBody
		if err := json.Unmarshal(respBody, &detail); err == nil {
			apiErr.Detail = detail.reason()
		}
		return apiErr
	}

	if result != nil && len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("%w: failed to parse response: %w", ErrUnavailable, err)
		}
	}

	return nil
}

// Get performs a GET request
func (c *Client) Get(ctx context.Context, path string, result any) error {
	return c.Do(ctx, http.MethodGet, path, nil, result)
}

// Post performs a POST request
func (c *Client) Post(ctx context.Context, path string, body, result any) error {
	return c.Do(ctx, http.MethodPost, path, body, result)
}
