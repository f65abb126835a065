// Package client is a Go consumer of the SwarupPlay API: typed calls, a
// loading/error/data resource holder, and a watch view that ties fetches to a
// player controller.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/swarupplay/backend/internal/models"
)

const (
	defaultTimeout        = 15 * time.Second
	defaultRateLimit      = 10
	defaultRateLimitBurst = 20
	maxErrorBody          = 64 << 10
)

// APIError is a non-2xx response. Message comes from the {"error": ...} body
// when the server sent one.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("swarupplay api: %d %s", e.Status, e.Message)
}

// IsStatus reports whether err is an *APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Options configures a Client.
type Options struct {
	Timeout        time.Duration
	UserAgent      string
	RateLimit      rate.Limit
	RateLimitBurst int
	HTTPClient     *http.Client
}

// Client calls the SwarupPlay API on behalf of one user. It is safe for
// concurrent use; the bearer token is shared by all calls.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	limiter   *rate.Limiter
	userAgent string

	mu    sync.RWMutex
	token string
}

// AuthResult is returned by Login and Register.
type AuthResult struct {
	User      models.Identity `json:"user"`
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

// NewClient constructs a Client for baseURL (e.g. http://localhost:7001).
func NewClient(baseURL string, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = rate.Limit(defaultRateLimit)
	}
	if opts.RateLimitBurst <= 0 {
		opts.RateLimitBurst = defaultRateLimitBurst
	}
	if strings.TrimSpace(opts.UserAgent) == "" {
		opts.UserAgent = "swarupplay-client"
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	return &Client{
		BaseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		HTTPClient: httpClient,
		limiter:    rate.NewLimiter(opts.RateLimit, opts.RateLimitBurst),
		userAgent:  opts.UserAgent,
	}
}

// SetToken replaces the bearer token used for authenticated calls.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Login exchanges credentials for a token and keeps it for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (AuthResult, error) {
	var res AuthResult
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, body, &res); err != nil {
		return AuthResult{}, err
	}
	c.SetToken(res.Token)
	return res, nil
}

// Register creates an account and keeps the returned token.
func (c *Client) Register(ctx context.Context, name, email, password string) (AuthResult, error) {
	var res AuthResult
	body := map[string]string{"name": name, "email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", nil, body, &res); err != nil {
		return AuthResult{}, err
	}
	c.SetToken(res.Token)
	return res, nil
}

// Me returns the identity carried by the current token.
func (c *Client) Me(ctx context.Context) (models.Identity, error) {
	var identity models.Identity
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, nil, &identity); err != nil {
		return models.Identity{}, err
	}
	return identity, nil
}

// VideoMetadata fetches the metadata and stream URL for a stored file.
func (c *Client) VideoMetadata(ctx context.Context, fileID string) (models.VideoMetadata, error) {
	if strings.TrimSpace(fileID) == "" {
		return models.VideoMetadata{}, errors.New("file id is required")
	}
	var meta models.VideoMetadata
	if err := c.do(ctx, http.MethodGet, "/api/video/"+url.PathEscape(fileID), nil, nil, &meta); err != nil {
		return models.VideoMetadata{}, err
	}
	return meta, nil
}

// RelatedVideos lists stored videos, newest first. A zero limit uses the
// server default.
func (c *Client) RelatedVideos(ctx context.Context, limit int) ([]models.RelatedVideo, error) {
	params := url.Values{"type": {"video"}}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var res struct {
		Files []models.RelatedVideo `json:"files"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/files", params, nil, &res); err != nil {
		return nil, err
	}
	return res.Files, nil
}

// Search queries YouTube through the server.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	params := url.Values{"q": {query}}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var res struct {
		Videos []models.SearchResult `json:"videos"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/search", params, nil, &res); err != nil {
		return nil, err
	}
	return res.Videos, nil
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	u.Path = strings.TrimRight(u.Path, "/") + path
	if params != nil {
		u.RawQuery = params.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
		apiErr.Message = payload.Error
	} else {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
