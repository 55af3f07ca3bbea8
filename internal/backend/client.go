package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"talento/internal/metrics"
	"talento/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const maxErrorBody = 1 << 20

// TokenSource yields the bearer token for the request context.
// It is consulted on every call so a logout is seen by the next request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource with a fixed token.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	if t == "" {
		return "", ErrUnauthenticated
	}
	return string(t), nil
}

// Client calls the Talento REST API. Every call is fire-once: no retry, no backoff.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	logger     zerolog.Logger

	redis    *redis.Client
	cacheTTL time.Duration

	loc *time.Location
}

func NewClient(baseURL string, timeout time.Duration, tokens TokenSource, logger *zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
		logger:     logger.With().Str("component", "backend").Logger(),
		loc:        models.LoadLocation(""),
	}
}

// UseLocation sets the zone used for calendar dates sent to and read from the API.
func (c *Client) UseLocation(loc *time.Location) {
	if loc != nil {
		c.loc = loc
	}
}

func (c *Client) location() *time.Location {
	return c.loc
}

// UseRedisCache configures optional Redis caching for the summary report.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

// Do issues an authenticated request. body and out may be nil.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	return c.call(ctx, path, method, path, body, out, true)
}

func (c *Client) call(ctx context.Context, endpoint, method, path string, body, out any, auth bool) error {
	var token string
	if auth {
		t, err := c.tokens.Token(ctx)
		if err != nil || t == "" {
			return ErrUnauthenticated
		}
		token = t
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", endpoint, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveBackend(endpoint, "transport_error", time.Since(start))
		c.logger.Warn().Err(err).Str("method", method).Str("path", path).Msg("Backend request failed")
		return &TransportError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.ObserveBackend(endpoint, "http_error", time.Since(start))
		httpErr := &HTTPError{Status: resp.StatusCode, Message: errorMessage(resp.Body)}
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("method", method).
			Str("path", path).
			Str("message", httpErr.Message).
			Msg("Backend returned error status")
		return httpErr
	}
	metrics.ObserveBackend(endpoint, "ok", time.Since(start))

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

// errorMessage prefers the backend "error" field, then "message".
func errorMessage(r io.Reader) string {
	var payload struct {
		Error   any    `json:"error"`
		Message string `json:"message"`
	}
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(data) == 0 {
		return ""
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return ""
	}
	if s, ok := payload.Error.(string); ok && s != "" {
		return s
	}
	return payload.Message
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, c.cacheTTL).Err(); err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("Report cache write failed")
	}
}
