// Package upstream is a rate-limited client for the external book search
// endpoint (GraphQL) and the genre taxonomy endpoint.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/listenupapp/bookfinder/internal/domain"
	"github.com/listenupapp/bookfinder/internal/ratelimit"
)

const (
	defaultRPS     = 5.0
	defaultBurst   = 10
	defaultTimeout = 10 * time.Second

	// Responses larger than this are rejected.
	maxBodyBytes = 8 << 20

	userAgent = "bookfinder/1.0"
)

// Options configures a Client.
type Options struct {
	SearchURL   string
	TaxonomyURL string
	Timeout     time.Duration
	RPS         float64
	Burst       int
}

// Client is a rate-limited client for the search and taxonomy endpoints.
type Client struct {
	http        *http.Client
	limiter     *ratelimit.KeyedRateLimiter
	logger      *slog.Logger
	searchURL   string
	taxonomyURL string
}

// New creates a new upstream client.
func New(opts Options, logger *slog.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.RPS <= 0 {
		opts.RPS = defaultRPS
	}
	if opts.Burst <= 0 {
		opts.Burst = defaultBurst
	}

	return &Client{
		http: &http.Client{
			Timeout: opts.Timeout,
		},
		limiter:     ratelimit.New(opts.RPS, opts.Burst),
		logger:      logger,
		searchURL:   opts.SearchURL,
		taxonomyURL: opts.TaxonomyURL,
	}
}

// Shutdown releases resources held by the client.
func (c *Client) Shutdown() error {
	c.limiter.Stop()
	return nil
}

// FetchTaxonomy returns the raw genre taxonomy payload.
func (c *Client) FetchTaxonomy(ctx context.Context) ([]byte, error) {
	requestID := uuid.NewString()

	body, err := c.doRequest(ctx, http.MethodGet, c.taxonomyURL, nil, requestID)
	if err != nil {
		return nil, wrapError("fetchTaxonomy", requestID, err)
	}
	return body, nil
}

// SearchBooks runs the books query for q.
func (c *Client) SearchBooks(ctx context.Context, q domain.SearchQuery) (*domain.SearchResult, error) {
	requestID := uuid.NewString()

	payload, err := json.Marshal(newBooksRequest(q))
	if err != nil {
		return nil, wrapError("searchBooks", requestID, fmt.Errorf("encode request: %w", err))
	}

	body, err := c.doRequest(ctx, http.MethodPost, c.searchURL, payload, requestID)
	if err != nil {
		return nil, wrapError("searchBooks", requestID, err)
	}

	var resp booksResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, wrapError("searchBooks", requestID, fmt.Errorf("parse response: %w", err))
	}
	if len(resp.Errors) > 0 {
		return nil, wrapError("searchBooks", requestID, fmt.Errorf("%w: %s", ErrQuery, joinMessages(resp.Errors)))
	}
	if resp.Data.Books == nil {
		return nil, wrapError("searchBooks", requestID, fmt.Errorf("%w: response has no books", ErrQuery))
	}

	return resp.Data.Books.toDomain(), nil
}

// doRequest executes an HTTP request with rate limiting.
func (c *Client) doRequest(ctx context.Context, method, rawURL string, payload []byte, requestID string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid endpoint url %q", ErrBadRequest, rawURL)
	}

	// One bucket per endpoint host.
	if err := c.limiter.Wait(ctx, u.Host); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("upstream request",
		"method", method,
		"host", u.Host,
		"path", u.Path,
		"request_id", requestID,
	)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return body, nil
	case http.StatusNotFound:
		return nil, ErrNotFound
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case http.StatusBadRequest:
		return nil, ErrBadRequest
	default:
		if resp.StatusCode >= 500 {
			return nil, ErrServer
		}
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
}
