// Package bgg talks to the BoardGameGeek XMLAPI2 and parses its
// collection documents.
package bgg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Sentinel errors for the fetch outcomes callers act on.
var (
	// ErrUserNotFound means the BGG username does not exist. Terminal.
	ErrUserNotFound = errors.New("bgg: user not found")

	// ErrRateLimited means BGG throttled us. The caller should try again
	// later; the client does not retry within the same call.
	ErrRateLimited = errors.New("bgg: rate limited")

	// ErrUnavailable means the retry budget ran out before BGG produced a
	// collection (still queued, down, or timing out). Transient.
	ErrUnavailable = errors.New("bgg: service unavailable")
)

// ClientOptions configures a Client. Zero values get sensible defaults.
type ClientOptions struct {
	BaseURL        string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
	MaxAttempts    int
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	UserAgent      string
}

// Client fetches collection exports from the BGG XMLAPI2.
//
// BGG queues collection requests server-side: the first call usually gets
// a 202 "your request has been accepted" and the document only becomes
// available on a later call. The client polls with capped exponential
// backoff until the document is ready or the attempt budget runs out.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	requestTimeout time.Duration
	maxAttempts    int
	baseDelay      time.Duration
	maxDelay       time.Duration
	userAgent      string
}

// NewClient creates a BGG client.
func NewClient(opts ClientOptions) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://boardgamegeek.com/xmlapi2"
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	requestTimeout := opts.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 15 * time.Second
	}
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 8
	}
	baseDelay := opts.BaseDelay
	if baseDelay <= 0 {
		baseDelay = 2 * time.Second
	}
	maxDelay := opts.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 30 * time.Second
	}
	return &Client{
		baseURL:        baseURL,
		httpClient:     httpClient,
		requestTimeout: requestTimeout,
		maxAttempts:    maxAttempts,
		baseDelay:      baseDelay,
		maxDelay:       maxDelay,
		userAgent:      strings.TrimSpace(opts.UserAgent),
	}
}

// FetchCollection retrieves the raw collection document for a BGG username.
func (c *Client) FetchCollection(ctx context.Context, username string) ([]byte, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: empty username", ErrUserNotFound)
	}

	reqURL := c.baseURL + "/collection?username=" + url.QueryEscape(username) + "&stats=1"

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		body, retryAfter, err := c.fetchOnce(ctx, reqURL)
		if err == nil {
			return body, nil
		}
		if !errors.Is(err, errTransient) {
			return nil, err
		}
		if attempt == c.maxAttempts {
			break
		}
		if waitErr := sleepContext(ctx, c.retryDelay(attempt, retryAfter)); waitErr != nil {
			return nil, waitErr
		}
	}

	return nil, fmt.Errorf("%w: no collection after %d attempts, try again later", ErrUnavailable, c.maxAttempts)
}

// errTransient marks failures that count against the retry budget.
var errTransient = errors.New("transient")

// fetchOnce performs one attempt. A non-nil retryAfter carries the upstream
// Retry-After hint for interim responses.
func (c *Client) fetchOnce(ctx context.Context, reqURL string) (body []byte, retryAfter time.Duration, err error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// A parent cancellation is the caller giving up, not BGG flaking.
		if ctx.Err() != nil {
			return nil, 0, ctx.Err()
		}
		// Timeouts and transport errors count against the budget.
		return nil, 0, fmt.Errorf("%w: %v", errTransient, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusAccepted:
		// Export queued upstream; poll again after backoff.
		return nil, parseRetryAfterSeconds(resp.Header.Get("Retry-After")), errTransient
	case resp.StatusCode == http.StatusOK:
		data, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, 0, fmt.Errorf("%w: %v", errTransient, readErr)
		}
		if isInvalidUsernameDocument(data) {
			return nil, 0, ErrUserNotFound
		}
		return data, 0, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, 0, ErrUserNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, 0, ErrRateLimited
	case resp.StatusCode >= 500:
		return nil, 0, fmt.Errorf("%w: status %d", errTransient, resp.StatusCode)
	default:
		return nil, 0, fmt.Errorf("%w: unexpected status %d", ErrUnavailable, resp.StatusCode)
	}
}

// isInvalidUsernameDocument detects BGG's habit of answering 200 with an
// <errors> document for usernames that do not exist.
func isInvalidUsernameDocument(body []byte) bool {
	head := body
	if len(head) > 512 {
		head = head[:512]
	}
	return bytes.Contains(head, []byte("<errors>")) &&
		bytes.Contains(bytes.ToLower(head), []byte("invalid username"))
}

// retryDelay computes the backoff before the next attempt: the Retry-After
// hint when present, otherwise the base delay doubled per attempt, capped,
// with +/-25% jitter.
func (c *Client) retryDelay(attempt int, retryAfter time.Duration) time.Duration {
	if retryAfter > 0 {
		if retryAfter > c.maxDelay {
			return c.maxDelay
		}
		return retryAfter
	}
	delay := c.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= c.maxDelay {
			delay = c.maxDelay
			break
		}
	}
	jitter := time.Duration(rand.Int63n(int64(delay)/2+1)) - delay/4
	delay += jitter
	if delay > c.maxDelay {
		delay = c.maxDelay
	}
	if delay < 0 {
		delay = 0
	}
	return delay
}

func parseRetryAfterSeconds(header string) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
