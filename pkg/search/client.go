package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/rubiojr/efinder/pkg/metrics"
	"github.com/rubiojr/efinder/pkg/version"
)

// SearchPath is appended to the backend base URL.
const SearchPath = "/api/search/"

const maxResponseSize = 16 << 20

// Searcher performs one backend search.
type Searcher interface {
	Search(ctx context.Context, baseURL string, q Query) ([]Result, error)
}

// Client is the HTTP Searcher used against the real backend.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
}

type ClientOption func(*Client)

// WithTimeout bounds each backend request. Zero means no timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRateLimit throttles outgoing requests to rps per second. Zero or less disables it.
func WithRateLimit(rps float64) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{},
		userAgent:  version.UserAgent(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchURL builds the backend URL for q. Parameters are always sent in the
// order q, author, store, empty ones included, with spaces encoded as %20.
func SearchURL(baseURL string, q Query) (string, error) {
	base := strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	u, err := url.Parse(base)
	if err != nil {
		return "", &RequestError{Message: "invalid backend URL", Err: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", &RequestError{Message: fmt.Sprintf("invalid backend URL %q", baseURL)}
	}
	if u.Host == "" {
		return "", &RequestError{Message: fmt.Sprintf("backend URL %q has no host", baseURL)}
	}

	store := q.Store
	if store == "" {
		store = StoreAll
	}

	return base + SearchPath +
		"?q=" + escape(q.Title) +
		"&author=" + escape(q.Author) +
		"&store=" + escape(string(store)), nil
}

func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// Search sends one GET to the backend and decodes the JSON array of results.
func (c *Client) Search(ctx context.Context, baseURL string, q Query) ([]Result, error) {
	start := time.Now()
	results, err := c.search(ctx, baseURL, q)
	metrics.ObserveBackendRequest(outcome(err), time.Since(start))
	return results, err
}

func (c *Client) search(ctx context.Context, baseURL string, q Query) ([]Result, error) {
	endpoint, err := SearchURL(baseURL, q)
	if err != nil {
		return nil, err
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &RequestError{Message: "waiting for rate limiter", Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &RequestError{Message: "building request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTransportFailure(err) {
			return nil, &NetworkError{BaseURL: baseURL, Err: err}
		}
		return nil, &RequestError{Message: "sending request", Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))
		return nil, &ServerError{StatusCode: resp.StatusCode, Status: statusText(resp)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &RequestError{Message: "reading response", Err: err}
	}

	var results []Result
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, &RequestError{Message: "decoding response", Err: err}
	}
	if results == nil {
		return nil, &RequestError{Message: "backend returned no result list"}
	}

	return results, nil
}

func statusText(resp *http.Response) string {
	code := strconv.Itoa(resp.StatusCode)
	if text := strings.TrimSpace(strings.TrimPrefix(resp.Status, code)); text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

// isTransportFailure reports whether err means no response was received.
func isTransportFailure(err error) bool {
	// *url.Error itself satisfies net.Error; look at what it wraps.
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case IsNetwork(err):
		return metrics.OutcomeNetworkError
	case IsServer(err):
		return metrics.OutcomeServerError
	}
	return metrics.OutcomeRequestError
}
