package fetcher

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/bdmet/climate-cli/internal/resilience"
)

// Options configures the rate-limited HTTP client.
type Options struct {
	// MinInterval is the minimum elapsed time between the starts of any two
	// consecutive outbound calls. Default: 1s.
	MinInterval time.Duration

	// Timeout bounds each individual HTTP call. Default: 30s.
	Timeout time.Duration

	UserAgent string

	// Retry controls the backoff policy for transient failures.
	Retry resilience.RetryConfig
}

// Client executes rate-limited GET requests with retry. The limiter is
// owned by the instance so tests can run independent clients; production
// wiring shares one Client across all collaborators to keep the rate
// limit global.
type Client struct {
	http      *http.Client
	limiter   *rate.Limiter
	retry     resilience.RetryConfig
	userAgent string
}

// New creates a Client enforcing opts.MinInterval between call starts.
func New(opts Options) *Client {
	if opts.MinInterval <= 0 {
		opts.MinInterval = time.Second
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "climate-cli/1.0"
	}
	return &Client{
		http: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		// Burst 1: tokens refill at 1 per MinInterval, so consecutive
		// call starts are spaced by at least MinInterval.
		limiter:   rate.NewLimiter(rate.Every(opts.MinInterval), 1),
		retry:     opts.Retry,
		userAgent: opts.UserAgent,
	}
}

// Fetch executes the request and returns the response body. Transient
// failures (429, 5xx, timeouts) are retried with exponential backoff; a
// Retry-After header overrides the computed delay. Non-retryable statuses
// return a *StatusError immediately. When retries run out, the last
// transient error is wrapped in *ExhaustedError with the attempt count.
func (c *Client) Fetch(ctx context.Context, req Request) ([]byte, error) {
	fullURL := req.URL
	if len(req.Params) > 0 {
		fullURL = req.URL + "?" + req.Params.Encode()
	}

	cfg := c.retry
	attempts := 0
	cfg.OnRetry = func(attempt int, err error) {
		zap.L().Warn("retrying fetch",
			zap.String("endpoint", req.Kind.String()),
			zap.String("url", req.URL),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}

	body, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) ([]byte, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "fetch: rate limiter wait")
		}
		attempts++
		return c.do(ctx, req, fullURL)
	})
	if err == nil {
		return body, nil
	}
	if resilience.IsTransient(err) {
		return nil, &ExhaustedError{Kind: req.Kind, URL: req.URL, Attempts: attempts, Err: err}
	}
	return nil, err
}

// FetchJSON executes the request and decodes the body into out. A body
// that fails to decode is a permanent failure.
func (c *Client) FetchJSON(ctx context.Context, req Request, out any) error {
	body, err := c.Fetch(ctx, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrapf(err, "%s: decode response", req.Kind)
	}
	return nil
}

func (c *Client) do(ctx context.Context, req Request, fullURL string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, eris.Wrapf(err, "%s: create request", req.Kind)
	}
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		// Transport-level failures: classified by resilience.IsTransient.
		return nil, eris.Wrapf(err, "%s: request %s", req.Kind, req.URL)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resilience.IsTransientHTTPStatus(resp.StatusCode) {
		te := resilience.NewTransientError(
			eris.Errorf("%s: http %d from %s", req.Kind, resp.StatusCode, req.URL),
			resp.StatusCode,
		)
		te.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
		return nil, te
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: req.URL}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		// Connection dropped mid-body; worth another attempt.
		return nil, resilience.NewTransientError(
			eris.Wrapf(err, "%s: read body", req.Kind), resp.StatusCode)
	}
	return body, nil
}

// parseRetryAfter handles both delta-seconds and HTTP-date forms.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
