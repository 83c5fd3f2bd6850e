package infrastructure

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/samber/lo"
	"github.com/yourusername/dwhelper-go/internal/domain"
	"go.uber.org/zap"
)

// NewHTTPClient builds the shared client used by every handler and the direct
// downloader. Its configuration is fixed at construction; handlers only add
// per-request headers and timeouts.
func NewHTTPClient(config *domain.TransportConfig, logger *zap.Logger) *http.Client {
	return &http.Client{
		Transport: NewRetryTransport(http.DefaultTransport, config, logger),
	}
}

type attemptTimeoutKey struct{}

// WithAttemptTimeout bounds every transport attempt made with ctx by d,
// including reading the response body. Backoff pauses are not counted.
func WithAttemptTimeout(ctx context.Context, d time.Duration) context.Context {
	return context.WithValue(ctx, attemptTimeoutKey{}, d)
}

func attemptTimeout(ctx context.Context) time.Duration {
	d, _ := ctx.Value(attemptTimeoutKey{}).(time.Duration)
	return d
}

// cancelOnClose releases an attempt context once the body is done with
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

// RetryTransport retries requests on transport errors and on configured
// transient status codes, with exponential backoff between attempts
type RetryTransport struct {
	base    http.RoundTripper
	config  *domain.TransportConfig
	logger  *zap.Logger
	headers http.Header
}

// NewRetryTransport wraps base with retry and default-header behavior
func NewRetryTransport(base http.RoundTripper, config *domain.TransportConfig, logger *zap.Logger) *RetryTransport {
	if logger == nil {
		logger = zap.NewNop()
	}
	headers := http.Header{}
	headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	if config.UserAgent != "" {
		headers.Set("User-Agent", config.UserAgent)
	}
	if config.AcceptLanguage != "" {
		headers.Set("Accept-Language", config.AcceptLanguage)
	}
	return &RetryTransport{
		base:    base,
		config:  config,
		logger:  logger,
		headers: headers,
	}
}

// RoundTrip implements http.RoundTripper
func (t *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	maxRetries := t.config.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	var resp *http.Response
	attempt := 0

	operation := func() error {
		attempt++
		ctx, cancel := req.Context(), context.CancelFunc(func() {})
		if d := attemptTimeout(ctx); d > 0 {
			ctx, cancel = context.WithTimeout(ctx, d)
		}

		r, err := t.prepare(ctx, req, attempt)
		if err != nil {
			cancel()
			return backoff.Permanent(err)
		}

		res, err := t.base.RoundTrip(r)
		if err != nil {
			cancel()
			if req.Context().Err() != nil {
				return backoff.Permanent(err)
			}
			t.logger.Debug("Transport error, will retry",
				zap.String("url", req.URL.String()),
				zap.Int("attempt", attempt),
				zap.Error(err))
			return err
		}

		if t.retryable(res.StatusCode) && attempt <= maxRetries {
			io.Copy(io.Discard, res.Body)
			res.Body.Close()
			cancel()
			t.logger.Debug("Transient status, will retry",
				zap.String("url", req.URL.String()),
				zap.Int("status", res.StatusCode),
				zap.Int("attempt", attempt))
			return fmt.Errorf("transient status %d", res.StatusCode)
		}

		res.Body = &cancelOnClose{ReadCloser: res.Body, cancel: cancel}
		resp = res
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(t.newBackOff(), uint64(maxRetries)),
		req.Context(),
	)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return resp, nil
}

// prepare clones the request for an attempt, replaying the body after the first
func (t *RetryTransport) prepare(ctx context.Context, req *http.Request, attempt int) (*http.Request, error) {
	r := req.Clone(ctx)
	for key, values := range t.headers {
		if r.Header.Get(key) == "" {
			r.Header[key] = values
		}
	}
	if attempt > 1 && req.Body != nil && req.Body != http.NoBody {
		if req.GetBody == nil {
			return nil, fmt.Errorf("request body cannot be replayed")
		}
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("failed to replay request body: %w", err)
		}
		r.Body = body
	}
	return r, nil
}

func (t *RetryTransport) retryable(status int) bool {
	return lo.Contains(t.config.RetryStatuses, status)
}

func (t *RetryTransport) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if t.config.BackoffFactor > 0 {
		b.InitialInterval = t.config.BackoffFactor
	}
	if t.config.MaxBackoff > 0 {
		b.MaxInterval = t.config.MaxBackoff
	}
	b.MaxElapsedTime = 0
	return b
}

// boundedTimeout returns d, or fallback when d is not set
func boundedTimeout(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}
