// Package webfetch is a rate-limited HTTP client for the outage source pages.
package webfetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultTimeout = 30 * time.Second
	maxBodySize    = 5 * 1024 * 1024
	maxRedirects   = 5
	burstSize      = 2
)

// ErrHTTPStatus is returned for any non-200 response. The caller aborts the
// source's pass and retries on the next scheduled cycle.
var ErrHTTPStatus = errors.New("unexpected HTTP status")

type Fetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

func New(rps float64, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return errors.New("too many redirects")
				}

				return nil
			},
		},
		limiter:   rate.NewLimiter(rate.Limit(rps), burstSize),
		userAgent: "OutageInformer/1.0 (+https://github.com/hovq/outage-informer)",
	}
}

// Fetch downloads a page, returning its body capped at 5MB.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d from %s", ErrHTTPStatus, resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return body, nil
}
