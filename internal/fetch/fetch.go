// Package fetch retrieves subscribed feeds in parallel and normalizes the
// results into candidate records for the merge engine.
//
// Each feed is fetched by its own worker in a bounded pool with an
// independent timeout. A worker's failure is captured in its tagged result
// rather than raised through the pool, so one dead feed never aborts the
// batch; the caller aggregates failures after the join barrier.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// FeedError is a per-feed fetch failure. Non-fatal: it ends up aggregated
// in the sync report, never aborting the batch.
type FeedError struct {
	URL string
	Err error
}

func (e *FeedError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FeedError) Unwrap() error { return e.Err }

// Fetcher retrieves raw bytes for one feed URL. The context carries the
// per-feed timeout.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// maxBodyBytes caps a single feed download.
const maxBodyBytes = 10 << 20

// HTTPFetcher is the production Fetcher.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// NewHTTPFetcher creates a fetcher identifying itself with the given
// user agent. Timeouts come from the caller's context, not the client.
func NewHTTPFetcher(userAgent string) *HTTPFetcher {
	return &HTTPFetcher{
		client:    &http.Client{},
		userAgent: userAgent,
	}
}

// Fetch implements Fetcher.
func (h *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FeedError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", h.userAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, &FeedError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FeedError{URL: url, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &FeedError{URL: url, Err: err}
	}
	return data, nil
}

// withTimeout derives the per-feed context. A zero timeout means the
// parent context alone bounds the fetch.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
