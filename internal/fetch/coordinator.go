package fetch

import (
	"context"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/syncs"

	"github.com/burrowfeed/burrow/internal/feedparse"
	"github.com/burrowfeed/burrow/internal/model"
)

// Result is the tagged outcome of one feed's fetch+parse. Exactly one of
// Err or the payload fields is meaningful.
type Result struct {
	Feed  model.Feed
	Meta  feedparse.Meta
	Posts []model.Post
	Err   error
}

// FallbackLookup locates an existing fallback post for a feed and title,
// so repeated fetches of a keyless item reuse one id instead of minting a
// new record per sync.
type FallbackLookup func(feedID, title string) (model.Post, bool)

// Coordinator fans subscribed feeds out to a sized worker pool.
type Coordinator struct {
	fetcher Fetcher
	workers int
	timeout time.Duration
	lookup  FallbackLookup
}

// defaults mirror a polite feed reader: modest parallelism, patient
// per-feed timeout.
const (
	defaultWorkers = 8
	defaultTimeout = 30 * time.Second
)

// NewCoordinator builds a coordinator. Zero workers or timeout select the
// defaults; lookup may be nil when no fallback records exist yet.
func NewCoordinator(fetcher Fetcher, workers int, timeout time.Duration, lookup FallbackLookup) *Coordinator {
	if workers <= 0 {
		workers = defaultWorkers
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if lookup == nil {
		lookup = func(string, string) (model.Post, bool) { return model.Post{}, false }
	}
	return &Coordinator{fetcher: fetcher, workers: workers, timeout: timeout, lookup: lookup}
}

// Run fetches every feed concurrently and returns one result per feed, in
// input order. Wall-clock time is bounded by the slowest single feed, not
// the sum. Run returns only after every worker has finished (or timed
// out); it never aborts early on per-feed failures.
func (c *Coordinator) Run(ctx context.Context, feeds []model.Feed) []Result {
	results := make([]Result, len(feeds))

	swg := syncs.NewSizedGroup(c.workers, syncs.Context(ctx), syncs.Preemptive)
	for i, feed := range feeds {
		i, feed := i, feed
		swg.Go(func(gctx context.Context) {
			results[i] = c.one(gctx, feed)
		})
	}
	swg.Wait()

	return results
}

// one fetches, parses and normalizes a single feed under its own timeout.
func (c *Coordinator) one(ctx context.Context, feed model.Feed) Result {
	fctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	log.Printf("[DEBUG] fetch %s", feed.URL)
	raw, err := c.fetcher.Fetch(fctx, feed.URL)
	if err != nil {
		return Result{Feed: feed, Err: err}
	}

	meta, items, err := feedparse.Parse(raw)
	if err != nil {
		return Result{Feed: feed, Err: &FeedError{URL: feed.URL, Err: err}}
	}

	return Result{
		Feed:  c.feedCandidate(feed, meta),
		Meta:  meta,
		Posts: c.postCandidates(feed, items),
	}
}
