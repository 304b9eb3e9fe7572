// Package syncer orchestrates the full sync pipeline: fetch all
// subscribed feeds in parallel, merge the results into the local
// tables, then reconcile and publish through version control.
//
// Local durability comes first. The merged tables are written before
// any remote step runs, so a network failure or rejected push never
// costs fetched data. Per-feed failures are aggregated and reported
// without aborting the batch.
package syncer

import (
	"context"
	"fmt"

	log "github.com/go-pkgz/lgr"
	"github.com/hashicorp/go-multierror"

	"github.com/burrowfeed/burrow/internal/fetch"
	"github.com/burrowfeed/burrow/internal/model"
	"github.com/burrowfeed/burrow/internal/store"
	"github.com/burrowfeed/burrow/internal/vcs"
)

// Syncer ties the fetch coordinator, the tables and the transport
// together for one database root.
type Syncer struct {
	db        *model.DB
	coord     *fetch.Coordinator
	transport vcs.Transport
}

// Stats summarizes one sync run.
type Stats struct {
	FeedsTotal  int
	FeedsFailed int
	Feeds       store.MergeStats
	Posts       store.MergeStats
	Committed   bool
	Pushed      bool
}

// New builds a syncer. transport may be nil for a database root that is
// not under version control; sync is then local-only.
func New(db *model.DB, coord *fetch.Coordinator, transport vcs.Transport) *Syncer {
	return &Syncer{db: db, coord: coord, transport: transport}
}

// Sync runs the pipeline end to end under the writer lock. The returned
// stats are valid even when err is non-nil: per-feed and remote
// failures are aggregated after local durability, not instead of it.
func (s *Syncer) Sync(ctx context.Context) (Stats, error) {
	lock, err := store.Acquire(s.db.Root)
	if err != nil {
		return Stats{}, err
	}
	defer lock.Release()

	feeds, err := s.db.Feeds.Items()
	if err != nil {
		return Stats{}, fmt.Errorf("listing feeds: %w", err)
	}

	stats := Stats{FeedsTotal: len(feeds)}
	var errs *multierror.Error

	results := s.coord.Run(ctx, feeds)

	var feedBatch []model.Feed
	var postBatch []model.Post
	for _, r := range results {
		if r.Err != nil {
			stats.FeedsFailed++
			log.Printf("[WARN] fetch failed for %s: %v", r.Feed.URL, r.Err)
			errs = multierror.Append(errs, r.Err)
			continue
		}
		feedBatch = append(feedBatch, r.Feed)
		postBatch = append(postBatch, r.Posts...)
	}

	// Durability point: everything fetched lands on disk before any
	// remote interaction.
	if stats.Feeds, err = s.db.Feeds.Merge(feedBatch); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("merging feeds: %w", err))
		return stats, errs.ErrorOrNil()
	}
	if stats.Posts, err = s.db.Posts.Merge(postBatch); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("merging posts: %w", err))
		return stats, errs.ErrorOrNil()
	}
	log.Printf("[INFO] merged %d feeds (%d new), %d posts (%d new)",
		stats.FeedsTotal-stats.FeedsFailed, stats.Feeds.Inserted,
		stats.Posts.Inserted+stats.Posts.Updated+stats.Posts.Unchanged, stats.Posts.Inserted)

	if s.transport == nil {
		return stats, errs.ErrorOrNil()
	}
	if err := s.publish(ctx, &stats); err != nil {
		errs = multierror.Append(errs, err)
	}
	return stats, errs.ErrorOrNil()
}
