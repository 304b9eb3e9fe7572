package syncer

import (
	"context"
	"errors"
	"fmt"
	"os"

	log "github.com/go-pkgz/lgr"

	"github.com/burrowfeed/burrow/internal/config"
	"github.com/burrowfeed/burrow/internal/model"
	"github.com/burrowfeed/burrow/internal/shorthand"
	"github.com/burrowfeed/burrow/internal/store"
	"github.com/burrowfeed/burrow/internal/vcs"
	"github.com/burrowfeed/burrow/internal/vcs/git"
)

// Add subscribes a feed. Re-adding an existing URL merges instead of
// duplicating, so a non-empty alias wins over a previous blank one.
func (s *Syncer) Add(url, alias string) (model.Feed, error) {
	lock, err := store.Acquire(s.db.Root)
	if err != nil {
		return model.Feed{}, err
	}
	defer lock.Release()

	feed := model.NewFeed(url, alias)
	if _, err := s.db.Feeds.Merge([]model.Feed{feed}); err != nil {
		return model.Feed{}, fmt.Errorf("adding feed %s: %w", url, err)
	}
	log.Printf("[INFO] added feed %s as %s", url, feed.Id)
	return feed, nil
}

// Remove unsubscribes a feed addressed by URL, id, alias or unambiguous
// prefix, cascading to its posts. Returns the removed feed and how many
// posts went with it.
func (s *Syncer) Remove(token string) (model.Feed, int, error) {
	lock, err := store.Acquire(s.db.Root)
	if err != nil {
		return model.Feed{}, 0, err
	}
	defer lock.Release()

	feed, err := s.resolveFeed(token)
	if err != nil {
		return model.Feed{}, 0, err
	}
	removed, err := s.db.RemoveFeed(feed.Id)
	if err != nil {
		return model.Feed{}, 0, err
	}
	log.Printf("[INFO] removed feed %s with %d posts", feed.Id, removed)
	return feed, removed, nil
}

// List returns all subscribed feeds in ascending id order.
func (s *Syncer) List() ([]model.Feed, error) {
	return s.db.Feeds.Items()
}

// resolveFeed maps a user token to a stored feed.
func (s *Syncer) resolveFeed(token string) (model.Feed, error) {
	feeds, err := s.db.Feeds.Items()
	if err != nil {
		return model.Feed{}, err
	}
	for _, f := range feeds {
		if f.URL == token || f.Id == model.FeedID(token) {
			return f, nil
		}
	}
	entries := make([]shorthand.Entry, len(feeds))
	for i, f := range feeds {
		entries[i] = shorthand.Entry{ID: f.Id, Alias: f.Alias}
	}
	id, err := shorthand.Resolve("feeds", entries, token)
	if err != nil {
		return model.Feed{}, err
	}
	return s.db.Feeds.Get(id)
}

// Clone materializes a remote database into root. The directory must
// not already hold data; remote accepts the user/repo shorthand. A
// burrow.yml marker is written so the root is discoverable afterwards.
func Clone(ctx context.Context, remote, root string) error {
	if entries, err := os.ReadDir(root); err == nil && len(entries) > 0 {
		return fmt.Errorf("%w: %s", vcs.ErrTargetExists, root)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checking clone target: %w", err)
	}

	g, err := git.Clone(ctx, remote, root)
	if err != nil {
		return err
	}
	if err := config.WriteMarker(g.Root()); err != nil {
		return err
	}
	log.Printf("[INFO] cloned %s into %s", remote, g.Root())
	return nil
}
