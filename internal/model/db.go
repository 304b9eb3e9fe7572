package model

import (
	"fmt"

	"github.com/burrowfeed/burrow/internal/store"
)

// DB bundles the tables of one burrow database root.
type DB struct {
	Root  string
	Feeds *store.Table[Feed]
	Posts *store.Table[Post]
}

// OpenDB opens (creating if needed) both tables under root.
func OpenDB(root string) (*DB, error) {
	feeds, err := store.Open[Feed](root, FeedTable)
	if err != nil {
		return nil, err
	}
	posts, err := store.Open[Post](root, PostTable)
	if err != nil {
		return nil, err
	}
	return &DB{Root: root, Feeds: feeds, Posts: posts}, nil
}

// RemoveFeed deletes the feed and, in the same transaction on the posts
// table, every post whose Link references it. Posts of other feeds are
// untouched. Returns the number of cascaded post deletions.
func (db *DB) RemoveFeed(feedID string) (int, error) {
	if _, err := db.Feeds.Get(feedID); err != nil {
		return 0, err
	}

	ptx := db.Posts.Begin()
	err := db.Posts.Scan(func(p Post) error {
		if p.Link == feedID {
			ptx.Delete(p.Id)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("collect posts of feed %s: %w", feedID, err)
	}
	removed := 0
	if !ptx.Empty() {
		// Count before commit clears the staging maps.
		removed = ptx.Pending()
		if err := ptx.Commit(); err != nil {
			return 0, err
		}
	}

	ftx := db.Feeds.Begin()
	ftx.Delete(feedID)
	if err := ftx.Commit(); err != nil {
		return removed, err
	}
	return removed, nil
}

// LookupFallback finds an existing fallback post for a feed and title,
// letting repeated fetches of a keyless item converge on one id.
func (db *DB) LookupFallback(feedID, title string) (Post, bool) {
	var found Post
	ok := false
	_ = db.Posts.Scan(func(p Post) error {
		if !ok && p.Fallback && p.Link == feedID && p.Title == title {
			found, ok = p, true
		}
		return nil
	})
	return found, ok
}

// PostsOf returns the posts belonging to one feed, in ascending id order.
func (db *DB) PostsOf(feedID string) ([]Post, error) {
	var out []Post
	err := db.Posts.Scan(func(p Post) error {
		if p.Link == feedID {
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
