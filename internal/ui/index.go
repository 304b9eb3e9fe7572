// Package ui builds display indexes and renders feeds and posts for
// the terminal.
//
// Shorthands are display-order artifacts: feed shorthands derive from
// record ids, while post shorthands number the posts in reading order
// (newest first). Both are recomputed per invocation, so they stay
// short and typeable but are not stable across syncs.
package ui

import (
	"sort"
	"strings"

	"github.com/burrowfeed/burrow/internal/model"
	"github.com/burrowfeed/burrow/internal/shorthand"
)

// FeedIndex holds feeds sorted by URL with their display shorthands.
type FeedIndex struct {
	Feeds      []model.Feed
	Shorthands []string
}

// BuildFeedIndex sorts feeds by URL and assigns shortest-unique-prefix
// shorthands derived from the ids.
func BuildFeedIndex(feeds []model.Feed) FeedIndex {
	sorted := make([]model.Feed, len(feeds))
	copy(sorted, feeds)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].URL < sorted[j].URL })

	ids := make([]string, len(sorted))
	for i, f := range sorted {
		ids[i] = f.Id
	}
	return FeedIndex{Feeds: sorted, Shorthands: shorthand.FeedShorthands(ids)}
}

// IDFor maps a display shorthand back to a feed id.
func (fi FeedIndex) IDFor(sh string) (string, bool) {
	for i, s := range fi.Shorthands {
		if s == sh {
			return fi.Feeds[i].Id, true
		}
	}
	return "", false
}

// Resolve maps a user token to a feed id: display shorthand first, then
// full id, user alias or unambiguous id prefix. A leading "@" is
// accepted and ignored.
func (fi FeedIndex) Resolve(token string) (string, error) {
	token = strings.TrimPrefix(token, "@")
	if id, ok := fi.IDFor(token); ok {
		return id, nil
	}
	entries := make([]shorthand.Entry, len(fi.Feeds))
	for i, f := range fi.Feeds {
		entries[i] = shorthand.Entry{ID: f.Id, Alias: f.Alias}
	}
	return shorthand.Resolve("feeds", entries, token)
}

// Labels returns the per-feed display label, "@sh title" or "@sh url"
// for feeds that never reported a title.
func (fi FeedIndex) Labels() map[string]string {
	labels := make(map[string]string, len(fi.Feeds))
	for i, f := range fi.Feeds {
		if f.Title != "" {
			labels[f.Id] = "@" + fi.Shorthands[i] + " " + f.Title
		} else {
			labels[f.Id] = "@" + fi.Shorthands[i] + " " + f.URL
		}
	}
	return labels
}

// PostIndex holds posts in reading order with per-id shorthands.
type PostIndex struct {
	Posts      []model.Post
	Shorthands map[string]string
}

// BuildPostIndex sorts posts newest first (undated posts last, then by
// id for determinism) and numbers them with compact shorthands.
func BuildPostIndex(posts []model.Post) PostIndex {
	sorted := make([]model.Post, len(posts))
	copy(sorted, posts)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		switch {
		case a.Published == nil && b.Published == nil:
			return a.Id < b.Id
		case a.Published == nil:
			return false
		case b.Published == nil:
			return true
		case !a.Published.Equal(*b.Published):
			return a.Published.After(*b.Published)
		default:
			return a.Id < b.Id
		}
	})

	shorthands := make(map[string]string, len(sorted))
	for i, p := range sorted {
		shorthands[p.Id] = shorthand.PostShorthand(i)
	}
	return PostIndex{Posts: sorted, Shorthands: shorthands}
}

// ResolveShorthand finds the post carrying a display shorthand.
func (pi PostIndex) ResolveShorthand(sh string) (model.Post, bool) {
	for _, p := range pi.Posts {
		if pi.Shorthands[p.Id] == sh {
			return p, true
		}
	}
	return model.Post{}, false
}

// Resolve maps a user token to a post: display shorthand first, then
// full id or unambiguous id prefix.
func (pi PostIndex) Resolve(token string) (model.Post, error) {
	token = strings.TrimPrefix(token, "@")
	if p, ok := pi.ResolveShorthand(token); ok {
		return p, nil
	}
	entries := make([]shorthand.Entry, len(pi.Posts))
	for i, p := range pi.Posts {
		entries[i] = shorthand.Entry{ID: p.Id}
	}
	id, err := shorthand.Resolve("posts", entries, token)
	if err != nil {
		return model.Post{}, err
	}
	for _, p := range pi.Posts {
		if p.Id == id {
			return p, nil
		}
	}
	return model.Post{}, &shorthand.NotFoundError{Table: "posts", Token: token}
}
