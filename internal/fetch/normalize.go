package fetch

import (
	"time"

	log "github.com/go-pkgz/lgr"

	"github.com/burrowfeed/burrow/internal/feedparse"
	"github.com/burrowfeed/burrow/internal/ident"
	"github.com/burrowfeed/burrow/internal/model"
)

// maxFallbackRetries caps stable-id resolution attempts (and the warnings
// they log) for a persistently keyless item.
const maxFallbackRetries = 5

// feedCandidate folds fetched metadata into the subscribed feed record.
// The timestamp bumps only when a field actually changed, so an unchanged
// feed merges to an identical record and the working tree stays clean.
func (c *Coordinator) feedCandidate(feed model.Feed, meta feedparse.Meta) model.Feed {
	out := feed
	if meta.Title != "" {
		out.Title = meta.Title
	}
	if meta.SiteURL != "" {
		out.SiteURL = meta.SiteURL
	}
	if meta.Description != "" {
		out.Description = meta.Description
	}
	if out != feed {
		out.UpdatedAt = time.Now().UTC()
	}
	return out
}

// postCandidates normalizes parsed items into Post records keyed for the
// merge engine: content-derived ids when the item has a natural key,
// reused or fresh fallback ids otherwise.
func (c *Coordinator) postCandidates(feed model.Feed, items []feedparse.Item) []model.Post {
	posts := make([]model.Post, 0, len(items))
	for _, item := range items {
		post := model.Post{
			Link:      feed.Id,
			URL:       item.URL,
			Title:     item.Title,
			Published: item.Published,
		}
		if item.Published != nil {
			post.UpdatedAt = item.Published.UTC()
		}

		if id, ok := model.PostID(item.GUID, item.URL); ok {
			post.Id = id
			posts = append(posts, post)
			continue
		}

		posts = append(posts, c.fallbackPost(feed, post))
	}
	return posts
}

// fallbackPost keys an item that has no guid or link. A previous fallback
// record for the same feed and title is reused (bumping its bounded retry
// counter); otherwise a fresh local id is minted. Warnings stop once the
// retry cap is reached so a permanently broken source cannot flood the
// log.
func (c *Coordinator) fallbackPost(feed model.Feed, post model.Post) model.Post {
	if prev, ok := c.lookup(feed.Id, post.Title); ok {
		post.Id = prev.Id
		post.Fallback = true
		post.Retries = prev.Retries
		if post.Retries < maxFallbackRetries {
			post.Retries++
			log.Printf("[WARN] feed %s: item %q still has no stable key, retry %d/%d",
				feed.URL, post.Title, post.Retries, maxFallbackRetries)
		}
		return post
	}

	post.Id = ident.Fallback(model.PostTable.IDLen)
	post.Fallback = true
	log.Printf("[WARN] feed %s: item %q has no guid or link, assigned fallback id %s",
		feed.URL, post.Title, post.Id)
	return post
}
