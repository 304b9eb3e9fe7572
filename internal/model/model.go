// Package model defines the record kinds stored in a burrow database:
// subscribed feeds and the posts fetched from them. Both implement the
// store's record capability (id + field-level merge), which is what lets
// a single generic table type serve both.
package model

import (
	"time"

	"github.com/burrowfeed/burrow/internal/ident"
	"github.com/burrowfeed/burrow/internal/store"
)

// Table layouts. Feeds stay small: few shards, short ids. Posts accumulate
// for years: more shards, longer ids.
var (
	FeedTable = store.Options{Name: "feeds", Shards: 4, IDLen: 12}
	PostTable = store.Options{Name: "posts", Shards: 16, IDLen: 16}
)

// Feed is a subscription. The id is content-derived from the canonical
// source URL, so every machine that subscribes to the same feed stores it
// under the same id.
type Feed struct {
	// Id is the truncated content hash of the canonical source URL.
	Id string `json:"id"`

	// URL is the feed source URL as the user supplied it.
	URL string `json:"url"`

	// Alias is the user-chosen shorthand, if any (resolved as @alias).
	Alias string `json:"alias,omitempty"`

	Title       string `json:"title,omitempty"`
	SiteURL     string `json:"site_url,omitempty"`
	Description string `json:"description,omitempty"`

	// UpdatedAt is the last time a fetch changed this record. Monotone:
	// merges never move it backward.
	UpdatedAt time.Time `json:"updated_at"`
}

// NewFeed builds a Feed with its content-derived id.
func NewFeed(url, alias string) Feed {
	return Feed{
		Id:        FeedID(url),
		URL:       url,
		Alias:     alias,
		UpdatedAt: time.Now().UTC(),
	}
}

// FeedID derives the id for a feed source URL.
func FeedID(url string) string {
	return ident.Hash(ident.CanonicalURL(url), FeedTable.IDLen)
}

// ID implements store.Record.
func (f Feed) ID() string { return f.Id }

// Merge combines two sightings of the same feed. Fields the candidate
// supplies win when the candidate is strictly fresher; empty candidate
// fields never erase stored values. Equal timestamps fall back to a
// lexicographic tie-break so merging in either order lands on the same
// record.
func (f Feed) Merge(other Feed) Feed {
	newer := other.UpdatedAt.After(f.UpdatedAt)
	equal := other.UpdatedAt.Equal(f.UpdatedAt)
	out := f
	out.URL = pick(f.URL, other.URL, newer, equal)
	out.Alias = pick(f.Alias, other.Alias, newer, equal)
	out.Title = pick(f.Title, other.Title, newer, equal)
	out.SiteURL = pick(f.SiteURL, other.SiteURL, newer, equal)
	out.Description = pick(f.Description, other.Description, newer, equal)
	if newer {
		out.UpdatedAt = other.UpdatedAt
	}
	return out
}

// Post is one feed item. The id is content-derived from the item's guid
// (or canonical link) when the source provides one; otherwise a local
// fallback id is assigned and the record flagged for later re-keying.
type Post struct {
	// Id is the truncated content hash of the natural key, or a fallback id.
	Id string `json:"id"`

	// Link is the id of the owning Feed. A plain foreign key; cascading
	// delete removes every post whose Link equals the deleted feed's id.
	Link string `json:"link"`

	// URL is the post's web address, used by `burrow open`.
	URL string `json:"url,omitempty"`

	Title string `json:"title,omitempty"`

	// Published is the timestamp the source reported, if any.
	Published *time.Time `json:"published,omitempty"`

	// UpdatedAt is the last local change. Monotone under merge.
	UpdatedAt time.Time `json:"updated_at"`

	// Fallback marks a record keyed by a locally generated id because the
	// source offered no stable guid or link.
	Fallback bool `json:"fallback,omitempty"`

	// Retries counts stable-id resolution attempts for a fallback record.
	// Capped so a persistently broken source cannot grow it, or the logs,
	// without bound.
	Retries int `json:"retries,omitempty"`
}

// PostID derives the content id for an item's natural key. ok is false
// when the item has no usable key and needs a fallback id.
func PostID(guid, url string) (id string, ok bool) {
	switch {
	case guid != "":
		return ident.Hash(ident.CanonicalURL(guid), PostTable.IDLen), true
	case url != "":
		return ident.Hash(ident.CanonicalURL(url), PostTable.IDLen), true
	default:
		return "", false
	}
}

// ID implements store.Record.
func (p Post) ID() string { return p.Id }

// Merge combines two sightings of the same post: non-destructive field
// union, published timestamp kept once known, updated_at never regressing.
// Ties on updated_at resolve deterministically so the operation stays
// commutative.
func (p Post) Merge(other Post) Post {
	newer := other.UpdatedAt.After(p.UpdatedAt)
	equal := other.UpdatedAt.Equal(p.UpdatedAt)
	out := p
	out.URL = pick(p.URL, other.URL, newer, equal)
	out.Title = pick(p.Title, other.Title, newer, equal)
	switch {
	case other.Published == nil:
	case out.Published == nil, newer:
		out.Published = other.Published
	case equal && other.Published.Before(*out.Published):
		out.Published = other.Published
	}
	if newer {
		out.UpdatedAt = other.UpdatedAt
	}
	// One stable sighting clears the fallback flag for good.
	out.Fallback = p.Fallback && other.Fallback
	if other.Retries > out.Retries {
		out.Retries = other.Retries
	}
	return out
}

// pick implements the field union rule: a strictly fresher non-empty
// candidate wins, an empty candidate never erases the stored value, and
// on equal timestamps the lexicographically greater value is kept. The
// tie rule makes pick symmetric in its operands, which is what keeps
// record merges commutative when two replicas saw the same timestamp
// with different field values.
func pick(old, candidate string, newer, equal bool) string {
	switch {
	case candidate == "":
		return old
	case old == "":
		return candidate
	case newer:
		return candidate
	case equal && candidate > old:
		return candidate
	default:
		return old
	}
}
