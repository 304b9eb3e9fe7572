// Package feedparse turns raw feed bytes into normalized metadata and
// items. Format detection is a fallback chain over gofeed's
// format-specific parsers: RSS first, then Atom; only when both refuse the
// input is the feed declared unparsable.
package feedparse

import (
	"bytes"
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/mmcdole/gofeed/atom"
	"github.com/mmcdole/gofeed/rss"
)

// Meta is the normalized feed-level metadata.
type Meta struct {
	Title       string
	SiteURL     string
	Description string
}

// Item is one normalized feed entry.
type Item struct {
	// GUID is the source-provided stable identifier, if any.
	GUID string

	// URL is the entry link, if any.
	URL string

	Title string

	// Published is the entry's published (or, failing that, updated)
	// timestamp in UTC. Nil when the source provides neither.
	Published *time.Time
}

// FormatError reports input that no parser in the chain accepted.
type FormatError struct {
	RSSErr  error
	AtomErr error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("unrecognized feed format (rss: %v; atom: %v)", e.RSSErr, e.AtomErr)
}

// Parse decodes raw feed bytes, trying RSS then Atom.
func Parse(data []byte) (Meta, []Item, error) {
	rssParser := &rss.Parser{}
	rssFeed, rssErr := rssParser.Parse(bytes.NewReader(data))
	if rssErr == nil {
		tr := &gofeed.DefaultRSSTranslator{}
		f, err := tr.Translate(rssFeed)
		if err != nil {
			return Meta{}, nil, fmt.Errorf("translate rss feed: %w", err)
		}
		meta, items := normalize(f)
		return meta, items, nil
	}

	atomParser := &atom.Parser{}
	atomFeed, atomErr := atomParser.Parse(bytes.NewReader(data))
	if atomErr != nil {
		return Meta{}, nil, &FormatError{RSSErr: rssErr, AtomErr: atomErr}
	}
	tr := &gofeed.DefaultAtomTranslator{}
	f, err := tr.Translate(atomFeed)
	if err != nil {
		return Meta{}, nil, fmt.Errorf("translate atom feed: %w", err)
	}
	meta, items := normalize(f)
	return meta, items, nil
}

// normalize maps gofeed's universal representation onto burrow's.
func normalize(f *gofeed.Feed) (Meta, []Item) {
	meta := Meta{
		Title:       f.Title,
		SiteURL:     f.Link,
		Description: f.Description,
	}

	items := make([]Item, 0, len(f.Items))
	for _, it := range f.Items {
		url := it.Link
		if url == "" && len(it.Links) > 0 {
			url = it.Links[0]
		}

		var published *time.Time
		switch {
		case it.PublishedParsed != nil:
			t := it.PublishedParsed.UTC()
			published = &t
		case it.UpdatedParsed != nil:
			t := it.UpdatedParsed.UTC()
			published = &t
		}

		items = append(items, Item{
			GUID:      it.GUID,
			URL:       url,
			Title:     it.Title,
			Published: published,
		})
	}
	return meta, items
}
