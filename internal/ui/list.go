package ui

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// RenderFeedList renders one line per feed: "@sh url" or
// "@sh url (title)" once the feed has reported a title.
func RenderFeedList(fi FeedIndex) string {
	var b strings.Builder
	for i, f := range fi.Feeds {
		if f.Title != "" {
			fmt.Fprintf(&b, "@%s %s (%s)\n", fi.Shorthands[i], f.URL, f.Title)
		} else {
			fmt.Fprintf(&b, "@%s %s\n", fi.Shorthands[i], f.URL)
		}
	}
	return b.String()
}

// feedEntry is the YAML shape of one subscription.
type feedEntry struct {
	Shorthand string `yaml:"shorthand"`
	URL       string `yaml:"url"`
	Title     string `yaml:"title,omitempty"`
	Alias     string `yaml:"alias,omitempty"`
	ID        string `yaml:"id"`
}

// FeedsYAML renders the feed list as a YAML document, for piping into
// other tools.
func FeedsYAML(fi FeedIndex) ([]byte, error) {
	entries := make([]feedEntry, len(fi.Feeds))
	for i, f := range fi.Feeds {
		entries[i] = feedEntry{
			Shorthand: fi.Shorthands[i],
			URL:       f.URL,
			Title:     f.Title,
			Alias:     f.Alias,
			ID:        f.Id,
		}
	}
	return yaml.Marshal(entries)
}
