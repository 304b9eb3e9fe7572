package ui

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/burrowfeed/burrow/internal/model"
)

// GroupKey selects one level of post grouping.
type GroupKey int

const (
	// GroupDate buckets posts by publication day, newest first.
	GroupDate GroupKey = iota
	// GroupFeed buckets posts by feed label, alphabetical.
	GroupFeed
)

// ParseGrouping maps a mode string like "d", "f", "df" or "fd" to
// grouping levels. The empty string means a flat list.
func ParseGrouping(mode string) ([]GroupKey, error) {
	keys := make([]GroupKey, 0, len(mode))
	for _, c := range mode {
		switch c {
		case 'd':
			keys = append(keys, GroupDate)
		case 'f':
			keys = append(keys, GroupFeed)
		default:
			return nil, fmt.Errorf("unknown grouping %q, use: d, f, df, fd", mode)
		}
	}
	return keys, nil
}

// Styles carries the lipgloss styles for post rendering. The zero value
// renders plain text.
type Styles struct {
	Header    lipgloss.Style
	Shorthand lipgloss.Style
	Date      lipgloss.Style
	FeedMeta  lipgloss.Style
}

// NewStyles returns colored styles, or the plain zero styles when
// colored is false.
func NewStyles(colored bool) Styles {
	if !colored {
		return Styles{}
	}
	return Styles{
		Header:    lipgloss.NewStyle().Bold(true),
		Shorthand: lipgloss.NewStyle().Bold(true),
		Date:      lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		FeedMeta:  lipgloss.NewStyle().Faint(true).Italic(true),
	}
}

// ColorEnabled decides whether styled output should be produced:
// disabled by configuration, when stdout is not a terminal, or when the
// terminal advertises no color support.
func ColorEnabled(noColor bool) bool {
	if noColor {
		return false
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return false
	}
	return termenv.EnvColorProfile() != termenv.Ascii
}

// TerminalWidth returns the stdout width, or 0 when unknown.
func TerminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0
	}
	return w
}

// RenderOptions controls post rendering.
type RenderOptions struct {
	Styles Styles
	// Width truncates lines when positive.
	Width int
}

func formatDate(p model.Post) string {
	if p.Published == nil {
		return "unknown"
	}
	return p.Published.Format("2006-01-02")
}

func groupValue(key GroupKey, p model.Post, labels map[string]string) string {
	switch key {
	case GroupFeed:
		if label, ok := labels[p.Link]; ok {
			return label
		}
		return p.Link
	default:
		return formatDate(p)
	}
}

// groupLess orders posts within one grouping level: dates newest first,
// feed labels alphabetical.
func groupLess(key GroupKey, a, b model.Post, labels map[string]string) bool {
	if key == GroupDate {
		return formatDate(b) < formatDate(a)
	}
	return groupValue(key, a, labels) < groupValue(key, b, labels)
}

func containsKey(keys []GroupKey, k GroupKey) bool {
	for _, key := range keys {
		if key == k {
			return true
		}
	}
	return false
}

// formatItem renders one post line. Grouped-away fields are omitted:
// inside a date group the date repeats in the header, not per line.
func formatItem(p model.Post, grouped []GroupKey, sh string, labels map[string]string, st Styles) string {
	var b strings.Builder
	if !containsKey(grouped, GroupDate) {
		b.WriteString(st.Date.Render(formatDate(p)))
		b.WriteString("  ")
	}
	b.WriteString(st.Shorthand.Render(sh))
	b.WriteString(" ")
	b.WriteString(p.Title)
	if !containsKey(grouped, GroupFeed) {
		label := p.Link
		if l, ok := labels[p.Link]; ok {
			label = l
		}
		b.WriteString(" ")
		b.WriteString(st.FeedMeta.Render("(" + label + ")"))
	}
	return b.String()
}

// RenderPosts renders posts nested by the grouping keys. Top-level
// groups get "=== X ===" headers, nested ones "--- X ---", each level
// indented two spaces deeper.
func RenderPosts(pi PostIndex, keys []GroupKey, labels map[string]string, opts RenderOptions) string {
	var b strings.Builder
	renderLevel(&b, pi.Posts, keys, keys, pi.Shorthands, labels, opts.Styles)
	out := b.String()
	if opts.Width > 0 {
		out = clipLines(out, opts.Width)
	}
	return out
}

func renderLevel(b *strings.Builder, posts []model.Post, remaining, all []GroupKey, shorthands, labels map[string]string, st Styles) {
	depth := len(all) - len(remaining)
	indent := strings.Repeat("  ", depth)

	if len(remaining) == 0 {
		for _, p := range posts {
			fmt.Fprintf(b, "%s%s\n", indent, formatItem(p, all, shorthands[p.Id], labels, st))
		}
		return
	}

	key, rest := remaining[0], remaining[1:]
	sorted := make([]model.Post, len(posts))
	copy(sorted, posts)
	sort.SliceStable(sorted, func(i, j int) bool { return groupLess(key, sorted[i], sorted[j], labels) })

	prefix, suffix := "--- ", " ---"
	if depth == 0 {
		prefix, suffix = "=== ", " ==="
	}

	for start := 0; start < len(sorted); {
		val := groupValue(key, sorted[start], labels)
		end := start
		for end < len(sorted) && groupValue(key, sorted[end], labels) == val {
			end++
		}

		fmt.Fprintf(b, "%s%s\n", indent, st.Header.Render(prefix+val+suffix))
		if depth == 0 {
			b.WriteString("\n")
		}
		renderLevel(b, sorted[start:end], rest, all, shorthands, labels, st)
		if depth == 0 {
			b.WriteString("\n\n")
		} else {
			b.WriteString("\n")
		}

		start = end
	}
}

// clipLines truncates each line to width terminal cells, ANSI-aware.
func clipLines(s string, width int) string {
	trunc := lipgloss.NewStyle().MaxWidth(width)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = trunc.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}
