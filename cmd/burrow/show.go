package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/burrowfeed/burrow/internal/ui"
)

var showCmd = &cobra.Command{
	Use:     "show [grouping] [@feed]",
	GroupID: "read",
	Short:   "Display posts",
	Long: `Display posts, newest first.

A grouping argument nests the list: d by date, f by feed, df and fd
for both levels in either order. An @ argument filters to one feed,
addressed by display shorthand, alias, full id or unambiguous id
prefix. The two may be combined in any order:

  burrow show d
  burrow show f @a
  burrow show @a df`,
	Args: cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runShow(args)
	},
}

// parseShowArgs splits positional arguments into a grouping mode and an
// optional @feed filter.
func parseShowArgs(args []string) (group, filter string, err error) {
	for _, arg := range args {
		if strings.HasPrefix(arg, "@") {
			filter = arg
			continue
		}
		if group != "" {
			return "", "", fmt.Errorf("multiple grouping arguments: %q and %q, use a single one like %q", group, arg, group+arg)
		}
		group = arg
	}
	return group, filter, nil
}

func runShow(args []string) {
	group, filter, err := parseShowArgs(args)
	if err != nil {
		fail("%v", err)
	}
	keys, err := ui.ParseGrouping(group)
	if err != nil {
		fail("%v", err)
	}

	env := openEnv()
	feeds, err := env.db.Feeds.Items()
	if err != nil {
		fail("%v", err)
	}
	posts, err := env.db.Posts.Items()
	if err != nil {
		fail("%v", err)
	}

	fi := ui.BuildFeedIndex(feeds)
	if filter != "" {
		feedID, err := fi.Resolve(filter)
		if err != nil {
			fail("%v", err)
		}
		kept := posts[:0]
		for _, p := range posts {
			if p.Link == feedID {
				kept = append(kept, p)
			}
		}
		posts = kept
	}
	if len(posts) == 0 {
		fail("no matching posts")
	}

	pi := ui.BuildPostIndex(posts)
	opts := ui.RenderOptions{
		Styles: ui.NewStyles(ui.ColorEnabled(env.cfg.NoColor)),
		Width:  ui.TerminalWidth(),
	}
	fmt.Print(ui.RenderPosts(pi, keys, fi.Labels(), opts))
}

func init() {
	rootCmd.AddCommand(showCmd)
}
