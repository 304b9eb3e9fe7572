package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/burrowfeed/burrow/internal/store"
	"github.com/burrowfeed/burrow/internal/ui"
)

var (
	addAlias     string
	feedLsFormat string
)

var feedCmd = &cobra.Command{
	Use:     "feed",
	GroupID: "feeds",
	Short:   "Manage feed subscriptions",
}

var feedAddCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Subscribe to a feed by URL",
	Long: `Subscribe to an RSS or Atom feed.

The feed id derives from the canonicalized URL, so re-adding the same
feed (even with tracking parameters attached) updates the existing
subscription instead of duplicating it.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		env := openEnv()
		s := env.newSyncer(nil)

		feed, err := s.Add(args[0], addAlias)
		if err != nil {
			fail("%v", err)
		}
		fmt.Printf("Subscribed to %s\n", feed.URL)
		if feed.Alias != "" {
			fmt.Printf("  alias: @%s\n", feed.Alias)
		}
	},
}

var feedRmCmd = &cobra.Command{
	Use:   "rm <feed>",
	Short: "Unsubscribe from a feed",
	Long: `Unsubscribe from a feed addressed by URL, id, unambiguous id prefix,
or @alias. The feed's posts are removed with it.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		env := openEnv()
		s := env.newSyncer(nil)

		feed, posts, err := s.Remove(args[0])
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				fail("no feed matches %q", args[0])
			}
			fail("%v", err)
		}
		fmt.Printf("Unsubscribed from %s (%d posts removed)\n", feed.URL, posts)
	},
}

var feedLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List subscribed feeds",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		env := openEnv()
		s := env.newSyncer(nil)

		feeds, err := s.List()
		if err != nil {
			fail("%v", err)
		}
		if len(feeds) == 0 {
			fail("no feeds subscribed")
		}

		fi := ui.BuildFeedIndex(feeds)
		switch feedLsFormat {
		case "", "plain":
			fmt.Print(ui.RenderFeedList(fi))
		case "yaml":
			data, err := ui.FeedsYAML(fi)
			if err != nil {
				fail("%v", err)
			}
			os.Stdout.Write(data)
		default:
			fail("unknown format %q, use plain or yaml", feedLsFormat)
		}
	},
}

func init() {
	feedAddCmd.Flags().StringVar(&addAlias, "alias", "", "memorable name for the feed (@alias)")
	feedLsCmd.Flags().StringVar(&feedLsFormat, "format", "plain", "output format: plain or yaml")

	feedCmd.AddCommand(feedAddCmd)
	feedCmd.AddCommand(feedRmCmd)
	feedCmd.AddCommand(feedLsCmd)
	rootCmd.AddCommand(feedCmd)
}
