package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/burrowfeed/burrow/internal/config"
	"github.com/burrowfeed/burrow/internal/fetch"
	"github.com/burrowfeed/burrow/internal/syncer"
	"github.com/burrowfeed/burrow/internal/vcs/git"
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	GroupID: "sync",
	Short:   "Fetch feeds, merge and reconcile with the remote",
	Long: `Fetch every subscribed feed in parallel, merge new posts into the
local tables, commit the change, and exchange records with the git
remote if one is configured.

Fetched data is durable before any remote step runs. Individual feed
failures are reported but don't abort the batch; the exit status is
non-zero only when every feed failed or a storage/remote step failed.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		env := openEnv()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		g, err := git.OpenOrInit(ctx, env.root)
		if err != nil {
			fail("preparing repository: %v", err)
		}
		if err := config.WriteMarker(env.root); err != nil {
			fail("%v", err)
		}
		s := env.newSyncer(g)

		stats, err := s.Sync(ctx)
		printSyncStats(stats)

		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			if !partialFeedFailure(stats, err) {
				os.Exit(1)
			}
		}
	},
}

func printSyncStats(stats syncer.Stats) {
	fetched := stats.FeedsTotal - stats.FeedsFailed
	fmt.Printf("Fetched %d/%d feeds: %d new posts, %d updated\n",
		fetched, stats.FeedsTotal, stats.Posts.Inserted, stats.Posts.Updated)
	if stats.Pushed {
		fmt.Println("Pushed to remote")
	}
}

// partialFeedFailure reports whether err consists solely of per-feed
// fetch errors while at least one feed succeeded. That outcome is
// degraded, not failed.
func partialFeedFailure(stats syncer.Stats, err error) bool {
	if stats.FeedsTotal == 0 || stats.FeedsFailed == 0 || stats.FeedsFailed >= stats.FeedsTotal {
		return false
	}

	var merr *multierror.Error
	if !errors.As(err, &merr) {
		var fe *fetch.FeedError
		return errors.As(err, &fe)
	}
	for _, wrapped := range merr.WrappedErrors() {
		var fe *fetch.FeedError
		if !errors.As(wrapped, &fe) {
			return false
		}
	}
	return true
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
