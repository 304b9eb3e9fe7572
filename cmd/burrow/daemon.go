package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/burrowfeed/burrow/internal/config"
	"github.com/burrowfeed/burrow/internal/daemon"
	"github.com/burrowfeed/burrow/internal/vcs/git"
)

var daemonInterval time.Duration

var daemonCmd = &cobra.Command{
	Use:     "daemon",
	GroupID: "sync",
	Short:   "Sync continuously in the background",
	Long: `Run sync on an interval and watch the table directories, so records
written by other tools (or a manual git pull) are picked up and
published without waiting for the next tick.`,
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

		d, err := daemon.New(func(ctx context.Context) error {
			_, err := s.Sync(ctx)
			return err
		}, []string{env.db.Feeds.Dir(), env.db.Posts.Dir()}, daemon.Config{
			SyncInterval: daemonInterval,
		})
		if err != nil {
			fail("%v", err)
		}

		if err := d.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			fail("%v", err)
		}
	},
}

func init() {
	daemonCmd.Flags().DurationVar(&daemonInterval, "interval", 15*time.Minute, "time between scheduled syncs")
	rootCmd.AddCommand(daemonCmd)
}
