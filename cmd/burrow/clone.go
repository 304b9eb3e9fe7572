package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/burrowfeed/burrow/internal/config"
	"github.com/burrowfeed/burrow/internal/syncer"
)

var cloneCmd = &cobra.Command{
	Use:     "clone <remote> [dir]",
	GroupID: "sync",
	Short:   "Clone an existing database from a git remote",
	Long: `Clone a database published by another machine.

The remote accepts the user/repo shorthand for GitHub
(alice/notes becomes git@github.com:alice/notes.git) as well as any
full git URL or local path. Without a target directory the database
root is used; it must be empty.`,
	Args: cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		target := ""
		if len(args) == 2 {
			target = args[1]
		}
		root, err := config.ResolveRoot(firstNonEmpty(target, dbFlag))
		if err != nil {
			fail("%v", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := syncer.Clone(ctx, args[0], root); err != nil {
			fail("%v", err)
		}
		fmt.Printf("Cloned into %s\n", root)
	},
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func init() {
	rootCmd.AddCommand(cloneCmd)
}
