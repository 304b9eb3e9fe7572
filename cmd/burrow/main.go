// Command burrow is a git-synced, local-first feed reader. Records
// live in sharded JSONL tables under the database root; sync fetches
// subscribed feeds in parallel, merges the results and reconciles with
// a git remote.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/burrowfeed/burrow/internal/config"
	"github.com/burrowfeed/burrow/internal/fetch"
	"github.com/burrowfeed/burrow/internal/model"
	"github.com/burrowfeed/burrow/internal/syncer"
	"github.com/burrowfeed/burrow/internal/vcs"
)

var (
	dbFlag    string
	debugFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "burrow",
	Short: "A git-synced, local-first feed reader",
	Long: `burrow keeps your RSS/Atom subscriptions in a plain-file database
that syncs between machines through git.

Run without a subcommand to show posts:

  burrow           flat list, newest first
  burrow d         grouped by date
  burrow f @a      grouped by feed, filtered to feed @a`,
	Args: cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runShow(args)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbFlag, "db", "", "database root (default: $BURROW_DB, nearest burrow.yml, or the user data dir)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "verbose logging")

	rootCmd.AddGroup(
		&cobra.Group{ID: "feeds", Title: "Subscriptions:"},
		&cobra.Group{ID: "sync", Title: "Synchronization:"},
		&cobra.Group{ID: "read", Title: "Reading:"},
	)
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
}

// fail prints an error for the user and exits. Exit code 1 covers all
// command failures.
func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

// appEnv bundles what every command needs: the resolved database root,
// its configuration and the open tables.
type appEnv struct {
	root string
	cfg  *config.Config
	db   *model.DB
}

// openEnv resolves the database root, loads configuration, sets up
// logging and opens the tables. Any failure here is fatal.
func openEnv() *appEnv {
	root, err := config.ResolveRoot(dbFlag)
	if err != nil {
		fail("%v", err)
	}
	cfg, err := config.Load(root)
	if err != nil {
		fail("%v", err)
	}
	cfg.SetupLogging(debugFlag)

	db, err := model.OpenDB(root)
	if err != nil {
		fail("opening database at %s: %v", root, err)
	}
	return &appEnv{root: root, cfg: cfg, db: db}
}

// newSyncer wires the fetch coordinator for this environment. Commands
// that talk to git pass a transport; subscription management passes nil.
func (e *appEnv) newSyncer(transport vcs.Transport) *syncer.Syncer {
	coord := fetch.NewCoordinator(
		fetch.NewHTTPFetcher("burrow/"+version),
		e.cfg.Concurrency,
		e.cfg.FetchTimeout,
		e.db.LookupFallback,
	)
	return syncer.New(e.db, coord, transport)
}
