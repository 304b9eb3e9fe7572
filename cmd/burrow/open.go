package main

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/burrowfeed/burrow/internal/ui"
)

var openPrint bool

var openCmd = &cobra.Command{
	Use:     "open <shorthand>",
	GroupID: "read",
	Short:   "Open a post in the browser",
	Long: `Open a post's link, addressed by the shorthand shown in post
listings, the full post id, or an unambiguous id prefix.

$BROWSER is honored first and runs attached to the terminal, so
text-mode browsers work. Otherwise the platform opener is used
(xdg-open on Linux, open on macOS). With --print the link is written
to stdout instead.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		env := openEnv()
		posts, err := env.db.Posts.Items()
		if err != nil {
			fail("%v", err)
		}

		pi := ui.BuildPostIndex(posts)
		post, err := pi.Resolve(args[0])
		if err != nil {
			fail("%v", err)
		}
		if post.URL == "" {
			fail("post has no link")
		}

		if openPrint {
			fmt.Println(post.URL)
			return
		}
		if err := openInBrowser(post.URL); err != nil {
			fail("%v", err)
		}
		fmt.Fprintf(os.Stderr, "Opened in browser: %s\n", post.URL)
	},
}

// openInBrowser launches the user's browser on url. $BROWSER runs in
// the foreground with the terminal attached.
func openInBrowser(url string) error {
	if browser := os.Getenv("BROWSER"); browser != "" {
		cmd := exec.Command(browser, url)
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("%s: %w", browser, err)
		}
		return nil
	}

	opener := "xdg-open"
	if runtime.GOOS == "darwin" {
		opener = "open"
	}
	if err := exec.Command(opener, url).Start(); err != nil {
		return fmt.Errorf("could not open URL: %w", err)
	}
	return nil
}

func init() {
	openCmd.Flags().BoolVar(&openPrint, "print", false, "print the link instead of opening it")
	rootCmd.AddCommand(openCmd)
}
