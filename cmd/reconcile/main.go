// Command reconcile diffs, applies and verifies positional patches between
// HTML trees, and serves a demo component over a websocket.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vango-dev/reconcile/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.FprintError(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var noColor bool

	rootCmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Positional virtual-tree reconciler",
		Long: `reconcile computes positional patches between two HTML trees and
applies them to a live document.

  • diff     compute the patches from one tree to another
  • apply    apply patches to a document
  • verify   check that applying the diff reproduces the target tree
  • serve    run the live demo server`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if noColor {
				errors.DisableColors()
			}
			// A missing .env is fine.
			if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
				return err
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(
		diffCmd(),
		applyCmd(),
		verifyCmd(),
		serveCmd(),
		versionCmd(),
	)
	return rootCmd
}

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
)

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", green("✓"), fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", yellow("⚠"), fmt.Sprintf(format, args...))
}
