// Package main provides the entry point for the collecter CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for collecter.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collecter",
		Short: "Download product catalog images from the web",
		Long: `Collecter reads a CSV product catalog and downloads one image per row
from a public image-search engine.

For each row it resolves ranked candidate URLs, downloads the first one
that works, and verifies that the saved file actually decodes as an image
whose format matches its filename extension, transcoding it when it does
not. Already-downloaded images are skipped, so interrupted runs resume
where they left off.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewCollectCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
