// Package cmd wires the spacectl command tree.
package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var (
	flagAPIURL string
	flagDebug  bool
)

var rootCmd = &cobra.Command{
	Use:   "spacectl",
	Short: "electisSpace command-line client",
	Long: `spacectl is the command-line client for the electisSpace platform.
It manages your session (login with email verification, silent restore,
background revalidation), your active company/store context, and the
AIMS/SoluM connectivity bootstrap for the active store.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command under ctx so Ctrl+C cancels
// in-flight API calls.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagAPIURL, "api-url", "", "API server URL (overrides config and SPACECTL_API_URL)")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
}
