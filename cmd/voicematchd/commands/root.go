// Package commands is the cobra command tree for voicematchd, grounded
// on the teacher pack's only cobra example (bbak-mcs-mcp's
// cmd/mcs-mcp/commands/root.go): a package-level rootCmd, an Execute
// entrypoint, and PersistentFlags for cross-cutting options.
package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time via ldflags; "dev" otherwise.
	Version = "dev"

	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "voicematchd",
	Short: "voicematchd runs the voice-call matching engine",
	Long: `voicematchd serves the chat-platform webhook, drives the matching
engine's scheduler loop, and exposes health, metrics, and a read-only
operations dashboard.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging regardless of VOICEMATCH_LOG_LEVEL")
}
