package main

import (
	"github.com/spf13/cobra"
)

// newRootCommand creates a fresh command tree so tests do not share state.
func newRootCommand() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "catalogsync",
		Short: "Plugin catalog and popularity cache synchronizer",
		Long: `catalogsync maintains a locally persisted plugin catalog enriched with
repository star counts, refreshing stars in rate-limit-aware batches.

Examples:
   catalogsync catalog                 # Print the catalog, refreshing it if stale
   catalogsync refresh-stars           # Fetch stars for repositories without any
   catalogsync update-stars a/b c/d    # Fetch stars for specific repositories
   catalogsync rate-limit              # Show the popularity API quota
   catalogsync serve                   # Serve the HTTP API`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&a.configFile, "config", "", "Config file (default: ./catalogsync.yaml)")
	cmd.PersistentFlags().String("data-dir", "", "Directory holding the catalog snapshot and token file")
	cmd.PersistentFlags().String("log-level", "", "Set log level (debug|info|warn|error)")
	cmd.PersistentFlags().Bool("json-logs", false, "Output logs in JSON format")

	cmd.AddCommand(
		newServeCommand(a),
		newCatalogCommand(a),
		newRefreshStarsCommand(a),
		newUpdateStarsCommand(a),
		newRateLimitCommand(a),
	)

	return cmd
}
