// Package cli wires the docserver root command and its serve/index
// subcommands, grounded on the teacher's internal/adapters/driving/cli
// package layout (one file per subcommand, package-level rootCmd) and
// hypnagonia-rag's internal/cli/root.go (PersistentPreRunE config loading,
// Execute/os.Exit idiom).
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/docsearch-mcp/docserver/internal/logger"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "docserver",
	Short: "Documentation retrieval MCP service",
	Long: `docserver indexes product documentation into a hybrid vector+lexical
collection and serves it to AI assistants over the Model Context Protocol.

Examples:
  docserver index --product spreadjs      # run the offline ingestion pipeline
  docserver serve                         # run the HTTP server`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.Init(logLevel, false)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", envOrDefault("LOG_LEVEL", "info"), "log level (debug, info, warn, error)")
}

func envOrDefault(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}
