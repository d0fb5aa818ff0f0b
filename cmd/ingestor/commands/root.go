// Package commands defines all Cobra CLI commands for the ingestor binary.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/coursevault/ingestor-go/internal/config"
	"github.com/coursevault/ingestor-go/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ingestor",
		Short: "ingestor — the course material ingestion job engine",
		Long: `ingestor runs the background job engine that turns uploaded course
documents into searchable vectors: it downloads a document from blob
storage, extracts its text, chunks and embeds it, and upserts the result
into Qdrant, tracking progress through a durable job record.

Configuration is layered: defaults, then an optional YAML file, then
environment variables (env always wins). See 'ingestor serve --help'.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log := logging.New()
			// Load YAML config (env vars always override YAML values).
			_, err := config.Load(configPath, log)
			return err
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.ingestor/config.yaml)")

	root.AddCommand(
		NewServeCmd(),
		NewSearchCmd(),
		NewVersionCmd(),
	)

	return root
}
