// Package commands defines all Cobra CLI commands for the deskai binary.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/r1shah/deskai-go/internal/audit"
	"github.com/r1shah/deskai-go/internal/config"
	"github.com/r1shah/deskai-go/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// loadedConfigPath stores the resolved config file path for audit logging.
var loadedConfigPath string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "deskai",
		Short: "DeskAI — AI-powered support chat over your resolved tickets",
		Long: `DeskAI is a support-chat backend that answers user questions from a
knowledge base of previously resolved support tickets.

Each configured agent (IT support, HR, facilities, ...) maintains its own
vector index of resolved tickets. Questions are answered with retrieved
ticket context; when no sufficiently similar ticket exists, the user is
redirected to a human with a create-ticket action link.

Model provider is selected via the MODEL_PROVIDER environment variable
or a YAML config file (~/.deskai/config.yaml).
See 'deskai --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log := logging.New()

			// Load YAML config (env vars always override YAML values).
			path, err := config.Load(configPath, log)
			if err != nil {
				return err
			}
			loadedConfigPath = path

			// Emit structured audit log for every command invocation.
			audit.LogCommandStart(log, cmd.Name(), loadedConfigPath)

			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.deskai/config.yaml)")

	root.AddCommand(
		NewAskCmd(),
		NewServeCmd(),
		NewIndexCmd(),
		NewAgentsCmd(),
		NewVersionCmd(),
	)

	return root
}
