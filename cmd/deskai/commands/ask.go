package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/r1shah/deskai-go/internal/chat"
	"github.com/r1shah/deskai-go/internal/logging"
	"github.com/r1shah/deskai-go/internal/provider"
)

// NewAskCmd constructs the `deskai ask` command, which answers a single
// question for one agent and prints the result to stdout.
func NewAskCmd() *cobra.Command {
	var agentID string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a support agent a question",
		Long: `Ask a configured support agent a question from the command line.

The question is answered against the agent's indexed ticket collection,
the same way the HTTP chat endpoint answers it. Useful for smoke-testing
an agent's knowledge base after indexing.

Examples:
  deskai ask --agent it-support "my vpn keeps disconnecting"
  deskai ask --agent hr --json "how much parental leave do I get?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			if agentID == "" {
				return fmt.Errorf("ask: --agent is required")
			}

			chatModel, err := provider.NewFromEnv(ctx)
			if err != nil {
				return fmt.Errorf("ask: failed to initialise model provider: %w", err)
			}

			stk, closeStack, err := buildStack(log)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			defer closeStack()

			orchestrator, err := chat.New(stk.orchestratorConfig(chatModel))
			if err != nil {
				return fmt.Errorf("ask: failed to create orchestrator: %w", err)
			}

			resp, err := orchestrator.Answer(ctx, args[0], agentID)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(resp) //nolint:wrapcheck // CLI entry point — error goes directly to cobra
			}

			fmt.Println(resp.Answer)
			if resp.RequiresHuman {
				fmt.Println("\n(redirected to a human specialist)")
			}
			for _, link := range resp.ActionLinks {
				fmt.Printf("  -> %s: %s\n", link.Label, link.URL)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&agentID, "agent", "a", "", "Agent ID to ask (required)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full response as JSON")

	return cmd
}
