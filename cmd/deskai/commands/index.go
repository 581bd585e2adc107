package commands

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/spf13/cobra"

	"github.com/r1shah/deskai-go/internal/logging"
)

// NewIndexCmd constructs the `deskai index` command, which populates the
// per-agent ticket collections in the vector store.
func NewIndexCmd() *cobra.Command {
	var force bool
	var agentID string

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Index resolved tickets into the vector store",
		Long: `Load each agent's resolved-ticket data source, embed the ticket text,
and upsert it into the agent's Qdrant collection.

By default collections that already hold tickets are left untouched.
--force clears each collection first and rebuilds it from the data
source, which is required after editing ticket files in place.

Required environment variables:
  QDRANT_HOST          Qdrant server hostname (default: localhost)
  QDRANT_PORT          Qdrant gRPC port (default: 6334)
  QDRANT_API_KEY       Optional API key for authenticated clusters
  MODEL_PROVIDER       Embedding backend: ollama, openai, azure (default: ollama)
  DESKAI_AGENTS_FILE   Agent roster YAML (default: configs/agents.yaml)
  DESKAI_DATA_DIR      Directory for relative ticket data paths

Examples:
  deskai index
  deskai index --force
  deskai index --agent it-support --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			stk, closeStack, err := buildStack(log)
			if err != nil {
				return fmt.Errorf("index: %w", err)
			}
			defer closeStack()

			if agentID != "" {
				count, err := stk.indexer.Reindex(ctx, agentID, force)
				if err != nil {
					return fmt.Errorf("index: %w", err)
				}
				fmt.Printf("%s: %d tickets indexed\n", agentID, count)
				return nil
			}

			counts := stk.indexer.IndexAll(ctx, force)

			ids := make([]string, 0, len(counts))
			for id := range counts {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			for _, id := range ids {
				fmt.Printf("%s: %d tickets indexed\n", id, counts[id])
			}

			log.Info("indexing complete", slog.Int("agents", len(counts)))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Clear each collection and rebuild from the data source")
	cmd.Flags().StringVarP(&agentID, "agent", "a", "", "Index a single agent instead of the full roster")

	return cmd
}
