package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/r1shah/deskai-go/internal/logging"
)

// NewAgentsCmd constructs the `deskai agents` command, which lists the
// configured agents and their index readiness.
func NewAgentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "agents",
		Short: "List configured agents and their index status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			stk, closeStack, err := buildStack(log)
			if err != nil {
				return fmt.Errorf("agents: %w", err)
			}
			defer closeStack()

			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tTICKETS\tREADY")
			for _, st := range stk.indexer.AllStatuses(ctx) {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%t\n", st.ID, st.Name, st.TicketsCount, st.IsReady)
			}
			return tw.Flush() //nolint:wrapcheck // CLI entry point — error goes directly to cobra
		},
	}
}
