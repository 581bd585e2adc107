package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/r1shah/deskai-go/internal/version"
)

// NewVersionCmd constructs the `deskai version` subcommand.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the deskai version, git commit, and build date",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version.String())
		},
	}
}
