// Command deskai is the entry point for the DeskAI support-chat backend.
// It provides a CLI interface (via Cobra) and an HTTP server exposing the
// question-answering API for frontend integration.
package main

import (
	"fmt"
	"os"

	"github.com/r1shah/deskai-go/cmd/deskai/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
