// Command ingestor is the entry point for the course material ingestion
// service. It provides a Cobra CLI with a `serve` subcommand that runs
// the ingestion job engine's HTTP Submission API.
package main

import (
	"fmt"
	"os"

	"github.com/coursevault/ingestor-go/cmd/ingestor/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
