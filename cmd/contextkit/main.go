// Package main provides the entry point for the contextkit CLI.
package main

import (
	"fmt"
	"os"

	"github.com/context-kit/contextkit/cmd/contextkit/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
