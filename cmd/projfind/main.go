// Package main is the entry point for the projfind command.
package main

import (
	"fmt"
	"os"

	"github.com/dshills/projfind/internal/cmd"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	cmd.Version, cmd.Commit, cmd.Date = version, commit, date

	root := cmd.NewRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
