// Package main is the entry point for the premium CLI.
package main

import (
	"os"

	"premium-estimator/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
