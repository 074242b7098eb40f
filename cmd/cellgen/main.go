// Package main provides the cellgen command.
package main

import (
	"os"

	"github.com/leapstack-labs/cellgen/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
