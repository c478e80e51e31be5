// Package main is the entry point for the osmextract CLI.
package main

import (
	"os"

	"github.com/hupe1980/osmextract/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
