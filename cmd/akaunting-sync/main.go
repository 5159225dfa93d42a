// Package main is the entry point for akaunting-sync CLI.
package main

import (
	"os"

	"github.com/pigeonworks-llc/akaunting-sync/cmd/akaunting-sync/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
