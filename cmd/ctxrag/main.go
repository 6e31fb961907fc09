// Package main provides the entry point for the ctxrag CLI.
package main

import (
	"os"

	"github.com/ctxrag/ctxrag/cmd/ctxrag/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
