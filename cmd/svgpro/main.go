// Package main provides the entry point for the svgpro CLI.
package main

import (
	"fmt"
	"os"

	"github.com/svgpro/svgpro/cmd/svgpro/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
