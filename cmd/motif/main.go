// Command motif is a thin CLI wrapper around the motif package: render a
// template against JSON data, or dump a template's parsed structure.
package main

import (
	"fmt"
	"os"

	"github.com/motif-lang/motif/cmd/motif/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
