package main

import (
	"os"

	"github.com/temirov/forker/cmd/cli"
)

// main executes the forker command-line application.
func main() {
	os.Exit(cli.Run(os.Args, os.Stdin, os.Stdout, os.Stderr))
}
