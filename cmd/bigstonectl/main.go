package main

import (
	"os"

	"github.com/localnerve/bigstone-community/cmd/bigstonectl/commands"
)

// Version information - set during build
var version = "dev"

func main() {
	commands.SetVersion(version)

	// Errors are printed by the commands with color formatting
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
