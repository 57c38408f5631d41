package main

import (
	"os"

	"github.com/joseph-ayodele/optimo/cmd/optimo/commands"
)

// Version information - set during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)

	// Diagnostics are printed by the commands themselves.
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
