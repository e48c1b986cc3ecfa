package main

import (
	"os"

	"github.com/wonny/trishul/cmd/trishul/commands"
)

// main is the entry point for the trishul CLI
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
