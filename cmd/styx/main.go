package main

import (
	"os"

	"styx/cmd/styx/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
