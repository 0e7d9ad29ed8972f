package main

import (
	"os"

	"olm/cmd/olm/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
