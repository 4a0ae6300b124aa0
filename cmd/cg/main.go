package main

import (
	"os"

	"github.com/careguide/careguide-cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
