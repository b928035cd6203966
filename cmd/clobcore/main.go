package main

import (
	"os"

	"github.com/openalpha/clobcore/cmd/clobcore/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
