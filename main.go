package main

import (
	"os"

	"github.com/nidhishmalav/career-twin/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
