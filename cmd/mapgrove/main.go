package main

import (
	"os"

	"github.com/mapgrove/mapgrove/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
