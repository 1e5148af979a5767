package main

import (
	"os"

	"github.com/petermazzocco/go-presenter/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
