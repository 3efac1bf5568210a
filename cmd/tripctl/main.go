package main

import (
	"os"

	"github.com/dukerupert/tripquest/internal/cli"
)

func main() {
	if err := cli.Execute(os.Stderr); err != nil {
		os.Exit(1)
	}
}
