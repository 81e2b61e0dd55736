package main

import (
	"context"
	"os"

	"github.com/brettbedarf/memvfs/internal/cli"
)

func main() {
	if err := cli.Execute(context.Background()); err != nil {
		// cobra already printed the error
		os.Exit(1)
	}
}
