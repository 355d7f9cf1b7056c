package main

import (
	"context"
	"os"

	"github.com/desertthunder/songs/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	runner := NewRunner(RunnerOpts{Logger: logger})

	app := &cli.Command{
		Name:                  "songs",
		Usage:                 "CRUD API over a collection of songs",
		Version:               "0.1.0",
		Commands:              runner.register(),
		DefaultCommand:        "serve",
		EnableShellCompletion: true,
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
