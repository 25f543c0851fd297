package main

import (
	"context"
	"os"

	"github.com/tdcjreform/community/cmd/function-deployer/commands"
	"github.com/tdcjreform/community/internal/di"
	"github.com/urfave/cli/v2"
)

func main() {
	logger := di.ProvideLogger()
	ctx := logger.WithContext(context.Background())

	app := &cli.App{
		Name:  "function-deployer",
		Usage: "Deploy Google Cloud Functions from GitHub push webhooks",
		Description: `Receives GitHub push webhooks, clones the pushed repository, zips each
configured subdirectory, uploads the archives to Cloud Storage and creates or
updates the matching Cloud Functions.

This tool provides commands for:
  - Serving the webhook endpoint
  - Deploying a repository by hand
  - Printing the effective configuration`,
		Commands: []*cli.Command{
			commands.ServeCommand(&logger),
			commands.DeployCommand(&logger),
			commands.ConfigCommand(&logger),
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		logger.Error().Err(err).Msg("Application error")
		os.Exit(1)
	}
}
