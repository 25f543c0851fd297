package commands

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/tdcjreform/community/internal/di"
	"github.com/tdcjreform/community/internal/orchestrator"
	"github.com/urfave/cli/v2"
)

// DeployCommand returns the deploy command that runs the pipeline for one repository
func DeployCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:    "deploy",
		Aliases: []string{"d"},
		Usage:   "Deploy every function configured for a repository",
		Description: `Runs the same pipeline as a push webhook, without signature validation.

Examples:
  function-deployer deploy --config config.yaml --repo acme/functions`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "repo",
				Aliases:  []string{"r"},
				Usage:    "Repository as owner/name",
				Required: true,
			},
			configFlag(),
			envFlag(),
		},
		Action: func(c *cli.Context) error {
			container, err := newContainer(c, logger)
			if err != nil {
				return fmt.Errorf("failed to setup DI container: %w", err)
			}

			o, err := di.Get[*orchestrator.Orchestrator](container)
			if err != nil {
				return fmt.Errorf("failed to create orchestrator: %w", err)
			}

			ctx := logger.WithContext(c.Context)
			results, err := o.DeployRepository(ctx, c.String("repo"))
			if err != nil {
				return err
			}

			data, err := json.MarshalIndent(results, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal results: %w", err)
			}

			_, err = fmt.Fprintln(c.App.Writer, string(data))
			return err
		},
	}
}
