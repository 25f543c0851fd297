package commands

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/tdcjreform/community/internal/di"
	"github.com/tdcjreform/community/internal/services"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

const redacted = "********"

// ConfigCommand returns the config command that prints the effective configuration
func ConfigCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Print the effective configuration as YAML",
		Description: `Loads configuration the same way serve does, applies environment overrides
and defaults, and prints the result with secrets redacted.`,
		Flags: []cli.Flag{
			configFlag(),
			envFlag(),
		},
		Action: func(c *cli.Context) error {
			container, err := newContainer(c, logger)
			if err != nil {
				return fmt.Errorf("failed to setup DI container: %w", err)
			}

			store, err := di.Get[services.ConfigStore](container)
			if err != nil {
				return fmt.Errorf("failed to create config store: %w", err)
			}

			config, err := store.GetConfig(c.Context)
			if err != nil {
				return err
			}
			if err := config.Validate(); err != nil {
				logger.Warn().Err(err).Msg("Configuration is not valid")
			}

			data, err := yaml.Marshal(redact(*config))
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}

			_, err = c.App.Writer.Write(data)
			return err
		},
	}
}

func redact(config services.Config) services.Config {
	if config.Secret != "" {
		config.Secret = redacted
	}
	if config.GitHubToken != "" {
		config.GitHubToken = redacted
	}
	return config
}
