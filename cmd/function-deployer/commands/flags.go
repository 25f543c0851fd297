package commands

import (
	"github.com/rs/zerolog"
	"github.com/tdcjreform/community/internal/di"
	"github.com/urfave/cli/v2"
)

const (
	configFlagName = "config"
	envFlagName    = "env"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    configFlagName,
		Aliases: []string{"c"},
		Usage:   "Path to YAML configuration; environment variables are used when omitted",
		EnvVars: []string{"CONFIG_FILE"},
	}
}

func envFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    envFlagName,
		Aliases: []string{"e"},
		Usage:   "Environment name added to every log line",
		EnvVars: []string{"ENV"},
	}
}

// newContainer builds the DI container shared by all commands
func newContainer(c *cli.Context, logger *zerolog.Logger, opts ...di.Option) (di.Container, error) {
	opts = append([]di.Option{
		di.WithConfigPath(c.String(configFlagName)),
		di.WithProviders(func() zerolog.Logger { return *logger }),
	}, opts...)
	return di.New(c.String(envFlagName), opts...)
}
