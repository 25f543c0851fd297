package di

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/tdcjreform/community/internal/services"
)

// ProvideConfigStore reads the YAML file at path when one is given and the environment otherwise
func ProvideConfigStore(ctx context.Context, path ConfigPath) services.ConfigStore {
	logger := zerolog.Ctx(ctx)

	if path == "" {
		logger.Info().Msg("Using environment variables for configuration")
		return services.NewEnvConfigStore()
	}

	logger.Info().Str("path", string(path)).Msg("Using configuration file")
	return services.NewFileConfigStore(string(path))
}

// ProvideConfig loads and validates the application configuration
func ProvideConfig(ctx context.Context, store services.ConfigStore) (*services.Config, error) {
	logger := zerolog.Ctx(ctx)

	config, err := store.GetConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Info().
		Str("project_id", config.ProjectID).
		Str("bucket", config.Bucket).
		Int("deployments", len(config.Deployments)).
		Bool("has_github_token", config.GitHubToken != "").
		Msg("Configuration loaded successfully")

	return config, nil
}
