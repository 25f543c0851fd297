package di

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/tdcjreform/community/internal/services"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/cloudfunctions/v1"
	"google.golang.org/api/option"
	"google.golang.org/api/storage/v1"
)

// ProvideGoogleClientOptions resolves credentials for the Google API clients.
// Explicit client options win; otherwise the configured credentials file is
// used, falling back to application default credentials.
func ProvideGoogleClientOptions(ctx context.Context, config *services.Config, overrides ClientOptions) ([]option.ClientOption, error) {
	if len(overrides) > 0 {
		return overrides, nil
	}

	logger := zerolog.Ctx(ctx)

	if config.CredentialsFile != "" {
		data, err := os.ReadFile(config.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
		credentials, err := google.CredentialsFromJSON(ctx, data, cloudfunctions.CloudPlatformScope)
		if err != nil {
			return nil, fmt.Errorf("failed to parse credentials file: %w", err)
		}
		logger.Info().Str("path", config.CredentialsFile).Msg("Using credentials file")
		return []option.ClientOption{option.WithCredentials(credentials)}, nil
	}

	credentials, err := google.FindDefaultCredentials(ctx, cloudfunctions.CloudPlatformScope)
	if err != nil {
		return nil, fmt.Errorf("failed to find default credentials: %w", err)
	}
	logger.Info().Str("credentials_project", credentials.ProjectID).Msg("Using application default credentials")
	return []option.ClientOption{option.WithCredentials(credentials)}, nil
}

func ProvideCloudFunctions(ctx context.Context, opts []option.ClientOption) (*cloudfunctions.Service, error) {
	return cloudfunctions.NewService(ctx, opts...)
}

func ProvideStorage(ctx context.Context, opts []option.ClientOption) (*storage.Service, error) {
	return storage.NewService(ctx, opts...)
}
