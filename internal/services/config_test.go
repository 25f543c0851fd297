package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/tdcjreform/community/internal/errors"
	"github.com/tdcjreform/community/internal/models"
)

const sampleConfig = `
project_id: file-project
bucket: deploy-artifacts
secret: s3cr3t
poll_interval: 250ms
deployments:
  - repository: acme/functions
    path: hello
    function: hello
    location: us-central1
    runtime: nodejs20
    entry_point: handler
  - repository: acme/functions
    function: root
    location: europe-west1
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestFileConfigStore(t *testing.T) {
	ctx := context.Background()

	t.Run("loads yaml with defaults", func(t *testing.T) {
		t.Setenv("GCLOUD_PROJECT", "")
		t.Setenv("GOOGLE_CLOUD_PROJECT", "")

		config, err := NewFileConfigStore(writeConfig(t, sampleConfig)).GetConfig(ctx)
		require.NoError(t, err)

		assert.Equal(t, "file-project", config.ProjectID)
		assert.Equal(t, "deploy-artifacts", config.Bucket)
		assert.Equal(t, "s3cr3t", config.Secret)
		assert.Equal(t, 250*time.Millisecond, config.PollInterval)
		assert.Equal(t, uint64(DefaultPollMaxRetries), config.PollMaxRetries)
		assert.Equal(t, DefaultCloneBaseURL, config.CloneBaseURL)
		assert.Equal(t, DefaultCloneDepth, config.CloneDepth)
		assert.Equal(t, DefaultRateLimitPerMin, config.RateLimitPerMin)
		assert.NotEmpty(t, config.ScratchDir)

		require.Len(t, config.Deployments, 2)
		assert.Equal(t, models.Deployment{
			Repository: "acme/functions",
			Path:       "hello",
			Function:   "hello",
			Location:   "us-central1",
			Runtime:    "nodejs20",
			EntryPoint: "handler",
		}, config.Deployments[0])
		assert.Equal(t, ".", config.Deployments[1].Path)
		assert.NoError(t, config.Validate())
	})

	t.Run("environment overrides file", func(t *testing.T) {
		t.Setenv("GCLOUD_PROJECT", "env-project")
		t.Setenv("WEBHOOK_SECRET", "env-secret")
		t.Setenv("POLL_MAX_RETRIES", "10")

		config, err := NewFileConfigStore(writeConfig(t, sampleConfig)).GetConfig(ctx)
		require.NoError(t, err)

		assert.Equal(t, "env-project", config.ProjectID)
		assert.Equal(t, "env-secret", config.Secret)
		assert.Equal(t, uint64(10), config.PollMaxRetries)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := NewFileConfigStore(filepath.Join(t.TempDir(), "missing.yaml")).GetConfig(ctx)
		assert.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := NewFileConfigStore(writeConfig(t, "deployments: [")).GetConfig(ctx)
		assert.Error(t, err)
	})

	t.Run("invalid poll interval", func(t *testing.T) {
		t.Setenv("POLL_INTERVAL", "soon")
		_, err := NewFileConfigStore(writeConfig(t, sampleConfig)).GetConfig(ctx)
		assert.Error(t, err)
	})
}

func TestEnvConfigStore(t *testing.T) {
	t.Setenv("GCLOUD_PROJECT", "")
	t.Setenv("GOOGLE_CLOUD_PROJECT", "gcp-project")
	t.Setenv("GCS_BUCKET", "bucket")
	t.Setenv("WEBHOOK_SECRET", "secret")
	t.Setenv("DEPLOYMENTS", `[{"repository":"acme/api","path":"fn","function":"api","location":"us-east1"}]`)

	config, err := NewEnvConfigStore().GetConfig(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "gcp-project", config.ProjectID)
	assert.Equal(t, "bucket", config.Bucket)
	require.Len(t, config.Deployments, 1)
	assert.Equal(t, "acme/api", config.Deployments[0].Repository)
	assert.Equal(t, "fn", config.Deployments[0].Path)
	assert.NoError(t, config.Validate())
}

func TestConfigValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			ProjectID: "p",
			Bucket:    "b",
			Secret:    "s",
			Deployments: []models.Deployment{
				{Repository: "acme/api", Function: "api", Location: "us-east1"},
			},
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   error
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing secret", mutate: func(c *Config) { c.Secret = "" }, want: apperrors.ErrSecretRequired},
		{name: "missing project", mutate: func(c *Config) { c.ProjectID = "" }, want: apperrors.ErrProjectRequired},
		{name: "missing bucket", mutate: func(c *Config) { c.Bucket = "" }, want: apperrors.ErrBucketRequired},
		{name: "no deployments", mutate: func(c *Config) { c.Deployments = nil }, want: apperrors.ErrNoDeployments},
		{name: "deployment without function", mutate: func(c *Config) { c.Deployments[0].Function = "" }, want: apperrors.ErrInvalidDeployment},
		{name: "deployment without location", mutate: func(c *Config) { c.Deployments[0].Location = "" }, want: apperrors.ErrInvalidDeployment},
		{name: "deployment without repository", mutate: func(c *Config) { c.Deployments[0].Repository = "" }, want: apperrors.ErrInvalidDeployment},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valid()
			tt.mutate(&config)
			err := config.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
