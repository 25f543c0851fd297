package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tdcjreform/community/internal/services"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

const testConfig = `
project_id: my-project
bucket: deploy-artifacts
secret: s3cr3t
github_token: ghp_token
deployments:
  - repository: acme/functions
    path: hello
    function: hello
    location: us-central1
`

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()

	logger := zerolog.Nop()
	var out bytes.Buffer
	app := &cli.App{
		Name:   "function-deployer",
		Writer: &out,
		Commands: []*cli.Command{
			ServeCommand(&logger),
			DeployCommand(&logger),
			ConfigCommand(&logger),
		},
	}

	err := app.RunContext(logger.WithContext(context.Background()), append([]string{"function-deployer"}, args...))
	return out.String(), err
}

func TestConfigCommand(t *testing.T) {
	for _, name := range []string{"GCLOUD_PROJECT", "GOOGLE_CLOUD_PROJECT", "WEBHOOK_SECRET", "GITHUB_TOKEN", "CONFIG_FILE", "ENV"} {
		t.Setenv(name, "")
	}

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o600))

	out, err := runApp(t, "config", "--config", path)
	require.NoError(t, err)

	assert.NotContains(t, out, "s3cr3t")
	assert.NotContains(t, out, "ghp_token")

	var config services.Config
	require.NoError(t, yaml.Unmarshal([]byte(out), &config))
	assert.Equal(t, "my-project", config.ProjectID)
	assert.Equal(t, redacted, config.Secret)
	assert.Equal(t, redacted, config.GitHubToken)
	assert.Equal(t, services.DefaultPollInterval, config.PollInterval)
	require.Len(t, config.Deployments, 1)
	assert.Equal(t, "acme/functions", config.Deployments[0].Repository)
}

func TestDeployCommand_RequiresRepo(t *testing.T) {
	_, err := runApp(t, "deploy")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "repo")
}

func TestRedact(t *testing.T) {
	t.Run("masks secrets", func(t *testing.T) {
		got := redact(services.Config{Secret: "a", GitHubToken: "b", Bucket: "c"})
		assert.Equal(t, redacted, got.Secret)
		assert.Equal(t, redacted, got.GitHubToken)
		assert.Equal(t, "c", got.Bucket)
	})

	t.Run("leaves empty values empty", func(t *testing.T) {
		got := redact(services.Config{})
		assert.Empty(t, got.Secret)
		assert.Empty(t, got.GitHubToken)
	})
}
