package services

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	apperrors "github.com/tdcjreform/community/internal/errors"
	"github.com/tdcjreform/community/internal/models"
	"gopkg.in/yaml.v3"
)

const (
	DefaultCloneBaseURL    = "https://github.com"
	DefaultCloneDepth      = 1
	DefaultPollInterval    = 500 * time.Millisecond
	DefaultPollMaxRetries  = 600
	DefaultRateLimitPerMin = 60
)

// Config holds all application configuration values
type Config struct {
	ProjectID       string              `yaml:"project_id"`
	Bucket          string              `yaml:"bucket"`
	Secret          string              `yaml:"secret"`
	GitHubToken     string              `yaml:"github_token"`
	CloneBaseURL    string              `yaml:"clone_base_url"`
	CloneDepth      int                 `yaml:"clone_depth"`
	ScratchDir      string              `yaml:"scratch_dir"`
	PollInterval    time.Duration       `yaml:"poll_interval"`
	PollMaxRetries  uint64              `yaml:"poll_max_retries"`
	RateLimitPerMin int                 `yaml:"rate_limit_per_min"`
	CredentialsFile string              `yaml:"credentials_file"`
	Environment     map[string]string   `yaml:"environment,omitempty"` // Defaults for every function
	Deployments     []models.Deployment `yaml:"deployments"`
}

// Validate reports the first missing or malformed required value
func (c *Config) Validate() error {
	if c.Secret == "" {
		return apperrors.ErrSecretRequired
	}
	if c.ProjectID == "" {
		return apperrors.ErrProjectRequired
	}
	if c.Bucket == "" {
		return apperrors.ErrBucketRequired
	}
	if len(c.Deployments) == 0 {
		return apperrors.ErrNoDeployments
	}
	for i, d := range c.Deployments {
		switch {
		case d.Repository == "":
			return fmt.Errorf("%w: deployment %d has no repository", apperrors.ErrInvalidDeployment, i)
		case d.Function == "":
			return fmt.Errorf("%w: deployment %d has no function", apperrors.ErrInvalidDeployment, i)
		case d.Location == "":
			return fmt.Errorf("%w: deployment %d has no location", apperrors.ErrInvalidDeployment, i)
		}
	}
	return nil
}

// ConfigStore defines the interface for loading application configuration
type ConfigStore interface {
	// GetConfig loads the full application configuration
	GetConfig(ctx context.Context) (*Config, error)
}

// FileConfigStore implements ConfigStore using a YAML file, with environment
// variables taking precedence over values in the file
type FileConfigStore struct {
	path string
}

// NewFileConfigStore creates a new YAML file-backed config store
func NewFileConfigStore(path string) *FileConfigStore {
	return &FileConfigStore{path: path}
}

// GetConfig reads and decodes the YAML file, then applies env overrides and defaults
func (s *FileConfigStore) GetConfig(ctx context.Context) (*Config, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", s.path, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", s.path, err)
	}

	if err := applyEnv(&config); err != nil {
		return nil, err
	}
	applyDefaults(&config)

	return &config, nil
}

// EnvConfigStore implements ConfigStore using environment variables only.
// Deployments are read from DEPLOYMENTS as a JSON or YAML list.
type EnvConfigStore struct{}

// NewEnvConfigStore creates a new environment variable-backed config store
func NewEnvConfigStore() *EnvConfigStore {
	return &EnvConfigStore{}
}

// GetConfig loads all application configuration from environment variables
func (e *EnvConfigStore) GetConfig(ctx context.Context) (*Config, error) {
	var config Config
	if raw := os.Getenv("DEPLOYMENTS"); raw != "" {
		if err := yaml.Unmarshal([]byte(raw), &config.Deployments); err != nil {
			return nil, fmt.Errorf("failed to parse DEPLOYMENTS: %w", err)
		}
	}

	if err := applyEnv(&config); err != nil {
		return nil, err
	}
	applyDefaults(&config)

	return &config, nil
}

func applyEnv(config *Config) error {
	setString := func(target *string, names ...string) {
		for _, name := range names {
			if v := os.Getenv(name); v != "" {
				*target = v
				return
			}
		}
	}

	setString(&config.ProjectID, "GCLOUD_PROJECT", "GOOGLE_CLOUD_PROJECT")
	setString(&config.Bucket, "GCS_BUCKET")
	setString(&config.Secret, "WEBHOOK_SECRET")
	setString(&config.GitHubToken, "GITHUB_TOKEN")
	setString(&config.CloneBaseURL, "CLONE_BASE_URL")
	setString(&config.ScratchDir, "SCRATCH_DIR")
	setString(&config.CredentialsFile, "GOOGLE_APPLICATION_CREDENTIALS")

	if v := os.Getenv("POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid POLL_INTERVAL %q: %w", v, err)
		}
		config.PollInterval = d
	}
	if v := os.Getenv("POLL_MAX_RETRIES"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid POLL_MAX_RETRIES %q: %w", v, err)
		}
		config.PollMaxRetries = n
	}
	if v := os.Getenv("RATE_LIMIT_PER_MIN"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_PER_MIN %q: %w", v, err)
		}
		config.RateLimitPerMin = n
	}

	return nil
}

func applyDefaults(config *Config) {
	if config.CloneBaseURL == "" {
		config.CloneBaseURL = DefaultCloneBaseURL
	}
	if config.CloneDepth == 0 {
		config.CloneDepth = DefaultCloneDepth
	}
	if config.ScratchDir == "" {
		config.ScratchDir = os.TempDir()
	}
	if config.PollInterval == 0 {
		config.PollInterval = DefaultPollInterval
	}
	if config.PollMaxRetries == 0 {
		config.PollMaxRetries = DefaultPollMaxRetries
	}
	if config.RateLimitPerMin == 0 {
		config.RateLimitPerMin = DefaultRateLimitPerMin
	}
	for i := range config.Deployments {
		if config.Deployments[i].Path == "" {
			config.Deployments[i].Path = "."
		}
	}
}
