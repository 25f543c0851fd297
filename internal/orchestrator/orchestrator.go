package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	apperrors "github.com/tdcjreform/community/internal/errors"
	"github.com/tdcjreform/community/internal/models"
	"github.com/tdcjreform/community/internal/services"
	"github.com/tdcjreform/community/internal/webhook"
	"golang.org/x/sync/errgroup"
)

// Fetcher clones a repository identified by owner/name into dest
type Fetcher interface {
	Fetch(ctx context.Context, repository, dest string) (string, error)
}

// Archiver packages a directory and returns the archive path
type Archiver interface {
	Archive(ctx context.Context, sourceDir string) (string, error)
}

// Uploader stores an archive in the artifact bucket
type Uploader interface {
	Upload(ctx context.Context, archivePath string) (string, error)
}

// Deployer creates or updates a function from an uploaded archive
type Deployer interface {
	Deploy(ctx context.Context, deployment models.Deployment, archivePath string) (*models.Result, error)
}

// Orchestrator runs the push-to-deploy pipeline for a single request:
// authenticate, match, fetch once, then archive, upload and deploy every
// matched deployment in parallel stages.
type Orchestrator struct {
	secret      string
	deployments []models.Deployment
	scratchDir  string
	fetcher     Fetcher
	archiver    Archiver
	uploader    Uploader
	deployer    Deployer
}

// New creates a new Orchestrator instance
func New(config *services.Config, fetcher Fetcher, archiver Archiver, uploader Uploader, deployer Deployer) *Orchestrator {
	return &Orchestrator{
		secret:      config.Secret,
		deployments: config.Deployments,
		scratchDir:  config.ScratchDir,
		fetcher:     fetcher,
		archiver:    archiver,
		uploader:    uploader,
		deployer:    deployer,
	}
}

// Deployments returns the configured deployments
func (o *Orchestrator) Deployments() []models.Deployment {
	return o.deployments
}

// Authenticate checks the event signature against the shared secret
func (o *Orchestrator) Authenticate(event *models.WebhookEvent) error {
	return webhook.ValidateSignature(event.Body, event.Signature, o.secret)
}

// Deploy authenticates a push event and deploys every function configured for its repository
func (o *Orchestrator) Deploy(ctx context.Context, event *models.WebhookEvent) ([]models.Result, error) {
	if err := o.Authenticate(event); err != nil {
		return nil, err
	}
	if event.Repository == "" {
		if err := webhook.ParsePushEvent(event); err != nil {
			return nil, err
		}
	}
	return o.DeployRepository(ctx, event.Repository)
}

// DeployRepository deploys every function configured for repository. Results
// are returned in configuration order; any failure discards all results.
func (o *Orchestrator) DeployRepository(ctx context.Context, repository string) (results []models.Result, err error) {
	logger := zerolog.Ctx(ctx).With().Str("repository", repository).Logger()
	ctx = logger.WithContext(ctx)

	defer func(begin time.Time) {
		logger.Info().
			Err(err).
			Int("deployed", len(results)).
			Dur("duration", time.Since(begin)).
			Msg("Deployment pipeline completed")
	}(time.Now())

	deployments, err := webhook.MatchDeployments(repository, o.deployments)
	if err != nil {
		return nil, err
	}
	logger.Info().Int("deployments", len(deployments)).Msg("Matched deployments")

	if err := os.MkdirAll(o.scratchDir, 0o755); err != nil {
		return nil, apperrors.NewFetchError(fmt.Errorf("failed to create scratch dir: %w", err))
	}
	workDir, err := os.MkdirTemp(o.scratchDir, "repo-*")
	if err != nil {
		return nil, apperrors.NewFetchError(fmt.Errorf("failed to create clone dir: %w", err))
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			logger.Warn().Err(err).Str("dir", workDir).Msg("Failed to remove clone dir")
		}
	}()

	repoDir, err := o.fetcher.Fetch(ctx, repository, filepath.Join(workDir, "src"))
	if err != nil {
		return nil, err
	}

	archives, err := o.archiveAll(ctx, repoDir, deployments)
	if err != nil {
		return nil, err
	}

	uploaded, err := o.uploadAll(ctx, archives)
	if err != nil {
		return nil, err
	}

	return o.deployAll(ctx, deployments, uploaded)
}

func (o *Orchestrator) archiveAll(ctx context.Context, repoDir string, deployments []models.Deployment) ([]string, error) {
	archives := make([]string, len(deployments))

	group, ctx := errgroup.WithContext(ctx)
	for i, deployment := range deployments {
		group.Go(func() error {
			dir, err := sourceDir(repoDir, deployment.Path)
			if err != nil {
				return err
			}
			path, err := o.archiver.Archive(ctx, dir)
			if err != nil {
				return err
			}
			archives[i] = path
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		// archives are only cleaned up by the uploader
		for _, path := range archives {
			if path != "" {
				_ = os.Remove(path)
			}
		}
		return nil, err
	}
	return archives, nil
}

func (o *Orchestrator) uploadAll(ctx context.Context, archives []string) ([]string, error) {
	uploaded := make([]string, len(archives))

	group, ctx := errgroup.WithContext(ctx)
	for i, archive := range archives {
		group.Go(func() error {
			path, err := o.uploader.Upload(ctx, archive)
			if err != nil {
				return err
			}
			uploaded[i] = path
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return uploaded, nil
}

func (o *Orchestrator) deployAll(ctx context.Context, deployments []models.Deployment, archives []string) ([]models.Result, error) {
	results := make([]models.Result, len(deployments))

	group, ctx := errgroup.WithContext(ctx)
	for i, deployment := range deployments {
		group.Go(func() error {
			result, err := o.deployer.Deploy(ctx, deployment, archives[i])
			if err != nil {
				return err
			}
			result.Deployment = deployment
			results[i] = *result
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// sourceDir resolves a deployment path inside the cloned repository
func sourceDir(repoDir, path string) (string, error) {
	dir := filepath.Join(repoDir, filepath.FromSlash(path))
	rel, err := filepath.Rel(repoDir, dir)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", apperrors.NewArchiveError(fmt.Errorf("%w: %s", apperrors.ErrInvalidPath, path))
	}
	return dir, nil
}
