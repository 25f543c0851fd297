package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/rs/zerolog"
	apperrors "github.com/tdcjreform/community/internal/errors"
)

// RepositoryFetcher clones GitHub repositories into local scratch directories
type RepositoryFetcher struct {
	baseURL string
	token   string
	depth   int
}

// NewRepositoryFetcher creates a fetcher that clones from config.CloneBaseURL.
// A negative CloneDepth clones full history.
func NewRepositoryFetcher(config *Config) *RepositoryFetcher {
	depth := config.CloneDepth
	if depth < 0 {
		depth = 0
	}
	return &RepositoryFetcher{
		baseURL: strings.TrimRight(config.CloneBaseURL, "/"),
		token:   config.GitHubToken,
		depth:   depth,
	}
}

// CloneURL returns the URL the repository identified by owner/name is cloned from
func (f *RepositoryFetcher) CloneURL(repository string) string {
	return f.baseURL + "/" + repository + ".git"
}

// Fetch clones the default branch of repository into dest and returns dest.
// There is a single attempt; any failure is returned as a fetch error.
func (f *RepositoryFetcher) Fetch(ctx context.Context, repository, dest string) (path string, err error) {
	logger := zerolog.Ctx(ctx)

	defer func(begin time.Time) {
		logger.Info().
			Err(err).
			Str("repository", repository).
			Str("dest", dest).
			Dur("duration", time.Since(begin)).
			Msg("Cloned repository")
	}(time.Now())

	options := &git.CloneOptions{
		URL:          f.CloneURL(repository),
		Depth:        f.depth,
		SingleBranch: true,
	}
	if f.token != "" {
		options.Auth = &githttp.BasicAuth{
			Username: "x-access-token",
			Password: f.token,
		}
	}

	if _, err := git.PlainCloneContext(ctx, dest, false, options); err != nil {
		return "", apperrors.NewFetchError(fmt.Errorf("failed to clone %s: %w", repository, err))
	}

	return dest, nil
}
