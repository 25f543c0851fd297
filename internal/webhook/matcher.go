package webhook

import (
	"fmt"

	"github.com/samber/lo"
	apperrors "github.com/tdcjreform/community/internal/errors"
	"github.com/tdcjreform/community/internal/models"
)

// MatchDeployments returns the deployments configured for repository, in configuration order
func MatchDeployments(repository string, deployments []models.Deployment) ([]models.Deployment, error) {
	matched := lo.Filter(deployments, func(d models.Deployment, _ int) bool {
		return d.Repository == repository
	})
	if len(matched) == 0 {
		return nil, apperrors.NewNotFoundError(fmt.Errorf("%w: %s", apperrors.ErrNoMatchingDeployment, repository))
	}
	return matched, nil
}
