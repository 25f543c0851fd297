package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/tdcjreform/community/internal/errors"
	"github.com/tdcjreform/community/internal/models"
)

func TestMatchDeployments(t *testing.T) {
	deployments := []models.Deployment{
		{Repository: "acme/functions", Path: "hello", Function: "hello", Location: "us-central1"},
		{Repository: "acme/api", Path: ".", Function: "api", Location: "us-east1"},
		{Repository: "acme/functions", Path: "goodbye", Function: "goodbye", Location: "europe-west1"},
	}

	t.Run("preserves configuration order", func(t *testing.T) {
		matched, err := MatchDeployments("acme/functions", deployments)
		require.NoError(t, err)
		require.Len(t, matched, 2)
		assert.Equal(t, "hello", matched[0].Function)
		assert.Equal(t, "goodbye", matched[1].Function)
	})

	t.Run("single match", func(t *testing.T) {
		matched, err := MatchDeployments("acme/api", deployments)
		require.NoError(t, err)
		assert.Equal(t, []models.Deployment{deployments[1]}, matched)
	})

	t.Run("case sensitive", func(t *testing.T) {
		_, err := MatchDeployments("Acme/Functions", deployments)
		assert.ErrorIs(t, err, apperrors.ErrNoMatchingDeployment)
		assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	})

	t.Run("no match", func(t *testing.T) {
		matched, err := MatchDeployments("acme/unknown", deployments)
		assert.Nil(t, matched)
		assert.ErrorIs(t, err, apperrors.ErrNoMatchingDeployment)
		assert.Contains(t, err.Error(), "acme/unknown")
	})

	t.Run("does not modify input", func(t *testing.T) {
		before := append([]models.Deployment(nil), deployments...)
		_, _ = MatchDeployments("acme/functions", deployments)
		assert.Equal(t, before, deployments)
	})
}
