package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	apperrors "github.com/tdcjreform/community/internal/errors"
	"github.com/tdcjreform/community/internal/models"
	"github.com/tdcjreform/community/internal/utils"
	"google.golang.org/api/cloudfunctions/v1"
	"google.golang.org/api/googleapi"
)

const (
	reasonAlreadyExists = "alreadyExists"
	statusAlreadyExists = "ALREADY_EXISTS"
)

var errOperationPending = errors.New("operation not done")

// FunctionDeployer creates or updates HTTP-triggered Cloud Functions from
// uploaded source archives and waits for the resulting operation
type FunctionDeployer struct {
	service        *cloudfunctions.Service
	projectID      string
	bucket         string
	pollInterval   time.Duration
	pollMaxRetries uint64
	environment    map[string]string
}

// NewFunctionDeployer creates a deployer for config.ProjectID whose sources live in config.Bucket
func NewFunctionDeployer(service *cloudfunctions.Service, config *Config) *FunctionDeployer {
	return &FunctionDeployer{
		service:        service,
		projectID:      config.ProjectID,
		bucket:         config.Bucket,
		pollInterval:   config.PollInterval,
		pollMaxRetries: config.PollMaxRetries,
		environment:    config.Environment,
	}
}

// LocationName returns projects/<project>/locations/<location>
func LocationName(projectID, location string) string {
	return fmt.Sprintf("projects/%s/locations/%s", projectID, location)
}

// FunctionName returns projects/<project>/locations/<location>/functions/<function>
func FunctionName(projectID, location, function string) string {
	return fmt.Sprintf("%s/functions/%s", LocationName(projectID, location), function)
}

// SourceArchiveURL returns gs://<bucket>/<archive filename>
func SourceArchiveURL(bucket, archivePath string) string {
	return fmt.Sprintf("gs://%s/%s", bucket, ObjectName(archivePath))
}

// BuildFunction returns the function resource for deployment with its source at archivePath
func (d *FunctionDeployer) BuildFunction(deployment models.Deployment, archivePath string) *cloudfunctions.CloudFunction {
	return &cloudfunctions.CloudFunction{
		Name:                 FunctionName(d.projectID, deployment.Location, deployment.Function),
		SourceArchiveUrl:     SourceArchiveURL(d.bucket, archivePath),
		HttpsTrigger:         &cloudfunctions.HttpsTrigger{},
		Runtime:              deployment.Runtime,
		EntryPoint:           deployment.EntryPoint,
		AvailableMemoryMb:    deployment.MemoryMB,
		Timeout:              deployment.Timeout,
		EnvironmentVariables: utils.MergeEnvironment(d.environment, deployment.Environment),
	}
}

// Deploy creates or updates the function for deployment and polls until the
// operation is done. The result carries the deployed function descriptor.
func (d *FunctionDeployer) Deploy(ctx context.Context, deployment models.Deployment, archivePath string) (result *models.Result, err error) {
	logger := zerolog.Ctx(ctx).With().
		Str("function", deployment.Function).
		Str("location", deployment.Location).
		Logger()

	defer func(begin time.Time) {
		logger.Info().
			Err(err).
			Dur("duration", time.Since(begin)).
			Msg("Deploy completed")
	}(time.Now())

	function := d.BuildFunction(deployment, archivePath)

	operation, err := d.createOrUpdate(logger.WithContext(ctx), deployment, function)
	if err != nil {
		return nil, apperrors.NewDeployError(err)
	}

	payload, err := d.waitForOperation(logger.WithContext(ctx), operation)
	if err != nil {
		return nil, apperrors.NewDeployError(err)
	}

	return &models.Result{
		Operation: operation.Name,
		Function:  payload,
	}, nil
}

func (d *FunctionDeployer) createOrUpdate(ctx context.Context, deployment models.Deployment, function *cloudfunctions.CloudFunction) (*cloudfunctions.Operation, error) {
	logger := zerolog.Ctx(ctx)

	location := LocationName(d.projectID, deployment.Location)
	operation, err := d.service.Projects.Locations.Functions.Create(location, function).Context(ctx).Do()
	if err == nil {
		logger.Info().Str("operation", operation.Name).Msg("Creating function")
		return operation, nil
	}
	if !isAlreadyExists(err) {
		return nil, fmt.Errorf("failed to create function %s: %w", function.Name, err)
	}

	logger.Info().Str("name", function.Name).Msg("Function already exists, updating")

	operation, err = d.service.Projects.Locations.Functions.Patch(function.Name, function).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to update function %s: %w", function.Name, err)
	}

	logger.Info().Str("operation", operation.Name).Msg("Updating function")
	return operation, nil
}

// waitForOperation polls the operation at a constant interval until it is
// done, the retry budget is spent or ctx ends
func (d *FunctionDeployer) waitForOperation(ctx context.Context, operation *cloudfunctions.Operation) (json.RawMessage, error) {
	logger := zerolog.Ctx(ctx)
	name := operation.Name

	var payload json.RawMessage
	current := operation
	attempt := 0
	check := func() error {
		if !current.Done {
			next, err := d.service.Operations.Get(name).Context(ctx).Do()
			if err != nil {
				return backoff.Permanent(fmt.Errorf("failed to get operation %s: %w", name, err))
			}
			current = next
		}
		attempt++

		if !current.Done {
			logger.Debug().Str("operation", name).Int("attempt", attempt).Msg("Operation not done")
			return errOperationPending
		}
		if current.Error != nil {
			return backoff.Permanent(fmt.Errorf("operation %s failed: %s", name, current.Error.Message))
		}

		payload = json.RawMessage(current.Response)
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(d.pollInterval), d.pollMaxRetries),
		ctx,
	)
	if err := backoff.Retry(check, policy); err != nil {
		if errors.Is(err, errOperationPending) {
			return nil, fmt.Errorf("%w: %s after %d checks", apperrors.ErrDeployTimeout, name, attempt)
		}
		return nil, err
	}

	return payload, nil
}

func isAlreadyExists(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	for _, item := range apiErr.Errors {
		if item.Reason == reasonAlreadyExists {
			return true
		}
	}
	// 409 is also returned as ABORTED while another operation is running
	return apiErr.Code == http.StatusConflict && strings.Contains(apiErr.Body, statusAlreadyExists)
}
