package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	apperrors "github.com/tdcjreform/community/internal/errors"
	"google.golang.org/api/storage/v1"
)

// Uploader pushes archives to a Cloud Storage bucket
type Uploader struct {
	service *storage.Service
	bucket  string
}

// NewUploader creates an uploader for config.Bucket
func NewUploader(service *storage.Service, config *Config) *Uploader {
	return &Uploader{
		service: service,
		bucket:  config.Bucket,
	}
}

// ObjectName is the bucket object an archive is stored as: its base filename.
// The deployer derives the function source URL from the same name.
func ObjectName(archivePath string) string {
	return filepath.Base(archivePath)
}

// Upload stores archivePath in the bucket and returns archivePath. The local
// file is removed afterwards whether or not the upload succeeded; a failed
// removal is only logged.
func (u *Uploader) Upload(ctx context.Context, archivePath string) (path string, err error) {
	logger := zerolog.Ctx(ctx)
	name := ObjectName(archivePath)

	defer func() {
		if removeErr := os.Remove(archivePath); removeErr != nil && !os.IsNotExist(removeErr) {
			logger.Warn().Err(removeErr).Str("archive", archivePath).Msg("Failed to remove local archive")
		}
	}()

	defer func(begin time.Time) {
		logger.Info().
			Err(err).
			Str("bucket", u.bucket).
			Str("object", name).
			Dur("duration", time.Since(begin)).
			Msg("Uploaded archive")
	}(time.Now())

	file, err := os.Open(archivePath)
	if err != nil {
		return "", apperrors.NewUploadError(fmt.Errorf("failed to open archive %s: %w", archivePath, err))
	}
	//goland:noinspection GoUnhandledErrorResult
	defer file.Close()

	object := &storage.Object{
		Name:        name,
		ContentType: "application/zip",
	}
	if _, err := u.service.Objects.Insert(u.bucket, object).Media(file).Context(ctx).Do(); err != nil {
		return "", apperrors.NewUploadError(fmt.Errorf("failed to upload %s to bucket %s: %w", name, u.bucket, err))
	}

	return archivePath, nil
}
