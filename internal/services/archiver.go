package services

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zip"
	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"
	apperrors "github.com/tdcjreform/community/internal/errors"
)

// Archiver packages directories as zip files in a scratch directory.
// Every archive gets a fresh KSUID name and is created exclusively, so
// concurrent calls never write to the same path.
type Archiver struct {
	scratchDir string
}

// NewArchiver creates an archiver writing to config.ScratchDir
func NewArchiver(config *Config) *Archiver {
	return &Archiver{scratchDir: config.ScratchDir}
}

// Archive compresses sourceDir (without any .git directories) and returns the archive path
func (a *Archiver) Archive(ctx context.Context, sourceDir string) (string, error) {
	logger := zerolog.Ctx(ctx)

	info, err := os.Stat(sourceDir)
	if err != nil {
		return "", apperrors.NewArchiveError(fmt.Errorf("failed to stat %s: %w", sourceDir, err))
	}
	if !info.IsDir() {
		return "", apperrors.NewArchiveError(fmt.Errorf("%s is not a directory", sourceDir))
	}

	if err := os.MkdirAll(a.scratchDir, 0o755); err != nil {
		return "", apperrors.NewArchiveError(fmt.Errorf("failed to create scratch dir: %w", err))
	}

	path := filepath.Join(a.scratchDir, ksuid.New().String()+".zip")
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", apperrors.NewArchiveError(fmt.Errorf("failed to create archive: %w", err))
	}

	count, err := writeZip(ctx, file, sourceDir)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", apperrors.NewArchiveError(fmt.Errorf("failed to archive %s: %w", sourceDir, err))
	}

	logger.Info().
		Str("source", sourceDir).
		Str("archive", path).
		Int("files", count).
		Msg("Created archive")

	return path, nil
}

func writeZip(ctx context.Context, w io.Writer, sourceDir string) (int, error) {
	zw := zip.NewWriter(w)
	count := 0

	err := filepath.WalkDir(sourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" && path != sourceDir {
				return filepath.SkipDir
			}
			return nil
		}
		// symlinks and other special files are not part of a function source
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(rel)
		header.Method = zip.Deflate

		dst, err := zw.CreateHeader(header)
		if err != nil {
			return err
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		//goland:noinspection GoUnhandledErrorResult
		defer src.Close()

		if _, err := io.Copy(dst, src); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		_ = zw.Close()
		return 0, err
	}

	return count, zw.Close()
}
