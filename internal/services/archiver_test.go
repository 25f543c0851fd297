package services

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/tdcjreform/community/internal/errors"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func zipEntries(t *testing.T, path string) map[string]string {
	t.Helper()

	reader, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer reader.Close()

	entries := map[string]string{}
	for _, file := range reader.File {
		rc, err := file.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		entries[file.Name] = string(content)
	}
	return entries
}

func TestArchiver_Archive(t *testing.T) {
	ctx := context.Background()

	t.Run("zips directory contents relative to root", func(t *testing.T) {
		source := t.TempDir()
		writeTree(t, source, map[string]string{
			"index.js":      "exports.handler = () => {}",
			"package.json":  `{"name":"hello"}`,
			"lib/util.js":   "module.exports = {}",
			".git/config":   "[core]",
			"lib/.git/HEAD": "ref: refs/heads/main",
			".gcloudignore": "node_modules",
		})

		scratch := t.TempDir()
		archiver := NewArchiver(&Config{ScratchDir: scratch})

		path, err := archiver.Archive(ctx, source)
		require.NoError(t, err)
		assert.Equal(t, scratch, filepath.Dir(path))
		assert.Equal(t, ".zip", filepath.Ext(path))

		entries := zipEntries(t, path)
		names := make([]string, 0, len(entries))
		for name := range entries {
			names = append(names, name)
		}
		sort.Strings(names)

		assert.Equal(t, []string{".gcloudignore", "index.js", "lib/util.js", "package.json"}, names)
		assert.Equal(t, "exports.handler = () => {}", entries["index.js"])
	})

	t.Run("concurrent archives get distinct paths", func(t *testing.T) {
		source := t.TempDir()
		writeTree(t, source, map[string]string{"main.py": "def handler(request): pass"})

		archiver := NewArchiver(&Config{ScratchDir: t.TempDir()})

		const n = 16
		paths := make([]string, n)
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				path, err := archiver.Archive(ctx, source)
				assert.NoError(t, err)
				paths[i] = path
			}(i)
		}
		wg.Wait()

		seen := map[string]bool{}
		for _, path := range paths {
			require.NotEmpty(t, path)
			assert.False(t, seen[path], "duplicate archive path %s", path)
			seen[path] = true
			assert.Equal(t, map[string]string{"main.py": "def handler(request): pass"}, zipEntries(t, path))
		}
	})

	t.Run("creates missing scratch dir", func(t *testing.T) {
		source := t.TempDir()
		writeTree(t, source, map[string]string{"main.go": "package hello"})

		scratch := filepath.Join(t.TempDir(), "nested", "scratch")
		path, err := NewArchiver(&Config{ScratchDir: scratch}).Archive(ctx, source)
		require.NoError(t, err)
		assert.FileExists(t, path)
	})

	t.Run("missing source", func(t *testing.T) {
		archiver := NewArchiver(&Config{ScratchDir: t.TempDir()})

		_, err := archiver.Archive(ctx, filepath.Join(t.TempDir(), "missing"))
		require.Error(t, err)
		assert.Equal(t, apperrors.KindArchive, apperrors.KindOf(err))
	})

	t.Run("source is a file", func(t *testing.T) {
		dir := t.TempDir()
		writeTree(t, dir, map[string]string{"file.txt": "x"})
		scratch := t.TempDir()

		_, err := NewArchiver(&Config{ScratchDir: scratch}).Archive(ctx, filepath.Join(dir, "file.txt"))
		require.Error(t, err)
		assert.Equal(t, apperrors.KindArchive, apperrors.KindOf(err))

		leftovers, err := os.ReadDir(scratch)
		require.NoError(t, err)
		assert.Empty(t, leftovers)
	})

	t.Run("cancelled context leaves no archive behind", func(t *testing.T) {
		source := t.TempDir()
		writeTree(t, source, map[string]string{"a.txt": "a"})
		scratch := t.TempDir()

		ctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := NewArchiver(&Config{ScratchDir: scratch}).Archive(ctx, source)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)

		leftovers, err := os.ReadDir(scratch)
		require.NoError(t, err)
		assert.Empty(t, leftovers)
	})
}
