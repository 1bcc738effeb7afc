package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/zzenonn/morphsplit/internal/repository/objectstore"
)

// RepositoryCreator hands out object repositories for buckets.
type RepositoryCreator interface {
	CreateRepository(ctx context.Context, config objectstore.BucketConfig) (objectstore.ObjectRepository, error)
}

// Locations reads and writes local files and bucket objects.
type Locations struct {
	repos RepositoryCreator
	quiet bool
}

// NewLocations creates Locations. repos may be nil when only local paths are
// used. quiet disables transfer progress bars.
func NewLocations(repos RepositoryCreator, quiet bool) *Locations {
	return &Locations{repos: repos, quiet: quiet}
}

// Open opens a local file or downloads a bucket object.
func (l *Locations) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	if !objectstore.IsObjectURI(path) {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		return f, nil
	}

	uri, repo, err := l.repository(ctx, path)
	if err != nil {
		return nil, err
	}
	return repo.Download(ctx, uri.Key, l.quiet)
}

// Write stores data at path, creating parent directories of local paths.
func (l *Locations) Write(ctx context.Context, path string, data []byte) error {
	if !objectstore.IsObjectURI(path) {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dir, err)
			}
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		log.Debugf("Wrote %d bytes to %s", len(data), path)
		return nil
	}

	uri, repo, err := l.repository(ctx, path)
	if err != nil {
		return err
	}
	location, err := repo.Upload(ctx, uri.Key, bytes.NewReader(data), l.quiet)
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", uri, err)
	}
	log.Debugf("Uploaded %d bytes to %s (%s)", len(data), location, repo.GetStorageType())
	return nil
}

func (l *Locations) repository(ctx context.Context, path string) (objectstore.ObjectURI, objectstore.ObjectRepository, error) {
	uri, err := objectstore.ParseObjectURI(path)
	if err != nil {
		return objectstore.ObjectURI{}, nil, err
	}
	if l.repos == nil {
		return objectstore.ObjectURI{}, nil, fmt.Errorf("no object storage configured for %s", path)
	}
	repo, err := l.repos.CreateRepository(ctx, uri.Bucket)
	if err != nil {
		return objectstore.ObjectURI{}, nil, err
	}
	return uri, repo, nil
}
