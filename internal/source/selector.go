// Package source resolves where alignments are read from and where plans are
// written to. Locations are local paths or s3:// and gs:// object URIs.
package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	log "github.com/sirupsen/logrus"

	apperrors "github.com/zzenonn/morphsplit/internal/errors"
	"github.com/zzenonn/morphsplit/internal/repository/objectstore"
)

// ArgsSelector selects the files named on the command line. Directories
// contribute the regular files directly inside them and glob patterns are
// expanded.
type ArgsSelector struct {
	Paths []string
}

// Select returns the selected files in argument order. Selecting nothing is
// reported as ErrSelectionCancelled.
func (s ArgsSelector) Select(ctx context.Context) ([]string, error) {
	if len(s.Paths) == 0 {
		return nil, apperrors.ErrSelectionCancelled
	}

	var selected []string
	for _, path := range s.Paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		expanded, err := expand(path)
		if err != nil {
			return nil, err
		}
		selected = append(selected, expanded...)
	}

	if len(selected) == 0 {
		return nil, apperrors.ErrSelectionCancelled
	}
	return selected, nil
}

func expand(path string) ([]string, error) {
	if objectstore.IsObjectURI(path) {
		return []string{path}, nil
	}

	if strings.ContainsAny(path, "*?[") {
		matches, err := filepath.Glob(path)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %s: %w", path, err)
		}
		if len(matches) == 0 {
			log.Warnf("No files match %s", path)
		}
		return matches, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			files = append(files, filepath.Join(path, entry.Name()))
		}
	}
	return files, nil
}

// FilterExtensions keeps the paths whose extension is one of exts, compared
// case-insensitively. Order is preserved.
func FilterExtensions(paths []string, exts []string) []string {
	var kept []string
	for _, path := range paths {
		ext := strings.ToLower(filepath.Ext(path))
		if slices.Contains(exts, ext) {
			kept = append(kept, path)
			continue
		}
		log.Debugf("Skipping %s: not a Nexus file", path)
	}
	return kept
}

// BaseName is a path's file name without its extension.
func BaseName(path string) string {
	if objectstore.IsObjectURI(path) {
		if uri, err := objectstore.ParseObjectURI(path); err == nil {
			path = uri.Key
		}
	}
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}
