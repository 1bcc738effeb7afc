// Package service provides the application workflows of morphsplit.
//
// AlignmentProviderService turns a selection of Nexus files into partitioned
// alignments:
// - GetAlignments: select files, then load and process them
// - LoadAlignments: parse the Nexus files concurrently, in input order
// - ProcessAlignments: split every loaded alignment by state count
//
// PlanService summarises processed alignments as a partition plan and
// persists or exports it.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/zzenonn/morphsplit/internal/domain"
	apperrors "github.com/zzenonn/morphsplit/internal/errors"
	"github.com/zzenonn/morphsplit/internal/nexus"
	"github.com/zzenonn/morphsplit/internal/partition"
	"github.com/zzenonn/morphsplit/internal/source"
)

// FileSelector asks for the files to import. It returns
// ErrSelectionCancelled when nothing was chosen.
type FileSelector interface {
	Select(ctx context.Context) ([]string, error)
}

// SourceOpener opens a selected file for reading.
type SourceOpener interface {
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// AlignmentProcessor splits one alignment into state-count partitions.
type AlignmentProcessor interface {
	Process(ctx context.Context, alignment *domain.Alignment) (partition.Result, error)
}

// Item is one alignment yielded by a Nexus file: either a charset of the
// file or, when the file declares none, the whole matrix.
type Item struct {
	Source    string
	Alignment *domain.Alignment
	Filtered  *domain.FilteredAlignment
}

// ID is the identifier the item is partitioned under.
func (i Item) ID() string {
	if i.Filtered != nil {
		return i.Filtered.ID
	}
	if i.Alignment != nil {
		return i.Alignment.ID
	}
	return ""
}

func (i Item) alignment() (*domain.Alignment, error) {
	if i.Filtered != nil {
		return i.Filtered.Materialize()
	}
	return i.Alignment, nil
}

// OverlapWarning reports two charsets of one file that share sites.
type OverlapWarning struct {
	Source string
	nexus.Overlap
}

func (w OverlapWarning) String() string {
	return fmt.Sprintf("%s: charsets %s and %s overlap", w.Source, w.First, w.Second)
}

// LoadResult holds the items of all loaded files in input order.
type LoadResult struct {
	Items    []Item
	Warnings []OverlapWarning
}

// ProcessedAlignment is the partitioning outcome of one item.
type ProcessedAlignment struct {
	Source string
	Result partition.Result
}

// Outcome is everything GetAlignments produced.
type Outcome struct {
	LoadResult
	Processed []ProcessedAlignment
}

// AlignmentProviderService imports Nexus files as partitioned alignments
type AlignmentProviderService struct {
	selector   FileSelector
	opener     SourceOpener
	processor  AlignmentProcessor
	extensions []string
}

// NewAlignmentProviderService creates a new AlignmentProviderService
func NewAlignmentProviderService(selector FileSelector, opener SourceOpener, processor AlignmentProcessor, extensions []string) *AlignmentProviderService {
	return &AlignmentProviderService{
		selector:   selector,
		opener:     opener,
		processor:  processor,
		extensions: extensions,
	}
}

// GetAlignments selects, loads and processes Nexus files. A cancelled
// selection is not an error and returns a nil outcome.
func (s *AlignmentProviderService) GetAlignments(ctx context.Context) (*Outcome, error) {
	paths, err := s.selector.Select(ctx)
	if errors.Is(err, apperrors.ErrSelectionCancelled) {
		log.Info("No files selected")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	loaded, err := s.LoadAlignments(ctx, paths)
	if err != nil {
		return nil, err
	}
	processed, err := s.ProcessAlignments(ctx, loaded.Items)
	if err != nil {
		return nil, err
	}
	return &Outcome{LoadResult: loaded, Processed: processed}, nil
}

// LoadAlignments parses every path with a Nexus extension. Files are parsed
// concurrently; results keep input order and the first failing file in that
// order aborts the load.
func (s *AlignmentProviderService) LoadAlignments(ctx context.Context, paths []string) (LoadResult, error) {
	paths = source.FilterExtensions(paths, s.extensions)
	if len(paths) == 0 {
		log.Info("No Nexus files among the selected files")
		return LoadResult{}, nil
	}

	results := make([]*nexus.Result, len(paths))
	errs := make([]error, len(paths))
	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			results[i], errs[i] = s.loadFile(ctx, path)
		}(i, path)
	}
	wg.Wait()

	var loaded LoadResult
	for i, path := range paths {
		if errs[i] != nil {
			return LoadResult{}, errs[i]
		}
		result := results[i]
		for _, overlap := range result.Overlaps() {
			warning := OverlapWarning{Source: path, Overlap: overlap}
			log.Warn(warning.String())
			loaded.Warnings = append(loaded.Warnings, warning)
		}

		if len(result.Filtered) == 0 {
			loaded.Items = append(loaded.Items, Item{Source: path, Alignment: result.Alignment})
			continue
		}
		for _, filtered := range result.Filtered {
			loaded.Items = append(loaded.Items, Item{Source: path, Alignment: result.Alignment, Filtered: filtered})
		}
	}

	log.Infof("Loaded %d alignments from %d files", len(loaded.Items), len(paths))
	return loaded, nil
}

func (s *AlignmentProviderService) loadFile(ctx context.Context, path string) (*nexus.Result, error) {
	rc, err := s.opener.Open(ctx, path)
	if err != nil {
		return nil, &apperrors.ParseFailure{FileName: path, Err: err}
	}
	defer rc.Close()

	result, err := nexus.Parse(rc, source.BaseName(path))
	if err != nil {
		return nil, &apperrors.ParseFailure{FileName: path, Err: err}
	}
	log.Debugf("Parsed %s: %d taxa, %d sites, %d charsets", path,
		result.Alignment.TaxonCount(), result.Alignment.SiteCount(), len(result.Filtered))
	return result, nil
}

// ProcessAlignments partitions every item in order. The first failure aborts.
func (s *AlignmentProviderService) ProcessAlignments(ctx context.Context, items []Item) ([]ProcessedAlignment, error) {
	processed := make([]ProcessedAlignment, 0, len(items))
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		alignment, err := item.alignment()
		if err != nil {
			return nil, &apperrors.PartitionConstructionFailure{AlignmentID: item.ID(), Err: err}
		}
		result, err := s.processor.Process(ctx, alignment)
		if err != nil {
			return nil, err
		}
		log.Infof("Split %s into %d partitions", alignment.ID, len(result.Filtered))
		processed = append(processed, ProcessedAlignment{Source: item.Source, Result: result})
	}
	return processed, nil
}
