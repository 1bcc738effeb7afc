package partition

import (
	"context"
	"fmt"
	"slices"

	log "github.com/sirupsen/logrus"

	"github.com/zzenonn/morphsplit/internal/domain"
	apperrors "github.com/zzenonn/morphsplit/internal/errors"
)

// DefaultDataTypePrefix keeps synthesized data type IDs apart from the
// alignment IDs they are derived from.
const DefaultDataTypePrefix = "morphDataType."

// Registry receives the entities created for each partition.
type Registry interface {
	Put(id string, entity domain.Entity) error
}

// TemplateWirer instantiates the model subnet for one partition.
type TemplateWirer interface {
	AddAlignmentWithSubnet(ctx context.Context, pc domain.PartitionContext) error
}

// Options tune how partitions are named and described.
type Options struct {
	// CompressRanges collapses consecutive sites into "a-b" filter terms.
	CompressRanges bool
	// DataTypePrefix is prepended to synthesized data type IDs.
	DataTypePrefix string
}

// Result holds the filtered alignments built for one source alignment.
type Result struct {
	AlignmentID    string
	Filtered       []*domain.FilteredAlignment
	WiringFailures []*apperrors.TemplateWiringFailure
}

// WiringError returns the template failure recorded for a partition, if any.
func (r Result) WiringError(partitionID string) error {
	for _, failure := range r.WiringFailures {
		if failure.Partition == partitionID {
			return failure
		}
	}
	return nil
}

// Partitioner turns alignments into state-count partitions and hands each
// one to the document registry and the model template.
type Partitioner struct {
	registry Registry
	wirer    TemplateWirer
	opts     Options
}

// NewPartitioner creates a Partitioner. A nil registry or wirer skips
// registration or template wiring respectively.
func NewPartitioner(registry Registry, wirer TemplateWirer, opts Options) *Partitioner {
	if opts.DataTypePrefix == "" {
		opts.DataTypePrefix = DefaultDataTypePrefix
	}
	return &Partitioner{
		registry: registry,
		wirer:    wirer,
		opts:     opts,
	}
}

// Process partitions an alignment and builds one filtered alignment per
// state count.
func (p *Partitioner) Process(ctx context.Context, alignment *domain.Alignment) (Result, error) {
	if alignment == nil {
		return Result{}, &apperrors.PartitionConstructionFailure{Err: apperrors.ErrNoAlignment}
	}
	buckets := Partition(alignment)
	log.Debugf("Alignment %s: %d sites in %d state-count buckets", alignment.ID, alignment.SiteCount(), len(buckets))
	return p.BuildFilteredAlignments(ctx, alignment, buckets)
}

// BuildFilteredAlignments creates, registers and wires a filtered alignment
// for every bucket, in ascending state-count order. Template failures are
// logged and recorded on the result; any other failure aborts the alignment.
func (p *Partitioner) BuildFilteredAlignments(ctx context.Context, alignment *domain.Alignment, buckets Buckets) (Result, error) {
	result := Result{AlignmentID: alignment.ID}
	siteCount := alignment.SiteCount()
	assigned := make([]bool, siteCount)
	covered := 0

	for _, count := range buckets.Counts() {
		sites := buckets[count]
		if len(sites) == 0 {
			return Result{}, p.failure(alignment, fmt.Errorf("state count %d: %w", count, apperrors.ErrEmptyBucket))
		}
		if !slices.IsSorted(sites) {
			sites = slices.Sorted(slices.Values(sites))
		}
		for _, site := range sites {
			if site < 0 || site >= siteCount {
				return Result{}, p.failure(alignment, fmt.Errorf("site %d: %w", site, apperrors.ErrSiteOutOfRange))
			}
			if assigned[site] {
				return Result{}, p.failure(alignment, fmt.Errorf("site %d: %w", site, apperrors.ErrSiteReused))
			}
			assigned[site] = true
		}
		covered += len(sites)

		filtered, err := p.buildPartition(alignment, count, sites)
		if err != nil {
			return Result{}, p.failure(alignment, err)
		}

		if p.wirer != nil {
			// trees and clock models are shared by all partitions of the alignment
			pc := domain.NewPartitionContext(filtered.ID, alignment.ID, alignment.ID)
			if err := p.wirer.AddAlignmentWithSubnet(ctx, pc); err != nil {
				failure := &apperrors.TemplateWiringFailure{Partition: filtered.ID, Err: err}
				log.Warn(failure.Error())
				result.WiringFailures = append(result.WiringFailures, failure)
			}
		}

		result.Filtered = append(result.Filtered, filtered)
	}

	if covered != siteCount {
		return Result{}, p.failure(alignment, fmt.Errorf("%d of %d sites: %w", siteCount-covered, siteCount, apperrors.ErrSiteDropped))
	}
	return result, nil
}

func (p *Partitioner) buildPartition(alignment *domain.Alignment, count int, sites []int) (*domain.FilteredAlignment, error) {
	name := fmt.Sprintf("%s%d", alignment.ID, count)
	filter := FormatRange(sites, p.opts.CompressRanges)

	dataType := alignment.DataType.Sized(p.opts.DataTypePrefix+name, count)
	if p.registry != nil {
		if err := p.registry.Put(dataType.GetID(), dataType); err != nil {
			return nil, fmt.Errorf("registering data type %s: %w", dataType.GetID(), err)
		}
	}

	filtered, err := domain.NewFilteredAlignment(name, alignment, filter, dataType)
	if err != nil {
		return nil, err
	}
	if p.registry != nil {
		if err := p.registry.Put(filtered.ID, filtered); err != nil {
			return nil, fmt.Errorf("registering filtered alignment %s: %w", filtered.ID, err)
		}
	}

	log.Debugf("Partition %s: %d states, %d sites, filter %s", name, count, len(sites), filter)
	return filtered, nil
}

func (p *Partitioner) failure(alignment *domain.Alignment, err error) error {
	return &apperrors.PartitionConstructionFailure{AlignmentID: alignment.ID, Err: err}
}
