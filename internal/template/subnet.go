// Package template instantiates the standard model subnet of a partition:
// an Mk substitution model and site model sized to the partition's state
// count, a tree likelihood, and the tree and clock model the partition shares
// with its siblings.
package template

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/zzenonn/morphsplit/internal/domain"
	apperrors "github.com/zzenonn/morphsplit/internal/errors"
)

// Registry is the document the subnet entities are added to.
type Registry interface {
	Put(id string, entity domain.Entity) error
	Get(id string) (domain.Entity, bool)
}

// SubnetTemplate wires partitions registered as filtered alignments.
type SubnetTemplate struct {
	registry Registry
}

// NewSubnetTemplate creates a template that adds its entities to registry.
func NewSubnetTemplate(registry Registry) *SubnetTemplate {
	return &SubnetTemplate{registry: registry}
}

// IDs of the entities created for a partition.
func SiteModelID(partition string) string         { return "morphSiteModel.s:" + partition }
func SubstitutionModelID(partition string) string { return "morphSubstModel.s:" + partition }
func TreeLikelihoodID(partition string) string    { return "treeLikelihood." + partition }
func TreeID(tree string) string                   { return "Tree.t:" + tree }
func ClockModelID(clock string) string            { return "StrictClock.c:" + clock }

// AddAlignmentWithSubnet creates the model subnet for pc.Partition, which
// must already be registered as a filtered alignment.
func (t *SubnetTemplate) AddAlignmentWithSubnet(ctx context.Context, pc domain.PartitionContext) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entity, ok := t.registry.Get(pc.Partition)
	if !ok {
		return apperrors.FetchingResourceError("filtered alignment " + pc.Partition)
	}
	data, ok := entity.(*domain.FilteredAlignment)
	if !ok {
		return fmt.Errorf("%s is a %T, not a filtered alignment", pc.Partition, entity)
	}
	states := data.DataType.StateCount()
	if states < 2 {
		return fmt.Errorf("%s has %d states: %w", pc.Partition, states, apperrors.ErrTooFewStates)
	}

	tree, err := t.sharedTree(pc.Tree, data.Source.Taxa)
	if err != nil {
		return err
	}
	clock, err := t.sharedClock(pc.ClockModel)
	if err != nil {
		return err
	}

	substModel := &domain.SubstitutionModel{
		ID:                 SubstitutionModelID(pc.SiteModel),
		StateCount:         states,
		RateDimension:      states * (states - 1) / 2,
		FrequencyDimension: states,
	}
	siteModel := &domain.SiteModel{
		ID:                  SiteModelID(pc.SiteModel),
		SubstitutionModelID: substModel.ID,
		GammaCategoryCount:  1,
	}
	likelihood := &domain.TreeLikelihood{
		ID:           TreeLikelihoodID(pc.Partition),
		DataID:       data.ID,
		TreeID:       tree.ID,
		SiteModelID:  siteModel.ID,
		ClockModelID: clock.ID,
	}
	for _, e := range []domain.Entity{substModel, siteModel, likelihood} {
		if err := t.registry.Put(e.GetID(), e); err != nil {
			return err
		}
	}

	log.Debugf("Wired %s: %d-state Mk model, tree %s, clock %s", pc.Partition, states, tree.ID, clock.ID)
	return nil
}

func (t *SubnetTemplate) sharedTree(name string, taxa []string) (*domain.Tree, error) {
	id := TreeID(name)
	if existing, ok := t.registry.Get(id); ok {
		tree, ok := existing.(*domain.Tree)
		if !ok {
			return nil, fmt.Errorf("%s is a %T, not a tree", id, existing)
		}
		return tree, nil
	}
	tree := &domain.Tree{ID: id, Taxa: taxa}
	return tree, t.registry.Put(id, tree)
}

func (t *SubnetTemplate) sharedClock(name string) (*domain.ClockModel, error) {
	id := ClockModelID(name)
	if existing, ok := t.registry.Get(id); ok {
		clock, ok := existing.(*domain.ClockModel)
		if !ok {
			return nil, fmt.Errorf("%s is a %T, not a clock model", id, existing)
		}
		return clock, nil
	}
	clock := &domain.ClockModel{ID: id, Rate: 1.0}
	return clock, t.registry.Put(id, clock)
}
