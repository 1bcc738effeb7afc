package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/zzenonn/morphsplit/internal/domain"
	apperrors "github.com/zzenonn/morphsplit/internal/errors"
)

// PlanRepository stores partition records
type PlanRepository interface {
	CreateRecord(ctx context.Context, record domain.PartitionRecord) error
}

// PlanWriter writes an exported plan to a local path or object URI
type PlanWriter interface {
	Write(ctx context.Context, path string, data []byte) error
}

// PlanService builds, persists and exports partition plans
type PlanService struct {
	repo   PlanRepository
	writer PlanWriter
	newID  func() string
	now    func() time.Time
}

// NewPlanService creates a new PlanService. repo or writer may be nil when
// the plan is not persisted or exported.
func NewPlanService(repo PlanRepository, writer PlanWriter) *PlanService {
	return &PlanService{
		repo:   repo,
		writer: writer,
		newID:  uuid.NewString,
		now:    time.Now,
	}
}

// NewPlan summarises processed alignments under a fresh run ID.
func (s *PlanService) NewPlan(processed []ProcessedAlignment) domain.PartitionPlan {
	plan := domain.PartitionPlan{
		RunID:     s.newID(),
		CreatedAt: s.now().UTC(),
	}
	for _, p := range processed {
		for _, filtered := range p.Result.Filtered {
			record := domain.PartitionRecord{
				AlignmentID: p.Result.AlignmentID,
				PartitionID: filtered.ID,
				RunID:       plan.RunID,
				Source:      p.Source,
				StateCount:  filtered.DataType.StateCount(),
				SiteCount:   filtered.SiteCount(),
				Filter:      filtered.Filter,
				DataTypeID:  filtered.DataType.GetID(),
				DataType:    filtered.DataType.TypeName(),
				Wired:       true,
			}
			if err := p.Result.WiringError(filtered.ID); err != nil {
				record.Wired = false
				record.WiringError = err.Error()
			}
			plan.Records = append(plan.Records, record)
		}
	}
	return plan
}

// Persist stores every record of the plan
func (s *PlanService) Persist(ctx context.Context, plan domain.PartitionPlan) error {
	if s.repo == nil {
		return apperrors.ConfigNotSetError("dynamodb_table")
	}
	for _, record := range plan.Records {
		if err := s.repo.CreateRecord(ctx, record); err != nil {
			return err
		}
	}
	log.Infof("Persisted %d partition records for run %s", len(plan.Records), plan.RunID)
	return nil
}

// Export writes the plan as indented JSON to dest
func (s *PlanService) Export(ctx context.Context, dest string, plan domain.PartitionPlan) error {
	if s.writer == nil {
		return fmt.Errorf("no plan writer configured")
	}
	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode plan: %w", err)
	}
	if err := s.writer.Write(ctx, dest, append(data, '\n')); err != nil {
		return err
	}
	log.Infof("Exported plan %s to %s", plan.RunID, dest)
	return nil
}
