package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/zzenonn/morphsplit/internal/domain"
	apperrors "github.com/zzenonn/morphsplit/internal/errors"
	"github.com/zzenonn/morphsplit/internal/partition"
	"github.com/zzenonn/morphsplit/internal/service"
)

type mockPlanRepository struct {
	createFunc func(ctx context.Context, record domain.PartitionRecord) error
	records    []domain.PartitionRecord
}

func (m *mockPlanRepository) CreateRecord(ctx context.Context, record domain.PartitionRecord) error {
	if m.createFunc != nil {
		if err := m.createFunc(ctx, record); err != nil {
			return err
		}
	}
	m.records = append(m.records, record)
	return nil
}

type mockPlanWriter struct {
	writeFunc func(ctx context.Context, path string, data []byte) error
}

func (m *mockPlanWriter) Write(ctx context.Context, path string, data []byte) error {
	return m.writeFunc(ctx, path, data)
}

type failingWirer struct{}

func (failingWirer) AddAlignmentWithSubnet(ctx context.Context, pc domain.PartitionContext) error {
	if strings.HasSuffix(pc.Partition, "1") {
		return apperrors.ErrTooFewStates
	}
	return nil
}

func processedTeeth(t *testing.T) []service.ProcessedAlignment {
	t.Helper()
	alignment, err := domain.NewAlignment("teeth", []string{"a", "b", "c"}, [][]int{
		{0, 0, 1, 2},
		{1, 1, 0, 2},
		{1, 2, 0, 2},
	}, &domain.StandardData{ID: "std", NrOfStates: 3})
	if err != nil {
		t.Fatalf("NewAlignment() error = %v", err)
	}
	result, err := partition.NewPartitioner(nil, failingWirer{}, partition.Options{CompressRanges: true}).
		Process(context.Background(), alignment)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	return []service.ProcessedAlignment{{Source: "data/teeth.nex", Result: result}}
}

func TestPlanService_NewPlan(t *testing.T) {
	plan := service.NewPlanService(nil, nil).NewPlan(processedTeeth(t))

	if _, err := uuid.Parse(plan.RunID); err != nil {
		t.Errorf("RunID %q is not a UUID: %v", plan.RunID, err)
	}
	if plan.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}

	tests := []struct {
		partition string
		states    int
		sites     int
		filter    string
		wired     bool
	}{
		{"teeth1", 1, 1, "4", false},
		{"teeth2", 2, 2, "1,3", true},
		{"teeth3", 3, 1, "2", true},
	}
	if len(plan.Records) != len(tests) {
		t.Fatalf("plan has %d records, want %d", len(plan.Records), len(tests))
	}
	for i, tt := range tests {
		r := plan.Records[i]
		if r.PartitionID != tt.partition || r.StateCount != tt.states || r.SiteCount != tt.sites ||
			r.Filter != tt.filter || r.Wired != tt.wired {
			t.Errorf("record %d = %+v", i, r)
		}
		if r.AlignmentID != "teeth" || r.RunID != plan.RunID || r.Source != "data/teeth.nex" {
			t.Errorf("record %d identity = %s/%s/%s", i, r.AlignmentID, r.RunID, r.Source)
		}
		if r.DataTypeID != "morphDataType."+tt.partition || r.DataType != "standard" {
			t.Errorf("record %d data type = %s (%s)", i, r.DataTypeID, r.DataType)
		}
		if tt.wired != (r.WiringError == "") {
			t.Errorf("record %d wiring error = %q", i, r.WiringError)
		}
	}
}

func TestPlanService_Persist(t *testing.T) {
	plan := service.NewPlanService(nil, nil).NewPlan(processedTeeth(t))

	if err := service.NewPlanService(nil, nil).Persist(context.Background(), plan); err == nil ||
		!strings.Contains(err.Error(), "dynamodb_table") {
		t.Errorf("Persist() without repository error = %v", err)
	}

	repo := &mockPlanRepository{}
	if err := service.NewPlanService(repo, nil).Persist(context.Background(), plan); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}
	if len(repo.records) != 3 {
		t.Errorf("persisted %d records, want 3", len(repo.records))
	}

	failing := &mockPlanRepository{createFunc: func(ctx context.Context, record domain.PartitionRecord) error {
		if record.PartitionID == "teeth2" {
			return errors.New("throttled")
		}
		return nil
	}}
	if err := service.NewPlanService(failing, nil).Persist(context.Background(), plan); err == nil {
		t.Error("Persist() error = nil, want error")
	}
	if len(failing.records) != 1 {
		t.Errorf("persisted %d records before the failure, want 1", len(failing.records))
	}
}

func TestPlanService_Export(t *testing.T) {
	var written []byte
	writer := &mockPlanWriter{writeFunc: func(ctx context.Context, path string, data []byte) error {
		if path != "s3://plans/teeth.json" {
			t.Errorf("Write() path = %q", path)
		}
		written = data
		return nil
	}}
	svc := service.NewPlanService(nil, writer)
	plan := svc.NewPlan(processedTeeth(t))

	if err := svc.Export(context.Background(), "s3://plans/teeth.json", plan); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(written, &decoded); err != nil {
		t.Fatalf("exported plan is not JSON: %v", err)
	}
	if decoded["run_id"] != plan.RunID {
		t.Errorf("run_id = %v", decoded["run_id"])
	}
	records := decoded["records"].([]any)
	first := records[0].(map[string]any)
	if first["partition_id"] != "teeth1" || first["wiring_error"] == nil {
		t.Errorf("first record = %v", first)
	}
	if second := records[1].(map[string]any); second["wiring_error"] != nil {
		t.Errorf("wired record carries wiring_error %v", second["wiring_error"])
	}

	writer.writeFunc = func(ctx context.Context, path string, data []byte) error {
		return errors.New("access denied")
	}
	if err := svc.Export(context.Background(), "s3://plans/teeth.json", plan); err == nil {
		t.Error("Export() error = nil, want error")
	}
	if err := service.NewPlanService(nil, nil).Export(context.Background(), "x.json", plan); err == nil {
		t.Error("Export() without writer error = nil, want error")
	}
}
