package registry

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/zzenonn/morphsplit/internal/domain"
	apperrors "github.com/zzenonn/morphsplit/internal/errors"
)

func TestMemoryRegistry_PutGet(t *testing.T) {
	r := NewMemoryRegistry()
	tree := &domain.Tree{ID: "Tree.t:X"}

	if err := r.Put(tree.ID, tree); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	got, ok := r.Get(tree.ID)
	if !ok || got != tree {
		t.Fatalf("Get() = %v, %v", got, ok)
	}
	if _, ok := r.Get("missing"); ok {
		t.Error("Get(missing) reported an entity")
	}
}

func TestMemoryRegistry_Duplicates(t *testing.T) {
	tests := []struct {
		name    string
		second  domain.Entity
		wantErr error
	}{
		{"same entity", nil, nil},
		{"different entity", &domain.Tree{ID: "dup"}, apperrors.ErrDuplicateID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewMemoryRegistry()
			first := &domain.Tree{ID: "dup"}
			if err := r.Put("dup", first); err != nil {
				t.Fatalf("Put() error = %v", err)
			}
			second := tt.second
			if second == nil {
				second = first
			}
			err := r.Put("dup", second)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Put() error = %v, want %v", err, tt.wantErr)
			}
			if r.Len() != 1 {
				t.Errorf("Len() = %d, want 1", r.Len())
			}
		})
	}
}

func TestMemoryRegistry_EmptyID(t *testing.T) {
	r := NewMemoryRegistry()
	if err := r.Put("", &domain.Tree{}); !errors.Is(err, apperrors.ErrMissingRequiredFields) {
		t.Errorf("Put(\"\") error = %v", err)
	}
}

func TestMemoryRegistry_ConcurrentPut(t *testing.T) {
	r := NewMemoryRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("clock%d", i)
			if err := r.Put(id, &domain.ClockModel{ID: id}); err != nil {
				t.Errorf("Put(%s) error = %v", id, err)
			}
		}(i)
	}
	wg.Wait()

	ids := r.IDs()
	if len(ids) != 20 {
		t.Fatalf("IDs() returned %d ids, want 20", len(ids))
	}
	slices.Sort(ids)
	if len(slices.Compact(ids)) != 20 {
		t.Error("IDs() returned duplicates")
	}
}
