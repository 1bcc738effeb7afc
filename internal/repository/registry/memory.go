// Package registry holds the entities of the active project document.
package registry

import (
	"fmt"
	"slices"
	"sync"

	"github.com/zzenonn/morphsplit/internal/domain"
	apperrors "github.com/zzenonn/morphsplit/internal/errors"
)

// MemoryRegistry is an in-memory document keyed by entity identifier.
type MemoryRegistry struct {
	mu       sync.RWMutex
	entities map[string]domain.Entity
	ids      []string
}

// NewMemoryRegistry creates an empty registry
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		entities: make(map[string]domain.Entity),
		ids:      make([]string, 0),
	}
}

// Put stores an entity. Putting the same entity twice is a no-op; a
// different entity under a taken identifier is rejected.
func (r *MemoryRegistry) Put(id string, entity domain.Entity) error {
	if id == "" {
		return fmt.Errorf("entity id: %w", apperrors.ErrMissingRequiredFields)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, exists := r.entities[id]; exists {
		if existing == entity {
			return nil
		}
		return fmt.Errorf("%s: %w", id, apperrors.ErrDuplicateID)
	}
	r.entities[id] = entity
	r.ids = append(r.ids, id)
	return nil
}

// Get returns the entity registered under id
func (r *MemoryRegistry) Get(id string) (domain.Entity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entity, exists := r.entities[id]
	return entity, exists
}

// IDs returns all identifiers in registration order
func (r *MemoryRegistry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.ids)
}

// Len returns the number of registered entities
func (r *MemoryRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.ids)
}
