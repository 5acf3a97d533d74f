// Package registry stores the figure references attached to content, so
// webhook notifications can be matched back to the entities showing them.
package registry

import (
	"context"
	"sync"

	"figures-hub/internal/domain"
)

// MemoryReferenceStore is a thread-safe in-memory reference store.
// Implements domain.ReferenceStore. References live for the process
// lifetime; consumers re-register through the references endpoint on
// startup.
type MemoryReferenceStore struct {
	mu   sync.RWMutex
	refs []domain.FigureReference
}

// NewMemoryReferenceStore creates an empty store.
func NewMemoryReferenceStore() *MemoryReferenceStore {
	return &MemoryReferenceStore{}
}

// Register adds a reference. Re-registering the same entity and field
// replaces the earlier entry.
func (s *MemoryReferenceStore) Register(_ context.Context, ref domain.FigureReference) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.refs {
		if existing.EntityID == ref.EntityID && existing.Field == ref.Field && existing.ID == ref.ID {
			s.refs[i] = ref
			return nil
		}
	}
	s.refs = append(s.refs, ref)
	return nil
}

// Unregister removes one reference by its entity, field and figure id.
func (s *MemoryReferenceStore) Unregister(_ context.Context, entityID, field, figureID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.refs {
		if existing.EntityID == entityID && existing.Field == field && existing.ID == figureID {
			s.refs = append(s.refs[:i], s.refs[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

// List returns all stored references in registration order.
func (s *MemoryReferenceStore) List(_ context.Context) ([]domain.FigureReference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.FigureReference, len(s.refs))
	copy(out, s.refs)
	return out, nil
}

// Matching returns the references whose scope covers the record. Wildcard
// references match on provider, country and year; exact-id references
// match only when includeByID is set (existing records, not new ones).
func (s *MemoryReferenceStore) Matching(_ context.Context, record domain.Figure, includeByID bool) ([]domain.FigureReference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []domain.FigureReference
	for _, ref := range s.refs {
		if ref.Matches(record, includeByID) {
			matches = append(matches, ref)
		}
	}
	return matches, nil
}

// UpdateValue refreshes the stored value and unit on every reference
// pinned to the figure id.
func (s *MemoryReferenceStore) UpdateValue(_ context.Context, figureID string, value float64, valueText, unit string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.refs {
		if s.refs[i].ID == figureID {
			s.refs[i].Value = value
			s.refs[i].ValueText = valueText
			s.refs[i].Unit = unit
		}
	}
	return nil
}
