// Package store persists workflow execution records. The in-memory
// implementation is the default; every read hands out a deep copy so callers
// can never mutate orchestrator-owned state.
package store

import (
	"sort"
	"sync"
	"time"

	"github.com/hupe1980/mortgagemesh/core"
)

// ExecutionStore is the persistence contract the orchestrator and the
// protocol surface operate against.
type ExecutionStore interface {
	// Create inserts a new record. The id must not already exist.
	Create(rec *core.ExecutionRecord) error
	// Get returns a snapshot of the identified record.
	Get(id string) (*core.ExecutionRecord, error)
	// List returns snapshots of all records, newest first.
	List() ([]*core.ExecutionRecord, error)
	// Update applies mutate to the live record under the store lock and
	// returns a snapshot of the result.
	Update(id string, mutate func(rec *core.ExecutionRecord) error) (*core.ExecutionRecord, error)
	// DeleteOlderThan removes terminal records whose completion time is
	// older than the cutoff and returns how many were removed. Records
	// still pending or running are never removed.
	DeleteOlderThan(age time.Duration) (int, error)
}

// InMemoryStore is a volatile ExecutionStore keeping records in a process
// local map. It is safe for concurrent access; returned records are cloned
// to prevent external mutation of internal state.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]*core.ExecutionRecord
}

// NewInMemoryStore constructs an empty in-memory execution store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]*core.ExecutionRecord)}
}

// Create implements ExecutionStore.
func (s *InMemoryStore) Create(rec *core.ExecutionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[rec.ID]; exists {
		return core.NewValidationError("execution_id", "execution id already exists")
	}
	s.records[rec.ID] = rec.Clone()
	return nil
}

// Get implements ExecutionStore.
func (s *InMemoryStore) Get(id string) (*core.ExecutionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, core.NewNotFoundError("execution", id)
	}
	return rec.Clone(), nil
}

// List implements ExecutionStore. Records are ordered newest first with the
// id as tiebreaker so the listing is stable.
func (s *InMemoryStore) List() ([]*core.ExecutionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*core.ExecutionRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.After(out[j].StartedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Update implements ExecutionStore. The mutate callback runs under the write
// lock against the live record; returning an error leaves the record
// untouched.
func (s *InMemoryStore) Update(id string, mutate func(rec *core.ExecutionRecord) error) (*core.ExecutionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, core.NewNotFoundError("execution", id)
	}

	// Mutate a copy so a failed callback cannot leave partial writes.
	next := rec.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	s.records[id] = next
	return next.Clone(), nil
}

// DeleteOlderThan implements ExecutionStore.
func (s *InMemoryStore) DeleteOlderThan(age time.Duration) (int, error) {
	cutoff := time.Now().Add(-age)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, rec := range s.records {
		if !rec.Status.Terminal() || rec.CompletedAt.IsZero() {
			continue
		}
		if rec.CompletedAt.Before(cutoff) {
			delete(s.records, id)
			removed++
		}
	}
	return removed, nil
}
