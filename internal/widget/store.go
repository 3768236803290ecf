package widget

import (
	"context"
	"sync"

	"github.com/neexbeast/weatherwidget/internal/weather"
)

// Store holds the single current record and the lookup sequence.
//
// Begin issues the next sequence number before a fetch starts. Commit installs
// rec only if seq is still the latest issued and reports whether it did.
type Store interface {
	Begin(ctx context.Context) (uint64, error)
	Commit(ctx context.Context, seq uint64, rec *weather.Record) (bool, error)
	Current(ctx context.Context) (*weather.Record, error)
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu      sync.RWMutex
	issued  uint64
	current *weather.Record
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Begin issues the next sequence number.
func (s *MemoryStore) Begin(_ context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued, nil
}

// Commit installs rec if seq is still the latest issued.
func (s *MemoryStore) Commit(_ context.Context, seq uint64, rec *weather.Record) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.issued {
		return false, nil
	}
	s.current = rec
	return true, nil
}

// Current returns the installed record, or nil if there is none.
func (s *MemoryStore) Current(_ context.Context) (*weather.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, nil
}
