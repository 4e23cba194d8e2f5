package ledger

import (
	"context"
	"sync"

	"kharcha/internal/core"
	"kharcha/internal/ports"
)

// MemoryStore keeps ledgers and markers in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	ledgers map[string]core.Ledger
	markers map[string]string
}

var (
	_ ports.LedgerStore = (*MemoryStore)(nil)
	_ ports.MarkerStore = (*MemoryStore)(nil)
)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		ledgers: map[string]core.Ledger{},
		markers: map[string]string{},
	}
}

func (s *MemoryStore) Load(_ context.Context, user string) (core.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.ledgers[user]
	if !ok {
		return core.NewLedger(), nil
	}
	return l.Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, user string, l core.Ledger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledgers[user] = l.Clone()
	return nil
}

func (s *MemoryStore) ReadMarker(_ context.Context, user string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.markers[user], nil
}

func (s *MemoryStore) WriteMarker(_ context.Context, user string, monthKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markers[user] = monthKey
	return nil
}
