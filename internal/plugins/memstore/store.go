package memstore

import "sync"

// Store is the in-memory render-state sink. A closed store drops writes,
// which guards optimistic rollbacks against racing a teardown.
type Store struct {
	mu      sync.RWMutex
	closed  bool
	records map[string]any
}

func New() *Store {
	return &Store{records: make(map[string]any)}
}

func (s *Store) Publish(recordID string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.records[recordID] = value
}

func (s *Store) Get(recordID string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.records[recordID]
	return v, ok
}

func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}
