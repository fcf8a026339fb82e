package credstore

import (
	"sync"

	"github.com/eaduck/client/core/session"
)

// MemStore is an in-memory session.Store for tests.
type MemStore struct {
	mu sync.Mutex
	st *session.State
}

var _ session.Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{}
}

func (s *MemStore) Load() (*session.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.st == nil {
		return nil, nil
	}
	st := *s.st
	return &st, nil
}

func (s *MemStore) Save(st *session.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *st
	s.st = &cp
	return nil
}

func (s *MemStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st = nil
	return nil
}
