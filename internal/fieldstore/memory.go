package fieldstore

import (
	"context"
	"sync"
)

// MemStore is an in-process Store for tests and for running the
// authoring core without a Redis instance.
type MemStore struct {
	mu     sync.Mutex
	values map[string][]byte
	subs   map[string][]chan Change
}

func NewMemStore() *MemStore {
	return &MemStore{
		values: make(map[string][]byte),
		subs:   make(map[string][]chan Change),
	}
}

func (s *MemStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(raw))
	copy(cp, raw)
	return cp, nil
}

func (s *MemStore) Set(_ context.Context, key string, value []byte) error {
	cp := make([]byte, len(value))
	copy(cp, value)

	s.mu.Lock()
	s.values[key] = cp
	subs := append([]chan Change(nil), s.subs[key]...)
	s.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- Change{Key: key, Value: cp}:
		default:
		}
	}
	return nil
}

func (s *MemStore) Subscribe(_ context.Context, key string) (<-chan Change, func()) {
	ch := make(chan Change, 8)
	s.mu.Lock()
	s.subs[key] = append(s.subs[key], ch)
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		live := s.subs[key][:0]
		for _, c := range s.subs[key] {
			if c != ch {
				live = append(live, c)
			}
		}
		s.subs[key] = live
		close(ch)
	}
	return ch, cancel
}
