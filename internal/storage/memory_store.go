package storage

import (
	"context"
	"sync"
)

// MemoryStore keeps entries in process memory. It backs dry runs and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	entries  map[string][]byte
	revision int64
	loaded   bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]byte)}
}

func (s *MemoryStore) Init(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = true
	return nil
}

func (s *MemoryStore) Load(ctx context.Context) error {
	return s.Init(ctx)
}

func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) Get(_ context.Context, keys ...string) (map[string][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return nil, ErrNotLoaded
	}

	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if v, ok := s.entries[k]; ok {
			out[k] = append([]byte(nil), v...)
		}
	}
	return out, nil
}

func (s *MemoryStore) PutAll(ctx context.Context, entries map[string][]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return ErrNotLoaded
	}

	for k, v := range entries {
		s.entries[k] = append([]byte(nil), v...)
	}
	s.revision++
	return nil
}

func (s *MemoryStore) Revision(context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision, nil
}

func (s *MemoryStore) GetConfigPath() string {
	return "memory:"
}
