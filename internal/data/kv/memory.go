package kv

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string]string
}

func NewMemoryStore() Store {
	return &memoryStore{data: make(map[string]map[string]string)}
}

func (s *memoryStore) Get(_ context.Context, origin, key string) (string, bool, error) {
	if err := checkOrigin(origin); err != nil {
		return "", false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[origin][key]
	return v, ok, nil
}

func (s *memoryStore) Set(ctx context.Context, origin, key, value string) error {
	return s.SetMany(ctx, origin, map[string]string{key: value})
}

func (s *memoryStore) SetMany(_ context.Context, origin string, values map[string]string) error {
	if err := checkOrigin(origin); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket := s.data[origin]
	if bucket == nil {
		bucket = make(map[string]string, len(values))
		s.data[origin] = bucket
	}
	for k, v := range values {
		bucket[k] = v
	}
	return nil
}

func (s *memoryStore) Remove(_ context.Context, origin, key string) error {
	if err := checkOrigin(origin); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data[origin], key)
	return nil
}

func (s *memoryStore) Clear(_ context.Context, origin string) error {
	if err := checkOrigin(origin); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, origin)
	return nil
}

func (s *memoryStore) Close() error { return nil }
