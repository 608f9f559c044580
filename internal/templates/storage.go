package templates

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/facelock/internal/common"
)

// Storage is the key-value persistence collaborator. The store defines the
// key namespace; implementations only move opaque strings. Get returns an
// error matching common.ErrNotFound for absent keys.
// SetAll writes every pair or none; durable implementations make it atomic.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	SetAll(ctx context.Context, pairs map[string]string) error
	Remove(ctx context.Context, key string) error
	Contains(ctx context.Context, key string) (bool, error)
}

// InMemoryStorage is a process-local Storage, used in tests and as a default
// when durability is not required. Safe for concurrent use.
type InMemoryStorage struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewInMemoryStorage() *InMemoryStorage {
	return &InMemoryStorage{data: make(map[string]string)}
}

func (s *InMemoryStorage) Get(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return "", common.ErrNotFound
	}
	return v, nil
}

func (s *InMemoryStorage) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *InMemoryStorage) SetAll(ctx context.Context, pairs map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range pairs {
		s.data[k] = v
	}
	return nil
}

func (s *InMemoryStorage) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *InMemoryStorage) Contains(ctx context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[key]
	return ok, nil
}
