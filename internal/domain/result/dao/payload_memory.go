package dao

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/vadim/comments-fetcher/internal/domain/result/entity"
)

// PayloadMemory is an in-memory PayloadStore for development and tests
type PayloadMemory struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewPayloadMemory creates an empty in-memory payload store
func NewPayloadMemory() *PayloadMemory {
	return &PayloadMemory{blobs: make(map[string][]byte)}
}

func (s *PayloadMemory) Put(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.blobs[key] = append([]byte(nil), data...)
	return nil
}

func (s *PayloadMemory) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.blobs[key]
	if !ok {
		return nil, entity.ErrResultNotFound
	}
	return append([]byte(nil), data...), nil
}

func (s *PayloadMemory) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.blobs, key)
	return nil
}

func (s *PayloadMemory) List(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []string
	for k := range s.blobs {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
