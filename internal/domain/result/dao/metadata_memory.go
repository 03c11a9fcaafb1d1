package dao

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vadim/comments-fetcher/internal/domain/result/entity"
)

// MetadataMemory is an in-memory MetadataRepository for development and tests
type MetadataMemory struct {
	mu    sync.RWMutex
	items map[string]entity.Metadata
}

// NewMetadataMemory creates an empty in-memory metadata index
func NewMetadataMemory() *MetadataMemory {
	return &MetadataMemory{items: make(map[string]entity.Metadata)}
}

func (r *MetadataMemory) Upsert(_ context.Context, m *entity.Metadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.items[m.JobID]; ok && m.UserID == "" {
		m.UserID = old.UserID
	}
	r.items[m.JobID] = *m
	return nil
}

func (r *MetadataMemory) Get(_ context.Context, jobID string) (*entity.Metadata, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.items[jobID]
	if !ok {
		return nil, entity.ErrResultNotFound
	}
	return &m, nil
}

func (r *MetadataMemory) List(_ context.Context) ([]entity.Metadata, error) {
	return r.filter(func(entity.Metadata) bool { return true }), nil
}

func (r *MetadataMemory) ListByUser(_ context.Context, userID string) ([]entity.Metadata, error) {
	return r.filter(func(m entity.Metadata) bool { return m.UserID == userID }), nil
}

func (r *MetadataMemory) ListOlderThan(_ context.Context, cutoff time.Time) ([]entity.Metadata, error) {
	out := r.filter(func(m entity.Metadata) bool { return m.CreatedAt.Before(cutoff) })
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MetadataMemory) Delete(_ context.Context, jobID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.items[jobID]
	delete(r.items, jobID)
	return ok, nil
}

// filter returns matching items, newest first
func (r *MetadataMemory) filter(keep func(entity.Metadata) bool) []entity.Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []entity.Metadata
	for _, m := range r.items {
		if keep(m) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].JobID < out[j].JobID
	})
	return out
}
