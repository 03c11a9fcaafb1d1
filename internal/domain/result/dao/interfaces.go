package dao

import (
	"context"
	"time"

	"github.com/vadim/comments-fetcher/internal/domain/result/entity"
)

// MetadataRepository defines the interface for the result metadata index
type MetadataRepository interface {
	// Upsert inserts or replaces metadata for a job
	Upsert(ctx context.Context, m *entity.Metadata) error
	// Get retrieves metadata by job ID, returning entity.ErrResultNotFound if absent
	Get(ctx context.Context, jobID string) (*entity.Metadata, error)
	// List retrieves all metadata, newest first
	List(ctx context.Context) ([]entity.Metadata, error)
	// ListByUser retrieves metadata created by a user, newest first
	ListByUser(ctx context.Context, userID string) ([]entity.Metadata, error)
	// ListOlderThan retrieves metadata created before the cutoff
	ListOlderThan(ctx context.Context, cutoff time.Time) ([]entity.Metadata, error)
	// Delete removes metadata, reporting whether a row existed
	Delete(ctx context.Context, jobID string) (bool, error)
}

// PayloadStore defines the interface for serialized result blobs
type PayloadStore interface {
	// Put stores data under key
	Put(ctx context.Context, key string, data []byte) error
	// Get loads data stored under key, returning entity.ErrResultNotFound if absent
	Get(ctx context.Context, key string) ([]byte, error)
	// Delete removes the key; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error
	// List returns keys with the given prefix
	List(ctx context.Context, prefix string) ([]string, error)
}
