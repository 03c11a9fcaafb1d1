package dao

import (
	"context"
	"errors"

	"github.com/vadim/comments-fetcher/internal/domain/result/entity"
	"github.com/vadim/comments-fetcher/internal/storage"
)

// PayloadS3 implements PayloadStore on top of an S3 bucket
type PayloadS3 struct {
	s3 *storage.S3Storage
}

// NewPayloadS3 creates a payload store backed by S3
func NewPayloadS3(s3 *storage.S3Storage) *PayloadS3 {
	return &PayloadS3{s3: s3}
}

func (p *PayloadS3) Put(ctx context.Context, key string, data []byte) error {
	return p.s3.Put(ctx, key, data)
}

func (p *PayloadS3) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := p.s3.Get(ctx, key)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, entity.ErrResultNotFound
	}
	return data, err
}

func (p *PayloadS3) Delete(ctx context.Context, key string) error {
	return p.s3.Delete(ctx, key)
}

func (p *PayloadS3) List(ctx context.Context, prefix string) ([]string, error) {
	return p.s3.List(ctx, prefix)
}
