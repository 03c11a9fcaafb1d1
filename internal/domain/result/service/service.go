package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	comment "github.com/vadim/comments-fetcher/internal/domain/comment/entity"
	"github.com/vadim/comments-fetcher/internal/domain/result/dao"
	"github.com/vadim/comments-fetcher/internal/domain/result/entity"
)

const (
	keyPrefix = "results/comments_"
	keySuffix = ".json"
)

// ObjectKey returns the payload key for a job
func ObjectKey(jobID string) string {
	return keyPrefix + jobID + keySuffix
}

// jobIDFromKey extracts the job ID from a payload key
func jobIDFromKey(key string) (string, bool) {
	if !strings.HasPrefix(key, keyPrefix) || !strings.HasSuffix(key, keySuffix) {
		return "", false
	}
	id := strings.TrimSuffix(strings.TrimPrefix(key, keyPrefix), keySuffix)
	return id, id != ""
}

// DeleteRecorder defines the interface for counting removed results
type DeleteRecorder interface {
	ResultsDeleted(n int)
}

// Service handles business logic for stored fetch results
type Service struct {
	meta     dao.MetadataRepository
	payloads dao.PayloadStore
	logger   *slog.Logger
	recorder DeleteRecorder
	now      func() time.Time
}

// Option configures the Service
type Option func(*Service)

// WithDeleteRecorder reports every removed result to r
func WithDeleteRecorder(r DeleteRecorder) Option {
	return func(s *Service) {
		s.recorder = r
	}
}

// New creates a new result service
func New(meta dao.MetadataRepository, payloads dao.PayloadStore, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		meta:     meta,
		payloads: payloads,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SaveInput represents input for saving a result
type SaveInput struct {
	JobID       string
	ChannelID   string
	ChannelName string
	UserID      string
	Result      *entity.FetchResult
}

// Save stores the payload and indexes its metadata
func (s *Service) Save(ctx context.Context, in SaveInput) (*entity.Metadata, error) {
	if strings.TrimSpace(in.JobID) == "" {
		return nil, entity.ErrEmptyJobID
	}
	if strings.TrimSpace(in.ChannelID) == "" {
		return nil, entity.ErrEmptyChannelID
	}
	if in.Result == nil {
		return nil, entity.ErrNilResult
	}

	data, err := json.MarshalIndent(in.Result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}

	key := ObjectKey(in.JobID)
	if err := s.payloads.Put(ctx, key, data); err != nil {
		return nil, fmt.Errorf("storing result payload: %w", err)
	}

	m := describe(in.Result)
	m.JobID = in.JobID
	m.ChannelID = in.ChannelID
	m.ChannelName = in.ChannelName
	m.UserID = in.UserID
	m.CreatedAt = s.now()
	m.ObjectKey = key
	m.Size = int64(len(data))

	if err := s.meta.Upsert(ctx, &m); err != nil {
		return nil, err
	}

	s.logger.Info("result saved", "job_id", in.JobID, "size", m.Size)

	return &m, nil
}

// Get loads the stored result for a job
func (s *Service) Get(ctx context.Context, jobID string) (*entity.FetchResult, error) {
	if strings.TrimSpace(jobID) == "" {
		return nil, entity.ErrResultNotFound
	}

	data, err := s.payloads.Get(ctx, ObjectKey(jobID))
	if err != nil {
		return nil, err
	}

	var res entity.FetchResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("decoding result %s: %w", jobID, err)
	}

	return &res, nil
}

// GetMetadata returns indexed metadata, deriving it from the payload if the index lacks it
func (s *Service) GetMetadata(ctx context.Context, jobID string) (*entity.Metadata, error) {
	if strings.TrimSpace(jobID) == "" {
		return nil, entity.ErrResultNotFound
	}

	m, err := s.meta.Get(ctx, jobID)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, entity.ErrResultNotFound) {
		return nil, err
	}

	return s.reindex(ctx, jobID)
}

// List returns metadata for all results, newest first
func (s *Service) List(ctx context.Context) ([]entity.Metadata, error) {
	return s.meta.List(ctx)
}

// ListByUser returns metadata for a user's results, newest first
func (s *Service) ListByUser(ctx context.Context, userID string) ([]entity.Metadata, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, nil
	}
	return s.meta.ListByUser(ctx, userID)
}

// Exists reports whether a result is indexed or stored
func (s *Service) Exists(ctx context.Context, jobID string) (bool, error) {
	if strings.TrimSpace(jobID) == "" {
		return false, nil
	}

	_, err := s.meta.Get(ctx, jobID)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, entity.ErrResultNotFound) {
		return false, err
	}

	_, err = s.payloads.Get(ctx, ObjectKey(jobID))
	if errors.Is(err, entity.ErrResultNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes a result's payload and metadata, reporting whether anything existed
func (s *Service) Delete(ctx context.Context, jobID string) (bool, error) {
	if strings.TrimSpace(jobID) == "" {
		return false, nil
	}

	key := ObjectKey(jobID)
	_, err := s.payloads.Get(ctx, key)
	stored := err == nil
	if err != nil && !errors.Is(err, entity.ErrResultNotFound) {
		return false, err
	}
	if stored {
		if err := s.payloads.Delete(ctx, key); err != nil {
			return false, err
		}
	}

	indexed, err := s.meta.Delete(ctx, jobID)
	if err != nil {
		return false, err
	}

	if stored || indexed {
		s.logger.Info("result deleted", "job_id", jobID)
		if s.recorder != nil {
			s.recorder.ResultsDeleted(1)
		}
	}

	return stored || indexed, nil
}

// DeleteOlderThan removes results created more than days ago
func (s *Service) DeleteOlderThan(ctx context.Context, days int) (int, error) {
	if days < 0 {
		return 0, entity.ErrInvalidRetention
	}

	cutoff := s.now().AddDate(0, 0, -days)
	old, err := s.meta.ListOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, m := range old {
		ok, err := s.Delete(ctx, m.JobID)
		if err != nil {
			s.logger.Error("failed to delete expired result", "job_id", m.JobID, "error", err)
			continue
		}
		if ok {
			deleted++
		}
	}

	s.logger.Info("expired results deleted", "days", days, "deleted", deleted, "candidates", len(old))

	return deleted, nil
}

// Summary aggregates metadata across all results
func (s *Service) Summary(ctx context.Context) (*entity.Summary, error) {
	all, err := s.meta.List(ctx)
	if err != nil {
		return nil, err
	}

	sum := &entity.Summary{TotalResults: len(all)}
	for i := range all {
		m := &all[i]
		sum.TotalSize += m.Size
		sum.TotalComments += m.TotalComments
		if sum.OldestResultDate == nil || m.CreatedAt.Before(*sum.OldestResultDate) {
			sum.OldestResultDate = &m.CreatedAt
		}
		if sum.NewestResultDate == nil || m.CreatedAt.After(*sum.NewestResultDate) {
			sum.NewestResultDate = &m.CreatedAt
		}
	}

	return sum, nil
}

// RebuildIndex indexes stored payloads that have no metadata and returns the index size
func (s *Service) RebuildIndex(ctx context.Context) (int, error) {
	keys, err := s.payloads.List(ctx, keyPrefix)
	if err != nil {
		return 0, err
	}

	for _, key := range keys {
		jobID, ok := jobIDFromKey(key)
		if !ok {
			continue
		}
		if _, err := s.meta.Get(ctx, jobID); err == nil {
			continue
		}
		if _, err := s.reindex(ctx, jobID); err != nil {
			s.logger.Error("failed to index stored result", "job_id", jobID, "error", err)
		}
	}

	all, err := s.meta.List(ctx)
	if err != nil {
		return 0, err
	}

	s.logger.Info("result index rebuilt", "payloads", len(keys), "indexed", len(all))

	return len(all), nil
}

// reindex derives metadata from a stored payload and adds it to the index
func (s *Service) reindex(ctx context.Context, jobID string) (*entity.Metadata, error) {
	key := ObjectKey(jobID)
	data, err := s.payloads.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var res entity.FetchResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("decoding result %s: %w", jobID, err)
	}

	m := describe(&res)
	m.JobID = jobID
	m.ChannelID = entity.UnknownChannel
	m.UserID = entity.LegacyUserID
	m.CreatedAt = s.now()
	m.ObjectKey = key
	m.Size = int64(len(data))

	if err := s.meta.Upsert(ctx, &m); err != nil {
		return nil, err
	}

	return &m, nil
}

// describe computes the payload-derived metadata fields, preferring the
// payload's own statistics when present
func describe(res *entity.FetchResult) entity.Metadata {
	m := entity.Metadata{
		TotalComments: len(res.Comments),
		TotalVideos:   len(res.Videos),
	}

	if st := res.Statistics; st != nil {
		m.UniqueAuthors = st.UniqueAuthors
		m.OldestCommentDate = st.OldestCommentDate
		m.NewestCommentDate = st.NewestCommentDate
		return m
	}

	authors := make(map[string]struct{}, len(res.Comments))
	for i := range res.Comments {
		c := &res.Comments[i]
		authors[c.AuthorDisplayName] = struct{}{}
		m.OldestCommentDate, m.NewestCommentDate = widen(m.OldestCommentDate, m.NewestCommentDate, c)
	}
	m.UniqueAuthors = len(authors)

	return m
}

func widen(oldest, newest *time.Time, c *comment.Comment) (*time.Time, *time.Time) {
	if c.PublishedAt == nil {
		return oldest, newest
	}
	t := *c.PublishedAt
	if oldest == nil || t.Before(*oldest) {
		oldest = &t
	}
	if newest == nil || t.After(*newest) {
		newest = &t
	}
	return oldest, newest
}
