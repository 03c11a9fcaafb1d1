package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	comment "github.com/vadim/comments-fetcher/internal/domain/comment/entity"
	commentsvc "github.com/vadim/comments-fetcher/internal/domain/comment/service"
	"github.com/vadim/comments-fetcher/internal/domain/job/dao"
	resultentity "github.com/vadim/comments-fetcher/internal/domain/result/entity"
	resultsvc "github.com/vadim/comments-fetcher/internal/domain/result/service"
)

// DefaultAnalysisTimeout bounds the analysis of an uploaded corpus
const DefaultAnalysisTimeout = 15 * time.Minute

// YouTubeClient defines the interface for reading a channel's comments
// This interface is defined here (consumer) not in the upstream package (provider)
type YouTubeClient interface {
	GetUploadsPlaylistID(ctx context.Context, channelID string) (string, error)
	GetVideoIDs(ctx context.Context, playlistID string, pageSize, maxPages int) ([]string, error)
	GetVideoComments(ctx context.Context, videoID string) (*comment.Video, error)
}

// ResultSaver defines the interface for persisting job output
type ResultSaver interface {
	Save(ctx context.Context, in resultsvc.SaveInput) (*resultentity.Metadata, error)
}

// Service runs fetch and analysis job bodies, reporting into the status store
type Service struct {
	yt       YouTubeClient
	analyzer *commentsvc.Analyzer
	results  ResultSaver
	status   dao.StatusStore
	logger   *slog.Logger
	timeout  time.Duration
}

// Option configures the Service
type Option func(*Service)

// WithAnalysisTimeout overrides DefaultAnalysisTimeout
func WithAnalysisTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// New creates a new job service
func New(yt YouTubeClient, analyzer *commentsvc.Analyzer, results ResultSaver, status dao.StatusStore, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		yt:       yt,
		analyzer: analyzer,
		results:  results,
		status:   status,
		logger:   logger,
		timeout:  DefaultAnalysisTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// fail records a terminal job error and returns err unchanged
func (s *Service) fail(jobID, message string, err error) error {
	s.status.ReportError(jobID, message)
	return err
}

func canceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
