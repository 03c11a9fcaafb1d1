package policy

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/vadim/comments-fetcher/internal/domain/job/dao"
	"github.com/vadim/comments-fetcher/internal/domain/job/entity"
	"github.com/vadim/comments-fetcher/internal/domain/job/service"
	resultentity "github.com/vadim/comments-fetcher/internal/domain/result/entity"
)

// Fetch request limits
const (
	DefaultPageSize = 50
	MaxPageSize     = 50
	DefaultMaxPages = 1
	DefaultWorkers  = 2
	statusTTL       = 24 * time.Hour

	outcomeCompleted = "completed"
	outcomeFailed    = "failed"
)

// JobRunner defines the interface for executing job bodies
type JobRunner interface {
	Fetch(ctx context.Context, in service.FetchInput) (*resultentity.Metadata, error)
	Analyze(ctx context.Context, in service.AnalyzeInput) (*resultentity.Metadata, error)
}

// EventPublisher defines the interface for announcing finished jobs
type EventPublisher interface {
	Publish(kind, outcome, jobID, userID string, props map[string]any)
}

// JobMetrics defines the interface for recording job metrics
type JobMetrics interface {
	JobStarted(kind string)
	JobFinished(kind, outcome string, elapsed time.Duration)
	CommentsAnalyzed(n int)
}

// Config holds orchestration limits
type Config struct {
	Workers        int
	MaxUploadBytes int64
	MaxPages       int
}

// Policy orchestrates job use-cases: validation, scheduling and tracking
type Policy struct {
	runner  JobRunner
	status  dao.StatusStore
	events  EventPublisher
	metrics JobMetrics
	logger  *slog.Logger
	cfg     Config
	sem     *semaphore.Weighted
	newID   func() string
	now     func() time.Time

	// ctx is canceled when shutdown gives up waiting
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// New creates a new job policy
func New(runner JobRunner, status dao.StatusStore, events EventPublisher, metrics JobMetrics, logger *slog.Logger, cfg Config) *Policy {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if events == nil {
		events = noopEvents{}
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Policy{
		runner:  runner,
		status:  status,
		events:  events,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
		sem:     semaphore.NewWeighted(int64(cfg.Workers)),
		newID:   uuid.NewString,
		now:     time.Now,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// StartFetchInput represents input for starting a channel fetch
type StartFetchInput struct {
	ChannelID string
	PageSize  int
	MaxPages  int
	UserID    string
}

// StartFetch validates the request and queues a fetch job
func (p *Policy) StartFetch(_ context.Context, in StartFetchInput) (string, error) {
	channelID := strings.TrimSpace(in.ChannelID)
	if channelID == "" {
		return "", entity.ErrInvalidChannelID
	}

	pageSize := in.PageSize
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}
	maxPages := in.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	if p.cfg.MaxPages > 0 && maxPages > p.cfg.MaxPages {
		maxPages = p.cfg.MaxPages
	}

	jobID := p.newID()
	return jobID, p.launch(jobID, entity.KindFetch, channelID, in.UserID, func(ctx context.Context) (*resultentity.Metadata, error) {
		return p.runner.Fetch(ctx, service.FetchInput{
			JobID:     jobID,
			ChannelID: channelID,
			PageSize:  pageSize,
			MaxPages:  maxPages,
			UserID:    in.UserID,
		})
	})
}

// StartAnalysisInput represents input for analyzing an uploaded corpus
type StartAnalysisInput struct {
	Payload []byte
	UserID  string
}

// StartAnalysis validates the upload and queues an analysis job
func (p *Policy) StartAnalysis(_ context.Context, in StartAnalysisInput) (string, error) {
	if len(in.Payload) == 0 {
		return "", entity.ErrEmptyUpload
	}
	if p.cfg.MaxUploadBytes > 0 && int64(len(in.Payload)) > p.cfg.MaxUploadBytes {
		return "", entity.ErrUploadTooLarge
	}

	jobID := p.newID()
	return jobID, p.launch(jobID, entity.KindAnalyze, "", in.UserID, func(ctx context.Context) (*resultentity.Metadata, error) {
		return p.runner.Analyze(ctx, service.AnalyzeInput{
			JobID:   jobID,
			Payload: in.Payload,
			UserID:  in.UserID,
		})
	})
}

// launch registers the job and runs it in the background once a worker slot frees up
func (p *Policy) launch(jobID string, kind entity.Kind, channelID, userID string, run func(context.Context) (*resultentity.Metadata, error)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return entity.ErrShuttingDown
	}

	if n := p.status.Forget(statusTTL); n > 0 {
		p.logger.Debug("forgot finished job statuses", "count", n)
	}
	p.status.Init(jobID, kind, channelID)

	p.logger.Info("job queued", "job_id", jobID, "kind", kind, "channel_id", channelID)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		if err := p.sem.Acquire(p.ctx, 1); err != nil {
			p.status.ReportError(jobID, entity.MsgShutdownCanceled)
			p.logger.Warn("job canceled before start", "job_id", jobID)
			return
		}
		defer p.sem.Release(1)

		p.metrics.JobStarted(string(kind))
		started := p.now()

		meta, err := run(p.ctx)

		elapsed := p.now().Sub(started)
		outcome := outcomeCompleted
		props := map[string]any{"duration_ms": elapsed.Milliseconds()}
		if err != nil {
			outcome = outcomeFailed
			if st, ok := p.status.Get(jobID); ok {
				props["error"] = st.Error
			}
			p.logger.Error("job failed", "job_id", jobID, "kind", kind, "error", err)
		} else {
			props["total_comments"] = meta.TotalComments
			props["object_key"] = meta.ObjectKey
			p.metrics.CommentsAnalyzed(meta.TotalComments)
			p.logger.Info("job completed", "job_id", jobID, "kind", kind, "elapsed", elapsed)
		}

		p.metrics.JobFinished(string(kind), outcome, elapsed)
		p.events.Publish(string(kind), outcome, jobID, userID, props)
	}()

	return nil
}

// Status returns the current status of a job
func (p *Policy) Status(jobID string) (entity.Status, error) {
	st, ok := p.status.Get(jobID)
	if !ok {
		return entity.Status{}, entity.ErrJobNotFound
	}
	return st, nil
}

// Running lists active jobs, oldest first
func (p *Policy) Running() []entity.RunningJob {
	now := p.now()
	active := p.status.Active()

	jobs := make([]entity.RunningJob, 0, len(active))
	for id, st := range active {
		jobs = append(jobs, entity.RunningJob{
			JobID:      id,
			Kind:       st.Kind,
			Progress:   st.Progress,
			StartTime:  st.StartTime,
			ChannelID:  st.ChannelID,
			Duration:   now.Sub(st.StartTime),
			StatusText: st.StatusText(),
		})
	}

	sort.Slice(jobs, func(i, j int) bool {
		if !jobs[i].StartTime.Equal(jobs[j].StartTime) {
			return jobs[i].StartTime.Before(jobs[j].StartTime)
		}
		return jobs[i].JobID < jobs[j].JobID
	})

	return jobs
}

// Shutdown stops accepting jobs and waits for running ones.
// When ctx expires first, running jobs are canceled and awaited.
func (p *Policy) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.logger.Warn("canceling running jobs")
		p.cancel()
		<-done
		return errors.Join(entity.ErrShuttingDown, ctx.Err())
	}
}

type noopEvents struct{}

func (noopEvents) Publish(string, string, string, string, map[string]any) {}

type noopMetrics struct{}

func (noopMetrics) JobStarted(string)                         {}
func (noopMetrics) JobFinished(string, string, time.Duration) {}
func (noopMetrics) CommentsAnalyzed(int)                      {}
