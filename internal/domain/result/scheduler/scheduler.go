package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// ExpiredResultCleaner defines the interface for removing old results
type ExpiredResultCleaner interface {
	DeleteOlderThan(ctx context.Context, days int) (int, error)
}

// Scheduler periodically deletes results older than the retention period
type Scheduler struct {
	cleaner  ExpiredResultCleaner
	interval time.Duration
	maxAge   int
	logger   *slog.Logger
	stopCh   chan struct{}
	wg       sync.WaitGroup
	running  bool
	mu       sync.Mutex
}

// New creates a new retention scheduler; maxAge is in days
func New(cleaner ExpiredResultCleaner, interval time.Duration, maxAge int, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cleaner:  cleaner,
		interval: interval,
		maxAge:   maxAge,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.logger.Info("retention scheduler started", "interval", s.interval, "max_age_days", s.maxAge)

	s.wg.Add(1)
	go s.run(ctx)
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()
	s.logger.Info("retention scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.cleanup(ctx)

	for {
		select {
		case <-ticker.C:
			s.cleanup(ctx)
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) cleanup(ctx context.Context) {
	n, err := s.cleaner.DeleteOlderThan(ctx, s.maxAge)
	if err != nil {
		s.logger.Error("failed to delete expired results", "error", err)
		return
	}
	if n > 0 {
		s.logger.Info("expired results removed", "count", n)
	}
}
