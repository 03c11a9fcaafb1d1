package dao

import (
	"sync"
	"time"

	"github.com/vadim/comments-fetcher/internal/domain/job/entity"
)

// StatusStore tracks job progress keyed by job ID
type StatusStore interface {
	// Init registers a new job at zero progress
	Init(jobID string, kind entity.Kind, channelID string)
	// ReportProgress updates progress, registering the job if unknown
	ReportProgress(jobID string, percent int)
	// ReportError marks the job as failed with a user-facing message
	ReportError(jobID string, message string)
	// MarkCompleted marks the job as done at 100%
	MarkCompleted(jobID string)
	// Get returns the job status; unknown jobs return a zero status and false
	Get(jobID string) (entity.Status, bool)
	// Active returns all jobs that are neither completed nor failed
	Active() map[string]entity.Status
	// Forget drops finished jobs older than the given age
	Forget(olderThan time.Duration) int
}

// StatusMemory implements StatusStore in process memory
type StatusMemory struct {
	mu       sync.RWMutex
	statuses map[string]entity.Status
	now      func() time.Time
}

// NewStatusMemory creates an in-memory status store
func NewStatusMemory() *StatusMemory {
	return &StatusMemory{
		statuses: make(map[string]entity.Status),
		now:      time.Now,
	}
}

// Init registers a new job at zero progress
func (s *StatusMemory) Init(jobID string, kind entity.Kind, channelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.statuses[jobID] = entity.Status{
		StartTime: s.now().UTC(),
		ChannelID: channelID,
		Kind:      kind,
	}
}

// ReportProgress updates progress, clamped to 0..100
func (s *StatusMemory) ReportProgress(jobID string, percent int) {
	percent = max(0, min(percent, 100))

	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.statuses[jobID]
	if !ok {
		st = entity.Status{StartTime: s.now().UTC()}
	}
	st.Progress = percent
	s.statuses[jobID] = st
}

// ReportError marks the job as failed
func (s *StatusMemory) ReportError(jobID string, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.statuses[jobID]
	if !ok {
		st = entity.Status{StartTime: s.now().UTC()}
	}
	st.Error = message
	s.statuses[jobID] = st
}

// MarkCompleted marks the job as done
func (s *StatusMemory) MarkCompleted(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.statuses[jobID]
	if !ok {
		st = entity.Status{StartTime: s.now().UTC()}
	}
	st.Progress = 100
	st.Completed = true
	s.statuses[jobID] = st
}

// Get returns the job status
func (s *StatusMemory) Get(jobID string) (entity.Status, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.statuses[jobID]
	return st, ok
}

// Active returns a snapshot of running jobs
func (s *StatusMemory) Active() map[string]entity.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]entity.Status)
	for id, st := range s.statuses {
		if st.Active() {
			out[id] = st
		}
	}
	return out
}

// Forget drops finished jobs started before now-olderThan
func (s *StatusMemory) Forget(olderThan time.Duration) int {
	cutoff := s.now().Add(-olderThan)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, st := range s.statuses {
		if !st.Active() && st.StartTime.Before(cutoff) {
			delete(s.statuses, id)
			removed++
		}
	}
	return removed
}
