package entity

import (
	"errors"
	"time"
)

// Kind is the type of work a job performs
type Kind string

const (
	KindFetch   Kind = "fetch"
	KindAnalyze Kind = "analyze"
)

// Status tracks a job's progress
type Status struct {
	Progress  int       `json:"progress"` // 0-100
	Completed bool      `json:"completed"`
	Error     string    `json:"error,omitempty"`
	StartTime time.Time `json:"start_time"`
	ChannelID string    `json:"channel_id,omitempty"`
	Kind      Kind      `json:"kind,omitempty"`
}

// Failed reports whether the job stopped with an error
func (s Status) Failed() bool {
	return s.Error != ""
}

// Active reports whether the job is still running
func (s Status) Active() bool {
	return !s.Completed && !s.Failed()
}

// StatusText describes the job stage for its progress
func (s Status) StatusText() string {
	if s.Failed() {
		return "Failed"
	}
	if s.Completed {
		return "Completed"
	}

	switch {
	case s.Progress == 0:
		return "Initializing..."
	case s.Progress < 10:
		return "Fetching channel information..."
	case s.Progress < 50:
		return "Loading comments..."
	case s.Progress < 90:
		return "Processing data..."
	case s.Progress < 100:
		return "Saving results..."
	default:
		return "Finishing..."
	}
}

// RunningJob is an active job as shown to callers
type RunningJob struct {
	JobID      string        `json:"job_id"`
	Kind       Kind          `json:"kind"`
	Progress   int           `json:"progress"`
	StartTime  time.Time     `json:"start_time"`
	ChannelID  string        `json:"channel_id,omitempty"`
	Duration   time.Duration `json:"duration"`
	StatusText string        `json:"status_text"`
}

// User-facing job failure messages
const (
	MsgTimedOut         = "Analysis timed out. The file may be too large to process."
	MsgInvalidJSON      = "Invalid JSON format in uploaded file"
	MsgUnexpected       = "An unexpected error occurred during analysis"
	MsgChannelNotFound  = "Channel not found"
	MsgFetchFailed      = "Failed to fetch comments from YouTube"
	MsgSaveFailed       = "Failed to save results"
	MsgShutdownCanceled = "Job was canceled by server shutdown"
)

// Domain errors
var (
	ErrJobNotFound      = errors.New("job not found")
	ErrInvalidChannelID = errors.New("channel_id is required")
	ErrEmptyUpload      = errors.New("uploaded file is empty")
	ErrUploadTooLarge   = errors.New("uploaded file is too large")
	ErrShuttingDown     = errors.New("server is shutting down")
)
