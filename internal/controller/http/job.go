package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vadim/comments-fetcher/internal/domain/job/entity"
	"github.com/vadim/comments-fetcher/internal/domain/job/policy"
	"github.com/vadim/comments-fetcher/internal/httpx/response"
)

const uploadField = "file"

// JobPolicy defines the interface for job operations
type JobPolicy interface {
	StartFetch(ctx context.Context, in policy.StartFetchInput) (string, error)
	StartAnalysis(ctx context.Context, in policy.StartAnalysisInput) (string, error)
	Status(jobID string) (entity.Status, error)
	Running() []entity.RunningJob
}

// JobHandler handles HTTP requests for fetch and analysis jobs
type JobHandler struct {
	policy         JobPolicy
	maxUploadBytes int64
}

// NewJobHandler creates a new job handler
func NewJobHandler(p JobPolicy, maxUploadBytes int64) *JobHandler {
	return &JobHandler{policy: p, maxUploadBytes: maxUploadBytes}
}

// RegisterRoutes registers job routes
func (h *JobHandler) RegisterRoutes(r chi.Router) {
	// Queue a channel fetch
	r.Post("/fetch", h.StartFetch())

	// Queue analysis of an uploaded corpus
	r.Post("/analyze", h.StartAnalysis())

	r.Route("/jobs", func(r chi.Router) {
		r.Get("/", h.Running())
		r.Get("/{jobId}", h.Status())
	})
}

// StartFetchRequest represents the request body for starting a fetch
type StartFetchRequest struct {
	ChannelID string `json:"channel_id"`
	PageSize  int    `json:"page_size,omitempty"`
	MaxPages  int    `json:"max_pages,omitempty"`
}

// JobQueuedResponse represents the response for a queued job
type JobQueuedResponse struct {
	JobID     string `json:"job_id"`
	StatusURL string `json:"status_url"`
}

func queued(jobID string) JobQueuedResponse {
	return JobQueuedResponse{JobID: jobID, StatusURL: "/api/v1/jobs/" + jobID}
}

// StartFetch handles POST /fetch
func (h *JobHandler) StartFetch() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req StartFetchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid request body")
			return
		}

		u, _ := UserFromContext(r.Context())
		jobID, err := h.policy.StartFetch(r.Context(), policy.StartFetchInput{
			ChannelID: req.ChannelID,
			PageSize:  req.PageSize,
			MaxPages:  req.MaxPages,
			UserID:    u.ID,
		})
		if err != nil {
			handleJobError(w, err)
			return
		}

		response.Accepted(w, queued(jobID))
	}
}

// StartAnalysis handles POST /analyze with a JSON body or a multipart "file" field
func (h *JobHandler) StartAnalysis() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := h.readUpload(w, r)
		if err != nil {
			handleJobError(w, err)
			return
		}

		u, _ := UserFromContext(r.Context())
		jobID, err := h.policy.StartAnalysis(r.Context(), policy.StartAnalysisInput{
			Payload: payload,
			UserID:  u.ID,
		})
		if err != nil {
			handleJobError(w, err)
			return
		}

		response.Accepted(w, queued(jobID))
	}
}

func (h *JobHandler) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if h.maxUploadBytes > 0 {
		// multipart framing needs headroom beyond the file itself
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+1<<20)
	}

	var body io.Reader = r.Body
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "multipart/form-data" {
		file, _, err := r.FormFile(uploadField)
		if err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				return nil, entity.ErrUploadTooLarge
			}
			return nil, entity.ErrEmptyUpload
		}
		defer file.Close()
		body = file
	}

	data, err := io.ReadAll(body)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, entity.ErrUploadTooLarge
		}
		return nil, err
	}
	return data, nil
}

// JobStatusResponse represents a job's status
type JobStatusResponse struct {
	JobID      string      `json:"job_id"`
	Kind       entity.Kind `json:"kind,omitempty"`
	Progress   int         `json:"progress"`
	Completed  bool        `json:"completed"`
	Error      string      `json:"error,omitempty"`
	StatusText string      `json:"status_text"`
	ChannelID  string      `json:"channel_id,omitempty"`
	StartTime  time.Time   `json:"start_time"`
	ResultURL  string      `json:"result_url,omitempty"`
}

// Status handles GET /jobs/{jobId}
func (h *JobHandler) Status() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := chi.URLParam(r, "jobId")

		st, err := h.policy.Status(jobID)
		if err != nil {
			handleJobError(w, err)
			return
		}

		resp := JobStatusResponse{
			JobID:      jobID,
			Kind:       st.Kind,
			Progress:   st.Progress,
			Completed:  st.Completed,
			Error:      st.Error,
			StatusText: st.StatusText(),
			ChannelID:  st.ChannelID,
			StartTime:  st.StartTime,
		}
		if st.Completed {
			resp.ResultURL = "/api/v1/results/" + jobID
		}

		response.OK(w, resp)
	}
}

// RunningJobsResponse represents the list of active jobs
type RunningJobsResponse struct {
	Jobs  []entity.RunningJob `json:"jobs"`
	Count int                 `json:"count"`
}

// Running handles GET /jobs
func (h *JobHandler) Running() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobs := h.policy.Running()
		response.OK(w, RunningJobsResponse{Jobs: jobs, Count: len(jobs)})
	}
}

// handleJobError maps job domain errors to HTTP responses
func handleJobError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrJobNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, entity.ErrInvalidChannelID), errors.Is(err, entity.ErrEmptyUpload):
		response.BadRequest(w, err.Error())
	case errors.Is(err, entity.ErrUploadTooLarge):
		response.TooLarge(w, err.Error())
	case errors.Is(err, entity.ErrShuttingDown):
		response.Unavailable(w, err.Error())
	default:
		response.InternalError(w, "internal server error")
	}
}
