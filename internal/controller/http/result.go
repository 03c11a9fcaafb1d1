package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vadim/comments-fetcher/internal/domain/result/entity"
	"github.com/vadim/comments-fetcher/internal/httpx/response"
)

// ResultService defines the interface for stored result operations
type ResultService interface {
	Get(ctx context.Context, jobID string) (*entity.FetchResult, error)
	GetMetadata(ctx context.Context, jobID string) (*entity.Metadata, error)
	List(ctx context.Context) ([]entity.Metadata, error)
	ListByUser(ctx context.Context, userID string) ([]entity.Metadata, error)
	Exists(ctx context.Context, jobID string) (bool, error)
	Delete(ctx context.Context, jobID string) (bool, error)
	DeleteOlderThan(ctx context.Context, days int) (int, error)
	Summary(ctx context.Context) (*entity.Summary, error)
	RebuildIndex(ctx context.Context) (int, error)
}

// ResultHandler handles HTTP requests for stored results
type ResultHandler struct {
	results ResultService
}

// NewResultHandler creates a new result handler
func NewResultHandler(results ResultService) *ResultHandler {
	return &ResultHandler{results: results}
}

// RegisterRoutes registers result routes
func (h *ResultHandler) RegisterRoutes(r chi.Router) {
	r.Route("/results", func(r chi.Router) {
		r.Get("/", h.List())
		r.Get("/summary", h.Summary())

		// Admin maintenance
		r.With(RequireAdmin).Post("/cleanup", h.Cleanup())
		r.With(RequireAdmin).Post("/rebuild-index", h.RebuildIndex())

		r.Get("/{jobId}", h.Get())
		r.Head("/{jobId}", h.Head())
		r.Get("/{jobId}/exists", h.Exists())
		r.Get("/{jobId}/metadata", h.Metadata())
		r.Delete("/{jobId}", h.Delete())
	})
}

// ListResultsResponse represents the response for listing results
type ListResultsResponse struct {
	Results []entity.Metadata `json:"results"`
	Count   int               `json:"count"`
}

// List handles GET /results; admins see every result
func (h *ResultHandler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, _ := UserFromContext(r.Context())

		var (
			items []entity.Metadata
			err   error
		)
		if u.IsAdmin {
			items, err = h.results.List(r.Context())
		} else {
			items, err = h.results.ListByUser(r.Context(), u.ID)
		}
		if err != nil {
			handleResultError(w, err)
			return
		}
		if items == nil {
			items = []entity.Metadata{}
		}

		response.OK(w, ListResultsResponse{Results: items, Count: len(items)})
	}
}

// Get handles GET /results/{jobId}
func (h *ResultHandler) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := chi.URLParam(r, "jobId")
		if _, err := h.authorize(r, jobID); err != nil {
			handleResultError(w, err)
			return
		}

		res, err := h.results.Get(r.Context(), jobID)
		if err != nil {
			handleResultError(w, err)
			return
		}

		response.OK(w, res)
	}
}

// Head handles HEAD /results/{jobId}
func (h *ResultHandler) Head() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ok, err := h.results.Exists(r.Context(), chi.URLParam(r, "jobId"))
		switch {
		case err != nil:
			w.WriteHeader(http.StatusInternalServerError)
		case !ok:
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusOK)
		}
	}
}

// Exists handles GET /results/{jobId}/exists
func (h *ResultHandler) Exists() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ok, err := h.results.Exists(r.Context(), chi.URLParam(r, "jobId"))
		if err != nil {
			handleResultError(w, err)
			return
		}
		response.OK(w, map[string]bool{"exists": ok})
	}
}

// Metadata handles GET /results/{jobId}/metadata
func (h *ResultHandler) Metadata() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := h.authorize(r, chi.URLParam(r, "jobId"))
		if err != nil {
			handleResultError(w, err)
			return
		}
		response.OK(w, m)
	}
}

// Delete handles DELETE /results/{jobId}
func (h *ResultHandler) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := chi.URLParam(r, "jobId")
		if _, err := h.authorize(r, jobID); err != nil {
			handleResultError(w, err)
			return
		}

		ok, err := h.results.Delete(r.Context(), jobID)
		if err != nil {
			handleResultError(w, err)
			return
		}
		if !ok {
			handleResultError(w, entity.ErrResultNotFound)
			return
		}

		response.NoContent(w)
	}
}

// Summary handles GET /results/summary
func (h *ResultHandler) Summary() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sum, err := h.results.Summary(r.Context())
		if err != nil {
			handleResultError(w, err)
			return
		}

		response.OK(w, map[string]any{
			"total_results":               sum.TotalResults,
			"total_size":                  sum.TotalSize,
			"total_comments":              sum.TotalComments,
			"oldest_result_date":          sum.OldestResultDate,
			"newest_result_date":          sum.NewestResultDate,
			"average_size":                sum.AverageSize(),
			"average_comments_per_result": sum.AverageCommentsPerResult(),
		})
	}
}

// Cleanup handles POST /results/cleanup?days=N
func (h *ResultHandler) Cleanup() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days, err := strconv.Atoi(r.URL.Query().Get("days"))
		if err != nil || days <= 0 {
			response.BadRequest(w, "days must be a positive integer")
			return
		}

		n, err := h.results.DeleteOlderThan(r.Context(), days)
		if err != nil {
			handleResultError(w, err)
			return
		}

		response.OK(w, map[string]int{"deleted": n, "days": days})
	}
}

// RebuildIndex handles POST /results/rebuild-index
func (h *ResultHandler) RebuildIndex() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := h.results.RebuildIndex(r.Context())
		if err != nil {
			handleResultError(w, err)
			return
		}
		response.OK(w, map[string]int{"indexed": n})
	}
}

var errNotOwner = errors.New("result belongs to another user")

// authorize loads metadata and checks that the caller owns it
func (h *ResultHandler) authorize(r *http.Request, jobID string) (*entity.Metadata, error) {
	m, err := h.results.GetMetadata(r.Context(), jobID)
	if err != nil {
		return nil, err
	}

	u, _ := UserFromContext(r.Context())
	if !u.IsAdmin && m.UserID != u.ID {
		return nil, errNotOwner
	}
	return m, nil
}

// handleResultError maps result domain errors to HTTP responses
func handleResultError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrResultNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, errNotOwner):
		response.Forbidden(w, err.Error())
	case errors.Is(err, entity.ErrInvalidRetention):
		response.BadRequest(w, err.Error())
	default:
		response.InternalError(w, "internal server error")
	}
}
