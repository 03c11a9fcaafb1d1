package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	comment "github.com/vadim/comments-fetcher/internal/domain/comment/entity"
	"github.com/vadim/comments-fetcher/internal/domain/result/dao"
	"github.com/vadim/comments-fetcher/internal/domain/result/entity"
	"github.com/vadim/comments-fetcher/internal/domain/result/service"
)

func newResultFixture(t *testing.T) (chi.Router, *service.Service) {
	t.Helper()

	svc := service.New(dao.NewMetadataMemory(), dao.NewPayloadMemory(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	for jobID, owner := range map[string]string{"a1": "alice", "a2": "alice", "b1": "bob"} {
		_, err := svc.Save(ctx, service.SaveInput{
			JobID:     jobID,
			ChannelID: "UC1",
			UserID:    owner,
			Result: &entity.FetchResult{
				Videos:   []comment.Video{{VideoID: "v"}},
				Comments: []comment.Comment{{AuthorDisplayName: owner, TextDisplay: "hello"}},
			},
		})
		require.NoError(t, err)
	}

	auth := newTestAuth()
	r := chi.NewRouter()
	r.Use(auth.Middleware)
	NewResultHandler(svc).RegisterRoutes(r)
	return r, svc
}

func call(r http.Handler, method, path, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("X-API-Key", key)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestResultList_ScopedToCaller(t *testing.T) {
	r, _ := newResultFixture(t)

	decode := func(w *httptest.ResponseRecorder) ListResultsResponse {
		require.Equal(t, http.StatusOK, w.Code)
		var resp ListResultsResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		return resp
	}

	assert.Equal(t, 2, decode(call(r, http.MethodGet, "/results", "k-alice")).Count)
	assert.Equal(t, 1, decode(call(r, http.MethodGet, "/results", "k-bob")).Count)
	assert.Equal(t, 3, decode(call(r, http.MethodGet, "/results", "k-root")).Count)
}

func TestResultGet_Ownership(t *testing.T) {
	r, _ := newResultFixture(t)

	w := call(r, http.MethodGet, "/results/a1", "k-alice")
	require.Equal(t, http.StatusOK, w.Code)
	var res entity.FetchResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
	require.Len(t, res.Comments, 1)
	assert.Equal(t, "alice", res.Comments[0].AuthorDisplayName)

	assert.Equal(t, http.StatusForbidden, call(r, http.MethodGet, "/results/a1", "k-bob").Code)
	assert.Equal(t, http.StatusOK, call(r, http.MethodGet, "/results/a1", "k-root").Code)
	assert.Equal(t, http.StatusNotFound, call(r, http.MethodGet, "/results/zz", "k-alice").Code)

	w = call(r, http.MethodGet, "/results/b1/metadata", "k-bob")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"job_id":"b1"`)
}

func TestResultHeadAndExists(t *testing.T) {
	r, _ := newResultFixture(t)

	assert.Equal(t, http.StatusOK, call(r, http.MethodHead, "/results/a1", "k-bob").Code)
	assert.Equal(t, http.StatusNotFound, call(r, http.MethodHead, "/results/zz", "k-bob").Code)

	w := call(r, http.MethodGet, "/results/zz/exists", "k-bob")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"exists":false}`, w.Body.String())
}

func TestResultDelete(t *testing.T) {
	r, svc := newResultFixture(t)

	assert.Equal(t, http.StatusForbidden, call(r, http.MethodDelete, "/results/a1", "k-bob").Code)
	assert.Equal(t, http.StatusNoContent, call(r, http.MethodDelete, "/results/a1", "k-alice").Code)
	assert.Equal(t, http.StatusNotFound, call(r, http.MethodDelete, "/results/a1", "k-alice").Code)

	ok, err := svc.Exists(context.Background(), "a1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResultSummary(t *testing.T) {
	r, _ := newResultFixture(t)

	w := call(r, http.MethodGet, "/results/summary", "k-alice")
	require.Equal(t, http.StatusOK, w.Code)

	var sum map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&sum))
	assert.EqualValues(t, 3, sum["total_results"])
	assert.EqualValues(t, 3, sum["total_comments"])
	assert.EqualValues(t, 1, sum["average_comments_per_result"])
}

func TestResultAdminRoutes(t *testing.T) {
	r, _ := newResultFixture(t)

	assert.Equal(t, http.StatusForbidden, call(r, http.MethodPost, "/results/cleanup?days=1", "k-alice").Code)
	assert.Equal(t, http.StatusBadRequest, call(r, http.MethodPost, "/results/cleanup?days=0", "k-root").Code)
	assert.Equal(t, http.StatusBadRequest, call(r, http.MethodPost, "/results/cleanup", "k-root").Code)

	w := call(r, http.MethodPost, "/results/cleanup?days=1", "k-root")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"deleted":0,"days":1}`, w.Body.String())

	w = call(r, http.MethodPost, "/results/rebuild-index", "k-root")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"indexed":3}`, w.Body.String())
}
