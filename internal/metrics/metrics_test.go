package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsEndpoint(t *testing.T) {
	m := New()
	m.JobStarted("fetch")
	m.JobFinished("fetch", OutcomeCompleted, 2*time.Second)
	m.CommentsAnalyzed(42)
	m.ResultsDeleted(3)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")

	body := w.Body.String()
	for _, want := range []string{
		"go_goroutines",
		"promhttp_metric_handler",
		`comments_fetcher_jobs_started_total{kind="fetch"} 1`,
		`comments_fetcher_jobs_finished_total{kind="fetch",outcome="completed"} 1`,
		`comments_fetcher_jobs_running{kind="fetch"} 0`,
		"comments_fetcher_comments_analyzed_total 42",
		"comments_fetcher_results_deleted_total 3",
		"comments_fetcher_job_duration_seconds_bucket",
	} {
		assert.Contains(t, body, want)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.JobStarted("analyze")
		m.JobFinished("analyze", OutcomeFailed, time.Second)
		m.CommentsAnalyzed(1)
		m.ResultsDeleted(1)
	})
	assert.NotNil(t, m.Handler())
}
