package policy

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadim/comments-fetcher/internal/domain/job/dao"
	"github.com/vadim/comments-fetcher/internal/domain/job/entity"
	"github.com/vadim/comments-fetcher/internal/domain/job/service"
	resultentity "github.com/vadim/comments-fetcher/internal/domain/result/entity"
)

// fakeRunner blocks each job until release is closed
type fakeRunner struct {
	status  dao.StatusStore
	release chan struct{}
	fail    bool

	mu      sync.Mutex
	fetches []service.FetchInput
	uploads []service.AnalyzeInput

	running atomic.Int32
	peak    atomic.Int32
}

func newFakeRunner(status dao.StatusStore) *fakeRunner {
	return &fakeRunner{status: status, release: make(chan struct{})}
}

func (f *fakeRunner) work(ctx context.Context, jobID string) (*resultentity.Metadata, error) {
	n := f.running.Add(1)
	defer f.running.Add(-1)
	for {
		peak := f.peak.Load()
		if n <= peak || f.peak.CompareAndSwap(peak, n) {
			break
		}
	}

	select {
	case <-f.release:
	case <-ctx.Done():
		f.status.ReportError(jobID, entity.MsgShutdownCanceled)
		return nil, ctx.Err()
	}

	if f.fail {
		f.status.ReportError(jobID, entity.MsgFetchFailed)
		return nil, errors.New("upstream down")
	}
	f.status.MarkCompleted(jobID)
	return &resultentity.Metadata{JobID: jobID, TotalComments: 5}, nil
}

func (f *fakeRunner) Fetch(ctx context.Context, in service.FetchInput) (*resultentity.Metadata, error) {
	f.mu.Lock()
	f.fetches = append(f.fetches, in)
	f.mu.Unlock()
	return f.work(ctx, in.JobID)
}

func (f *fakeRunner) Analyze(ctx context.Context, in service.AnalyzeInput) (*resultentity.Metadata, error) {
	f.mu.Lock()
	f.uploads = append(f.uploads, in)
	f.mu.Unlock()
	return f.work(ctx, in.JobID)
}

type recordedEvent struct {
	kind, outcome, jobID, userID string
	props                        map[string]any
}

type fakeEvents struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakeEvents) Publish(kind, outcome, jobID, userID string, props map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{kind, outcome, jobID, userID, props})
}

func (f *fakeEvents) all() []recordedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedEvent(nil), f.events...)
}

func newTestPolicy(cfg Config) (*Policy, *fakeRunner, *fakeEvents) {
	status := dao.NewStatusMemory()
	runner := newFakeRunner(status)
	ev := &fakeEvents{}
	p := New(runner, status, ev, nil, slog.New(slog.NewTextHandler(io.Discard, nil)), cfg)

	var seq atomic.Int32
	p.newID = func() string { return "job-" + strconv.Itoa(int(seq.Add(1))) }
	return p, runner, ev
}

func TestStartFetch_Validation(t *testing.T) {
	p, _, _ := newTestPolicy(Config{})

	_, err := p.StartFetch(context.Background(), StartFetchInput{ChannelID: "   "})
	assert.ErrorIs(t, err, entity.ErrInvalidChannelID)
}

func TestStartFetch_AppliesDefaults(t *testing.T) {
	p, runner, events := newTestPolicy(Config{MaxPages: 3})
	close(runner.release)

	id, err := p.StartFetch(context.Background(), StartFetchInput{ChannelID: " UC1 ", PageSize: 500, MaxPages: 10, UserID: "alice"})
	require.NoError(t, err)
	assert.Equal(t, "job-1", id)

	require.NoError(t, p.Shutdown(context.Background()))

	require.Len(t, runner.fetches, 1)
	in := runner.fetches[0]
	assert.Equal(t, "UC1", in.ChannelID)
	assert.Equal(t, DefaultPageSize, in.PageSize)
	assert.Equal(t, 3, in.MaxPages)
	assert.Equal(t, "alice", in.UserID)

	st, err := p.Status(id)
	require.NoError(t, err)
	assert.True(t, st.Completed)
	assert.Equal(t, entity.KindFetch, st.Kind)

	evs := events.all()
	require.Len(t, evs, 1)
	assert.Equal(t, "fetch", evs[0].kind)
	assert.Equal(t, "completed", evs[0].outcome)
	assert.Equal(t, "alice", evs[0].userID)
	assert.Equal(t, 5, evs[0].props["total_comments"])
}

func TestStartAnalysis_Validation(t *testing.T) {
	p, _, _ := newTestPolicy(Config{MaxUploadBytes: 4})

	_, err := p.StartAnalysis(context.Background(), StartAnalysisInput{})
	assert.ErrorIs(t, err, entity.ErrEmptyUpload)

	_, err = p.StartAnalysis(context.Background(), StartAnalysisInput{Payload: []byte("12345")})
	assert.ErrorIs(t, err, entity.ErrUploadTooLarge)
}

func TestFailedJobPublishesFailure(t *testing.T) {
	p, runner, events := newTestPolicy(Config{})
	runner.fail = true
	close(runner.release)

	id, err := p.StartAnalysis(context.Background(), StartAnalysisInput{Payload: []byte(`{}`)})
	require.NoError(t, err)
	require.NoError(t, p.Shutdown(context.Background()))

	st, err := p.Status(id)
	require.NoError(t, err)
	assert.True(t, st.Failed())

	evs := events.all()
	require.Len(t, evs, 1)
	assert.Equal(t, "analyze", evs[0].kind)
	assert.Equal(t, "failed", evs[0].outcome)
	assert.Equal(t, entity.MsgFetchFailed, evs[0].props["error"])
}

func TestWorkersBoundConcurrency(t *testing.T) {
	p, runner, _ := newTestPolicy(Config{Workers: 2})

	for i := 0; i < 5; i++ {
		_, err := p.StartFetch(context.Background(), StartFetchInput{ChannelID: "UC1"})
		require.NoError(t, err)
	}

	assert.Eventually(t, func() bool { return runner.running.Load() == 2 }, time.Second, 5*time.Millisecond)
	assert.Len(t, p.Running(), 5, "queued jobs count as running")

	close(runner.release)
	require.NoError(t, p.Shutdown(context.Background()))

	assert.LessOrEqual(t, runner.peak.Load(), int32(2))
	assert.Empty(t, p.Running())
}

func TestRunning_ReportsActiveJobs(t *testing.T) {
	p, runner, _ := newTestPolicy(Config{})

	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return start.Add(time.Minute) }

	id, err := p.StartFetch(context.Background(), StartFetchInput{ChannelID: "UC9"})
	require.NoError(t, err)

	running := p.Running()
	require.Len(t, running, 1)
	assert.Equal(t, id, running[0].JobID)
	assert.Equal(t, "UC9", running[0].ChannelID)
	assert.Equal(t, entity.KindFetch, running[0].Kind)
	assert.Equal(t, "Initializing...", running[0].StatusText)

	close(runner.release)
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestStatus_UnknownJob(t *testing.T) {
	p, _, _ := newTestPolicy(Config{})

	_, err := p.Status("nope")
	assert.ErrorIs(t, err, entity.ErrJobNotFound)
}

func TestShutdown_CancelsAfterDeadline(t *testing.T) {
	p, runner, events := newTestPolicy(Config{Workers: 1})

	first, err := p.StartFetch(context.Background(), StartFetchInput{ChannelID: "UC1"})
	require.NoError(t, err)
	queued, err := p.StartFetch(context.Background(), StartFetchInput{ChannelID: "UC2"})
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return runner.running.Load() == 1 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = p.Shutdown(ctx)
	require.ErrorIs(t, err, entity.ErrShuttingDown)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	for _, id := range []string{first, queued} {
		st, err := p.Status(id)
		require.NoError(t, err)
		assert.Equal(t, entity.MsgShutdownCanceled, st.Error)
	}

	_, err = p.StartFetch(context.Background(), StartFetchInput{ChannelID: "UC3"})
	assert.ErrorIs(t, err, entity.ErrShuttingDown)

	evs := events.all()
	require.NotEmpty(t, evs)
	assert.Equal(t, "failed", evs[0].outcome)
}
