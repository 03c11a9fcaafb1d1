package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingCleaner struct {
	calls atomic.Int32
	days  atomic.Int32
	err   error
}

func (c *countingCleaner) DeleteOlderThan(_ context.Context, days int) (int, error) {
	c.calls.Add(1)
	c.days.Store(int32(days))
	return 1, c.err
}

func TestScheduler_RunsImmediatelyAndOnTick(t *testing.T) {
	cleaner := &countingCleaner{}
	s := New(cleaner, 10*time.Millisecond, 30, slog.New(slog.NewTextHandler(io.Discard, nil)))

	s.Start(context.Background())
	s.Start(context.Background())

	assert.Eventually(t, func() bool { return cleaner.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	s.Stop()
	s.Stop()

	assert.Equal(t, int32(30), cleaner.days.Load())

	calls := cleaner.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, cleaner.calls.Load(), "no runs after stop")
}

func TestScheduler_ErrorsDoNotStopLoop(t *testing.T) {
	cleaner := &countingCleaner{err: errors.New("storage down")}
	s := New(cleaner, 5*time.Millisecond, 7, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	assert.Eventually(t, func() bool { return cleaner.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	s.Stop()
}
