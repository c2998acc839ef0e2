package bot

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/cardiobot/internal/bot/tasks"
	"github.com/edgard/cardiobot/internal/config"
	"github.com/edgard/cardiobot/internal/logger"
)

type blockingListener struct{ started atomic.Bool }

func (l *blockingListener) Start(ctx context.Context) {
	l.started.Store(true)
	<-ctx.Done()
}

type returningListener struct{}

func (returningListener) Start(context.Context) {}

func newTestScheduler(t *testing.T, cfg *config.SchedulerConfig, taskMap map[string]tasks.ScheduledTaskFunc) *Scheduler {
	t.Helper()
	s, err := NewScheduler(logger.Discard(), cfg, taskMap)
	require.NoError(t, err)
	return s
}

func TestSchedulerRegistersEnabledTasks(t *testing.T) {
	t.Parallel()

	noop := func(context.Context) error { return nil }
	cfg := &config.SchedulerConfig{Tasks: map[string]config.TaskConfig{
		"sql_maintenance": {Enabled: true, Schedule: "0 0 4 * * *"},
		"history_cleanup": {Enabled: false, Schedule: "0 0 * * * *"},
		"unregistered":    {Enabled: true, Schedule: "0 0 * * * *"},
		"bad_schedule":    {Enabled: true, Schedule: "not a cron"},
	}}
	s := newTestScheduler(t, cfg, map[string]tasks.ScheduledTaskFunc{
		"sql_maintenance": noop,
		"history_cleanup": noop,
		"bad_schedule":    noop,
	})

	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Stop() })

	jobs := s.scheduler.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "sql_maintenance", jobs[0].Name())

	assert.Error(t, s.Start(context.Background()), "second start must fail")
}

func TestSchedulerStopIsIdempotent(t *testing.T) {
	t.Parallel()

	s := newTestScheduler(t, &config.SchedulerConfig{}, nil)
	assert.NoError(t, s.Stop())
	require.NoError(t, s.Start(context.Background()))
	assert.NoError(t, s.Stop())
	assert.NoError(t, s.Stop())
}

func TestBotRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	listener := &blockingListener{}
	b := NewBot(logger.Discard(), listener, newTestScheduler(t, &config.SchedulerConfig{}, nil))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	require.Eventually(t, listener.started.Load, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestBotRunFailsWhenListenerExits(t *testing.T) {
	t.Parallel()

	b := NewBot(logger.Discard(), returningListener{}, newTestScheduler(t, &config.SchedulerConfig{}, nil))
	err := b.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stopped unexpectedly")
}
