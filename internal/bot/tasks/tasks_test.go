package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/cardiobot/internal/config"
	"github.com/edgard/cardiobot/internal/logger"
)

type fakeMaintainer struct {
	vacuumErr  error
	deleteErr  error
	vacuumed   int
	cutoffs    []time.Time
	deleteRows int64
}

func (f *fakeMaintainer) RunSQLMaintenance(context.Context) error {
	f.vacuumed++
	return f.vacuumErr
}

func (f *fakeMaintainer) DeleteMessagesOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoffs = append(f.cutoffs, cutoff)
	return f.deleteRows, f.deleteErr
}

func newDeps(store *fakeMaintainer, retention time.Duration, now time.Time) TaskDeps {
	cfg := &config.Config{Agent: config.AgentConfig{HistoryRetention: retention}}
	return TaskDeps{
		Logger: logger.Discard(),
		Store:  store,
		Config: cfg,
		Now:    func() time.Time { return now },
	}
}

func TestRegisterAllTasks(t *testing.T) {
	t.Parallel()

	tasks := RegisterAllTasks(newDeps(&fakeMaintainer{}, time.Hour, time.Now()))
	assert.Len(t, tasks, 2)
	assert.Contains(t, tasks, "sql_maintenance")
	assert.Contains(t, tasks, "history_cleanup")

	// Every registered task has a default schedule.
	for name := range tasks {
		assert.Contains(t, config.DefaultSchedulerTasks, name)
	}
}

func TestSQLMaintenanceTask(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		store := &fakeMaintainer{}
		task := newSQLMaintenanceTask(newDeps(store, time.Hour, time.Now()))

		require.NoError(t, task(context.Background()))
		assert.Equal(t, 1, store.vacuumed)
	})

	t.Run("failure is wrapped", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("disk full")
		store := &fakeMaintainer{vacuumErr: boom}
		task := newSQLMaintenanceTask(newDeps(store, time.Hour, time.Now()))

		err := task(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
	})
}

func TestHistoryCleanupTask(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("deletes before cutoff", func(t *testing.T) {
		t.Parallel()
		store := &fakeMaintainer{deleteRows: 4}
		task := newHistoryCleanupTask(newDeps(store, 24*time.Hour, now))

		require.NoError(t, task(context.Background()))
		require.Len(t, store.cutoffs, 1)
		assert.Equal(t, now.Add(-24*time.Hour), store.cutoffs[0])
	})

	t.Run("zero retention skips", func(t *testing.T) {
		t.Parallel()
		store := &fakeMaintainer{}
		task := newHistoryCleanupTask(newDeps(store, 0, now))

		require.NoError(t, task(context.Background()))
		assert.Empty(t, store.cutoffs)
	})

	t.Run("store error", func(t *testing.T) {
		t.Parallel()
		store := &fakeMaintainer{deleteErr: context.DeadlineExceeded}
		task := newHistoryCleanupTask(newDeps(store, time.Hour, now))

		err := task(context.Background())
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
