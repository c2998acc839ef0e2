// Package tasks implements the scheduled maintenance jobs of cardiobot.
package tasks

import (
	"context"
	"log/slog"
	"time"

	"github.com/edgard/cardiobot/internal/config"
)

// Maintainer is the part of database.Store used by scheduled tasks.
type Maintainer interface {
	RunSQLMaintenance(ctx context.Context) error
	DeleteMessagesOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// TaskDeps contains the dependencies shared by scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Store  Maintainer
	Config *config.Config

	// Now defaults to time.Now.
	Now func() time.Time
}

func (d TaskDeps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}
