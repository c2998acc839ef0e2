package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the database operations used by the agent, the tools and the
// scheduled maintenance tasks.
type Store interface {
	// LoadRecent returns up to limit messages of a user, newest first.
	LoadRecent(ctx context.Context, userID string, limit int) ([]ChatMessage, error)

	// AppendTurn stores a user message and the assistant reply in one transaction.
	AppendTurn(ctx context.Context, userID, userText, assistantText string) error

	// DeleteUserMessages removes a user's whole conversation.
	DeleteUserMessages(ctx context.Context, userID string) (int64, error)

	// DeleteMessagesOlderThan removes messages created before cutoff.
	DeleteMessagesOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error

	// UpsertFood inserts or replaces a catalog recipe.
	UpsertFood(ctx context.Context, food *Food) error

	// SearchFoods returns recipes matching the filter's per-serving bounds.
	SearchFoods(ctx context.Context, filter FoodFilter) ([]Food, error)

	// QueryReadOnly runs a statement on a query-only connection and returns at
	// most maxRows rows.
	QueryReadOnly(ctx context.Context, query string, maxRows int) ([]map[string]any, error)

	// Schema lists the user tables and their columns as "name (type)".
	Schema(ctx context.Context) (map[string][]string, error)
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewStore creates a new Store implementation backed by sqlx.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

func (s *sqlxStore) LoadRecent(ctx context.Context, userID string, limit int) ([]ChatMessage, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id cannot be empty")
	}
	if limit <= 0 {
		return []ChatMessage{}, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	messages := []ChatMessage{}
	query := `
        SELECT id, user_id, role, message, created_at
        FROM agent_chat_messages
        WHERE user_id = ?
        ORDER BY id DESC
        LIMIT ?;
    `
	err := s.db.SelectContext(ctx, &messages, query, userID, limit)
	switch {
	case isContextErr(err):
		s.logger.WarnContext(ctx, "Loading recent messages timed out or was cancelled", "user_id", userID, "error", err)
		return nil, fmt.Errorf("loading recent messages timed out: %w", err)
	case err != nil:
		s.logger.ErrorContext(ctx, "Error loading recent messages", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to load recent messages for user %s: %w", userID, err)
	}

	s.logger.DebugContext(ctx, "Loaded recent messages", "user_id", userID, "count", len(messages))
	return messages, nil
}

func (s *sqlxStore) AppendTurn(ctx context.Context, userID, userText, assistantText string) error {
	if userID == "" {
		return fmt.Errorf("user_id cannot be empty")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for chat turn", "user_id", userID, "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
				s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
			}
		}
	}()

	now := s.now()
	query := `
        INSERT INTO agent_chat_messages (user_id, role, message, created_at)
        VALUES (:user_id, :role, :message, :created_at);
    `
	for _, msg := range []ChatMessage{
		{UserID: userID, Role: RoleUser, Content: userText, CreatedAt: now},
		{UserID: userID, Role: RoleAssistant, Content: assistantText, CreatedAt: now},
	} {
		if _, err := tx.NamedExecContext(ctx, query, msg); err != nil {
			s.logger.ErrorContext(ctx, "Error saving chat message", "user_id", userID, "role", msg.Role, "error", err)
			return fmt.Errorf("failed to save %s message for user %s: %w", msg.Role, userID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit chat turn", "user_id", userID, "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil

	s.logger.DebugContext(ctx, "Chat turn saved", "user_id", userID)
	return nil
}

func (s *sqlxStore) DeleteUserMessages(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, fmt.Errorf("user_id cannot be empty")
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM agent_chat_messages WHERE user_id = ?;", userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete user messages", "user_id", userID, "error", err)
		return 0, fmt.Errorf("failed to delete messages for user %s: %w", userID, err)
	}
	deleted, _ := res.RowsAffected()
	s.logger.InfoContext(ctx, "Deleted user conversation", "user_id", userID, "deleted", deleted)
	return deleted, nil
}

func (s *sqlxStore) DeleteMessagesOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM agent_chat_messages WHERE created_at < ?;", cutoff.UTC())
	switch {
	case isContextErr(err):
		s.logger.WarnContext(ctx, "Message cleanup timed out or was cancelled", "error", err)
		return 0, fmt.Errorf("message cleanup timed out: %w", err)
	case err != nil:
		s.logger.ErrorContext(ctx, "Failed to delete old messages", "cutoff", cutoff, "error", err)
		return 0, fmt.Errorf("failed to delete messages older than %s: %w", cutoff.Format(time.RFC3339), err)
	}
	deleted, _ := res.RowsAffected()
	s.logger.InfoContext(ctx, "Deleted expired chat messages", "cutoff", cutoff, "deleted", deleted)
	return deleted, nil
}

// RunSQLMaintenance executes a VACUUM command on the SQLite database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		s.logger.WarnContext(ctx, "Failed to set busy timeout", "error", err)
	}

	// VACUUM cannot run inside a transaction.
	_, err := s.db.ExecContext(ctx, "VACUUM;")
	switch {
	case isContextErr(err):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)
	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	return nil
}
