package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// NotifyRepository stores per-owner fan-out lists: other chats to inform
// when the owner gains a new record. Set semantics, duplicates collapse.
type NotifyRepository interface {
	Add(ctx context.Context, owner, recipient int64) error
	Remove(ctx context.Context, owner, recipient int64) error
	List(ctx context.Context, owner int64) ([]int64, error)
}

type notifyRepository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewNotifyRepository creates a SQL-backed notify list repository.
func NewNotifyRepository(db *sql.DB, log *slog.Logger) NotifyRepository {
	return &notifyRepository{
		db:  db,
		log: log,
	}
}

// Add subscribes recipient to the owner's new records. Re-adding is a no-op.
func (r *notifyRepository) Add(ctx context.Context, owner, recipient int64) error {
	const query = `
		INSERT INTO notify_lists (owner, recipient)
		VALUES ($1, $2)
		ON CONFLICT (owner, recipient) DO NOTHING
	`

	if _, err := r.db.ExecContext(ctx, query, owner, recipient); err != nil {
		if r.log != nil {
			r.log.Error("failed to add notify recipient", slog.Int64("owner", owner), slog.Any("error", err))
		}
		return fmt.Errorf("insert notify recipient: %w", err)
	}

	return nil
}

// Remove unsubscribes recipient. Removing an absent entry is a no-op.
func (r *notifyRepository) Remove(ctx context.Context, owner, recipient int64) error {
	const query = `DELETE FROM notify_lists WHERE owner = $1 AND recipient = $2`

	if _, err := r.db.ExecContext(ctx, query, owner, recipient); err != nil {
		if r.log != nil {
			r.log.Error("failed to remove notify recipient", slog.Int64("owner", owner), slog.Any("error", err))
		}
		return fmt.Errorf("delete notify recipient: %w", err)
	}

	return nil
}

// List returns the owner's notify recipients in insertion-independent order.
func (r *notifyRepository) List(ctx context.Context, owner int64) ([]int64, error) {
	const query = `SELECT recipient FROM notify_lists WHERE owner = $1 ORDER BY recipient`

	rows, err := r.db.QueryContext(ctx, query, owner)
	if err != nil {
		if r.log != nil {
			r.log.Error("failed to list notify recipients", slog.Int64("owner", owner), slog.Any("error", err))
		}
		return nil, fmt.Errorf("select notify recipients: %w", err)
	}
	defer rows.Close()

	var recipients []int64
	for rows.Next() {
		var recipient int64
		if err := rows.Scan(&recipient); err != nil {
			return nil, fmt.Errorf("scan notify recipient: %w", err)
		}
		recipients = append(recipients, recipient)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notify recipients: %w", err)
	}

	return recipients, nil
}
