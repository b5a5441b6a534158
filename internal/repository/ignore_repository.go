package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// IgnoreRepository stores per-owner sets of suppressed card identifiers.
// Add and Remove are idempotent.
type IgnoreRepository interface {
	Add(ctx context.Context, owner int64, cardID string) error
	Remove(ctx context.Context, owner int64, cardID string) error
	Contains(ctx context.Context, owner int64, cardID string) (bool, error)
	List(ctx context.Context, owner int64) ([]string, error)
}

type ignoreRepository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewIgnoreRepository creates a SQL-backed ignore list repository.
func NewIgnoreRepository(db *sql.DB, log *slog.Logger) IgnoreRepository {
	return &ignoreRepository{
		db:  db,
		log: log,
	}
}

// Add puts cardID on the owner's ignore list. Re-adding is a no-op.
func (r *ignoreRepository) Add(ctx context.Context, owner int64, cardID string) error {
	const query = `
		INSERT INTO ignore_lists (owner, card_id)
		VALUES ($1, $2)
		ON CONFLICT (owner, card_id) DO NOTHING
	`

	if _, err := r.db.ExecContext(ctx, query, owner, cardID); err != nil {
		if r.log != nil {
			r.log.Error("failed to add ignored card", slog.Int64("owner", owner), slog.Any("error", err))
		}
		return fmt.Errorf("insert ignored card: %w", err)
	}

	return nil
}

// Remove deletes cardID from the owner's ignore list. Removing an absent
// entry is a no-op.
func (r *ignoreRepository) Remove(ctx context.Context, owner int64, cardID string) error {
	const query = `DELETE FROM ignore_lists WHERE owner = $1 AND card_id = $2`

	if _, err := r.db.ExecContext(ctx, query, owner, cardID); err != nil {
		if r.log != nil {
			r.log.Error("failed to remove ignored card", slog.Int64("owner", owner), slog.Any("error", err))
		}
		return fmt.Errorf("delete ignored card: %w", err)
	}

	return nil
}

// Contains reports exact-match membership of cardID in the owner's list.
func (r *ignoreRepository) Contains(ctx context.Context, owner int64, cardID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM ignore_lists WHERE owner = $1 AND card_id = $2)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, owner, cardID).Scan(&exists); err != nil {
		if r.log != nil {
			r.log.Error("failed to check ignored card", slog.Int64("owner", owner), slog.Any("error", err))
		}
		return false, fmt.Errorf("check ignored card: %w", err)
	}

	return exists, nil
}

// List returns the owner's ignored card identifiers.
func (r *ignoreRepository) List(ctx context.Context, owner int64) ([]string, error) {
	const query = `SELECT card_id FROM ignore_lists WHERE owner = $1 ORDER BY card_id`

	rows, err := r.db.QueryContext(ctx, query, owner)
	if err != nil {
		if r.log != nil {
			r.log.Error("failed to list ignored cards", slog.Int64("owner", owner), slog.Any("error", err))
		}
		return nil, fmt.Errorf("select ignored cards: %w", err)
	}
	defer rows.Close()

	var cards []string
	for rows.Next() {
		var card string
		if err := rows.Scan(&card); err != nil {
			return nil, fmt.Errorf("scan ignored card: %w", err)
		}
		cards = append(cards, card)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ignored cards: %w", err)
	}

	return cards, nil
}
