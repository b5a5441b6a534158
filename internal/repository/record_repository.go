package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/salarysms/salary-bot/internal/domain"
)

// RecordRepository defines persistence operations for transaction records.
// Records are immutable: the interface deliberately has no update method.
type RecordRepository interface {
	Append(ctx context.Context, record domain.TransactionRecord) error
	ListByOwner(ctx context.Context, owner int64) ([]domain.TransactionRecord, error)
	ListAll(ctx context.Context) ([]domain.TransactionRecord, error)
	CountByOwner(ctx context.Context, owner int64) (int, error)
	Purge(ctx context.Context, owner int64) error
	PurgeAll(ctx context.Context) error
}

type recordRepository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewRecordRepository creates a SQL-backed record repository.
func NewRecordRepository(db *sql.DB, log *slog.Logger) RecordRepository {
	return &recordRepository{
		db:  db,
		log: log,
	}
}

// Append inserts one transaction record.
func (r *recordRepository) Append(ctx context.Context, record domain.TransactionRecord) error {
	const query = `
		INSERT INTO records (owner, card_id, occurred_at, description, amount, balance)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if _, err := r.db.ExecContext(
		ctx,
		query,
		record.Owner,
		record.CardID,
		record.OccurredAt,
		record.Description,
		record.Amount.StringFixed(2),
		record.Balance.StringFixed(2),
	); err != nil {
		if r.log != nil {
			r.log.Error("failed to append record", slog.Int64("owner", record.Owner), slog.Any("error", err))
		}
		return fmt.Errorf("insert record: %w", err)
	}

	return nil
}

// ListByOwner returns one owner's records ordered by timestamp ascending.
func (r *recordRepository) ListByOwner(ctx context.Context, owner int64) ([]domain.TransactionRecord, error) {
	const query = `
		SELECT owner, card_id, occurred_at, description, amount, balance
		FROM records
		WHERE owner = $1
		ORDER BY occurred_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, owner)
	if err != nil {
		if r.log != nil {
			r.log.Error("failed to list records", slog.Int64("owner", owner), slog.Any("error", err))
		}
		return nil, fmt.Errorf("select records by owner: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// ListAll returns every stored record ordered by timestamp ascending.
func (r *recordRepository) ListAll(ctx context.Context) ([]domain.TransactionRecord, error) {
	const query = `
		SELECT owner, card_id, occurred_at, description, amount, balance
		FROM records
		ORDER BY occurred_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		if r.log != nil {
			r.log.Error("failed to list all records", slog.Any("error", err))
		}
		return nil, fmt.Errorf("select all records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// CountByOwner returns how many records the owner has.
func (r *recordRepository) CountByOwner(ctx context.Context, owner int64) (int, error) {
	const query = `SELECT COUNT(*) FROM records WHERE owner = $1`

	var count int
	if err := r.db.QueryRowContext(ctx, query, owner).Scan(&count); err != nil {
		if r.log != nil {
			r.log.Error("failed to count records", slog.Int64("owner", owner), slog.Any("error", err))
		}
		return 0, fmt.Errorf("count records by owner: %w", err)
	}

	return count, nil
}

// Purge deletes exactly one owner's records.
func (r *recordRepository) Purge(ctx context.Context, owner int64) error {
	const query = `DELETE FROM records WHERE owner = $1`

	if _, err := r.db.ExecContext(ctx, query, owner); err != nil {
		if r.log != nil {
			r.log.Error("failed to purge records", slog.Int64("owner", owner), slog.Any("error", err))
		}
		return fmt.Errorf("purge records for owner: %w", err)
	}

	return nil
}

// PurgeAll empties the entire record store.
func (r *recordRepository) PurgeAll(ctx context.Context) error {
	const query = `DELETE FROM records`

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		if r.log != nil {
			r.log.Error("failed to purge all records", slog.Any("error", err))
		}
		return fmt.Errorf("purge all records: %w", err)
	}

	return nil
}

func scanRecords(rows *sql.Rows) ([]domain.TransactionRecord, error) {
	var records []domain.TransactionRecord

	for rows.Next() {
		var (
			record     domain.TransactionRecord
			occurredAt time.Time
			amount     string
			balance    string
		)

		if err := rows.Scan(
			&record.Owner,
			&record.CardID,
			&occurredAt,
			&record.Description,
			&amount,
			&balance,
		); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}

		parsedAmount, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("decode amount %q: %w", amount, err)
		}
		parsedBalance, err := decimal.NewFromString(balance)
		if err != nil {
			return nil, fmt.Errorf("decode balance %q: %w", balance, err)
		}

		record.OccurredAt = occurredAt
		record.Amount = parsedAmount
		record.Balance = parsedBalance
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}

	return records, nil
}
