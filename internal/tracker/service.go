// Package tracker is the application core: it turns raw SMS text and CSV
// files into stored transaction records and answers aggregate queries over
// them. The Telegram layer is a thin client of this package.
package tracker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/salarysms/salary-bot/internal/domain"
	"github.com/salarysms/salary-bot/internal/errs"
	"github.com/salarysms/salary-bot/internal/ignorecache"
	"github.com/salarysms/salary-bot/internal/importer"
	"github.com/salarysms/salary-bot/internal/report"
	"github.com/salarysms/salary-bot/internal/repository"
	"github.com/salarysms/salary-bot/internal/sms"
	"github.com/salarysms/salary-bot/pkg/metrics"
)

// ErrCardIgnored marks a parsed message whose card is on the owner's
// ignore list. The record is discarded, not stored.
var ErrCardIgnored = errors.New("card is on the ignore list")

// Service provides the business operations behind every bot command.
type Service struct {
	records  repository.RecordRepository
	ignores  repository.IgnoreRepository
	notifies repository.NotifyRepository
	cache    *ignorecache.Cache
	importer *importer.Importer
	log      *slog.Logger
	now      func() time.Time
}

// NewService constructs the core service. cache may be nil; the ignore
// list then always hits the database.
func NewService(
	records repository.RecordRepository,
	ignores repository.IgnoreRepository,
	notifies repository.NotifyRepository,
	cache *ignorecache.Cache,
	log *slog.Logger,
) *Service {
	if log == nil {
		log = slog.Default()
	}

	s := &Service{
		records:  records,
		ignores:  ignores,
		notifies: notifies,
		cache:    cache,
		log:      log,
		now:      time.Now,
	}
	s.importer = importer.New(appender{s}, ignoreChecker{s}, log)

	return s
}

// appender and ignoreChecker adapt the service for the bulk importer so
// imports share the cache and the append metrics with single messages.
type appender struct{ s *Service }

func (a appender) Append(ctx context.Context, record domain.TransactionRecord) error {
	return a.s.append(ctx, record)
}

type ignoreChecker struct{ s *Service }

func (c ignoreChecker) Contains(ctx context.Context, owner int64, cardID string) (bool, error) {
	return c.s.isIgnored(ctx, owner, cardID)
}

// HandleText parses one raw SMS, persists the record, and returns it along
// with the owner's notify list. Delivery of fan-out copies is the caller's
// job. Parse rejections propagate so the caller can tell the user exactly
// why the message was not recognized.
func (s *Service) HandleText(ctx context.Context, owner int64, text string) (domain.TransactionRecord, []int64, error) {
	record, err := sms.Parse(text)
	if err != nil {
		metrics.RecordParse("rejected")
		return domain.TransactionRecord{}, nil, errs.NewParseError(err)
	}

	ignored, err := s.isIgnored(ctx, owner, record.CardID)
	if err != nil {
		return domain.TransactionRecord{}, nil, errs.NewDatabaseError(err)
	}
	if ignored {
		metrics.RecordParse("ignored")
		return domain.TransactionRecord{}, nil, fmt.Errorf("%w: %s", ErrCardIgnored, record.CardID)
	}

	record.Owner = owner
	if err := s.append(ctx, record); err != nil {
		return domain.TransactionRecord{}, nil, errs.NewDatabaseError(err)
	}
	metrics.RecordParse("accepted")

	recipients, err := s.notifies.List(ctx, owner)
	if err != nil {
		// The record is stored; a fan-out lookup failure should not make
		// the whole operation look failed to the user.
		s.log.Error("failed to load notify list", slog.Int64("owner", owner), slog.Any("error", err))
		recipients = nil
	}

	return record, recipients, nil
}

// HandleFile runs a bulk CSV import for the owner.
func (s *Service) HandleFile(ctx context.Context, owner int64, data []byte) (domain.ImportReport, error) {
	rep, err := s.importer.Import(ctx, data, owner)
	if err != nil {
		if errors.Is(err, importer.ErrUnreadableFile) {
			return rep, errs.NewImportError(err)
		}
		return rep, errs.NewDatabaseError(err)
	}

	return rep, nil
}

// MonthlyReport aggregates the owner's records for one calendar month.
// Zero month and year select the month preceding the current date.
func (s *Service) MonthlyReport(ctx context.Context, owner int64, month time.Month, year int) (domain.MonthlyReport, error) {
	if month == 0 && year == 0 {
		month, year = report.PreviousMonth(s.now())
	}
	if month < time.January || month > time.December {
		return domain.MonthlyReport{}, errs.NewValidationError(fmt.Sprintf("месяц %d не существует", month))
	}
	if year < 2000 || year > 2199 {
		return domain.MonthlyReport{}, errs.NewValidationError(fmt.Sprintf("год %d вне допустимого диапазона", year))
	}

	records, err := s.records.ListByOwner(ctx, owner)
	if err != nil {
		return domain.MonthlyReport{}, errs.NewDatabaseError(err)
	}

	return report.Monthly(records, month, year), nil
}

// History returns all of the owner's records ordered by timestamp.
func (s *Service) History(ctx context.Context, owner int64) ([]domain.TransactionRecord, error) {
	records, err := s.records.ListByOwner(ctx, owner)
	if err != nil {
		return nil, errs.NewDatabaseError(err)
	}

	return records, nil
}

// RecordCount returns how many records the owner has.
func (s *Service) RecordCount(ctx context.Context, owner int64) (int, error) {
	count, err := s.records.CountByOwner(ctx, owner)
	if err != nil {
		return 0, errs.NewDatabaseError(err)
	}

	return count, nil
}

// ExportCSV serializes one owner's full history, owner column omitted.
func (s *Service) ExportCSV(ctx context.Context, owner int64) ([]byte, error) {
	records, err := s.records.ListByOwner(ctx, owner)
	if err != nil {
		return nil, errs.NewDatabaseError(err)
	}

	return renderCSV(records, false)
}

// ExportAllCSV serializes the entire store including the owner column.
func (s *Service) ExportAllCSV(ctx context.Context) ([]byte, error) {
	records, err := s.records.ListAll(ctx)
	if err != nil {
		return nil, errs.NewDatabaseError(err)
	}

	return renderCSV(records, true)
}

// ListAll returns every stored record. Admin surface.
func (s *Service) ListAll(ctx context.Context) ([]domain.TransactionRecord, error) {
	records, err := s.records.ListAll(ctx)
	if err != nil {
		return nil, errs.NewDatabaseError(err)
	}

	return records, nil
}

// Purge deletes one owner's records.
func (s *Service) Purge(ctx context.Context, owner int64) error {
	if err := s.records.Purge(ctx, owner); err != nil {
		return errs.NewDatabaseError(err)
	}

	s.log.Info("purged records", slog.Int64("owner", owner))
	return nil
}

// PurgeAll empties the entire record store.
func (s *Service) PurgeAll(ctx context.Context) error {
	if err := s.records.PurgeAll(ctx); err != nil {
		return errs.NewDatabaseError(err)
	}

	s.log.Warn("purged entire record store")
	return nil
}

// Ignore puts a card on the owner's ignore list. Idempotent.
func (s *Service) Ignore(ctx context.Context, owner int64, cardID string) error {
	if cardID == "" {
		return errs.NewValidationError("укажите номер карты, например VISA1234")
	}

	if err := s.ignores.Add(ctx, owner, cardID); err != nil {
		return errs.NewDatabaseError(err)
	}

	s.invalidateIgnoreCache(ctx, owner)
	return nil
}

// Unignore removes a card from the owner's ignore list. Idempotent.
func (s *Service) Unignore(ctx context.Context, owner int64, cardID string) error {
	if cardID == "" {
		return errs.NewValidationError("укажите номер карты, например VISA1234")
	}

	if err := s.ignores.Remove(ctx, owner, cardID); err != nil {
		return errs.NewDatabaseError(err)
	}

	s.invalidateIgnoreCache(ctx, owner)
	return nil
}

// IgnoredCards lists the owner's ignored card identifiers.
func (s *Service) IgnoredCards(ctx context.Context, owner int64) ([]string, error) {
	cards, err := s.ignores.List(ctx, owner)
	if err != nil {
		return nil, errs.NewDatabaseError(err)
	}

	return cards, nil
}

// Notify subscribes recipient to copies of the owner's new records.
func (s *Service) Notify(ctx context.Context, owner, recipient int64) error {
	if recipient == owner {
		return errs.NewValidationError("нельзя подписать собственный чат")
	}
	if recipient == 0 {
		return errs.NewValidationError("укажите идентификатор чата")
	}

	if err := s.notifies.Add(ctx, owner, recipient); err != nil {
		return errs.NewDatabaseError(err)
	}

	return nil
}

// Denotify unsubscribes recipient from the owner's records.
func (s *Service) Denotify(ctx context.Context, owner, recipient int64) error {
	if err := s.notifies.Remove(ctx, owner, recipient); err != nil {
		return errs.NewDatabaseError(err)
	}

	return nil
}

// NotifyList returns the owner's fan-out recipients.
func (s *Service) NotifyList(ctx context.Context, owner int64) ([]int64, error) {
	recipients, err := s.notifies.List(ctx, owner)
	if err != nil {
		return nil, errs.NewDatabaseError(err)
	}

	return recipients, nil
}

func (s *Service) append(ctx context.Context, record domain.TransactionRecord) error {
	if err := s.records.Append(ctx, record); err != nil {
		return err
	}

	metrics.RecordAppended()
	return nil
}

// isIgnored consults the Redis cache first and falls back to the
// repository. Cache failures degrade to direct lookups, never to errors.
func (s *Service) isIgnored(ctx context.Context, owner int64, cardID string) (bool, error) {
	if s.cache != nil {
		set, err := s.cache.Get(ctx, owner)
		if err != nil {
			s.log.Warn("ignore cache read failed", slog.Int64("owner", owner), slog.Any("error", err))
		} else if set != nil {
			_, ok := set[cardID]
			return ok, nil
		} else {
			cards, listErr := s.ignores.List(ctx, owner)
			if listErr != nil {
				return false, listErr
			}
			if setErr := s.cache.Set(ctx, owner, cards); setErr != nil {
				s.log.Warn("ignore cache write failed", slog.Int64("owner", owner), slog.Any("error", setErr))
			}
			for _, card := range cards {
				if card == cardID {
					return true, nil
				}
			}
			return false, nil
		}
	}

	return s.ignores.Contains(ctx, owner, cardID)
}

func (s *Service) invalidateIgnoreCache(ctx context.Context, owner int64) {
	if s.cache == nil {
		return
	}

	if err := s.cache.Invalidate(ctx, owner); err != nil {
		s.log.Warn("ignore cache invalidation failed", slog.Any("error", err))
	}
}

func renderCSV(records []domain.TransactionRecord, includeOwner bool) ([]byte, error) {
	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, records, includeOwner); err != nil {
		return nil, fmt.Errorf("render export: %w", err)
	}

	return buf.Bytes(), nil
}
