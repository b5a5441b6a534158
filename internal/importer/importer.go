// Package importer turns loose CSV exports of bank SMS messages into stored
// transaction records.
package importer

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/salarysms/salary-bot/internal/domain"
	"github.com/salarysms/salary-bot/internal/report"
	"github.com/salarysms/salary-bot/internal/sms"
	"github.com/salarysms/salary-bot/pkg/metrics"
)

// ErrUnreadableFile indicates the CSV could not be read at all. Nothing is
// written to the store when it is returned.
var ErrUnreadableFile = errors.New("unreadable import file")

// RecordAppender persists parsed records.
type RecordAppender interface {
	Append(ctx context.Context, record domain.TransactionRecord) error
}

// IgnoreChecker answers whether a card is suppressed for an owner.
type IgnoreChecker interface {
	Contains(ctx context.Context, owner int64, cardID string) (bool, error)
}

// Importer reconstructs SMS messages from CSV rows and feeds them through
// the parser, the ignore list, and the record store.
type Importer struct {
	records RecordAppender
	ignores IgnoreChecker
	log     *slog.Logger
}

// New constructs an Importer.
func New(records RecordAppender, ignores IgnoreChecker, log *slog.Logger) *Importer {
	if log == nil {
		log = slog.Default()
	}

	return &Importer{
		records: records,
		ignores: ignores,
		log:     log,
	}
}

var decimalValueRe = regexp.MustCompile(`^\d+\.\d{2}$`)

// timestamp layouts accepted when re-assembling a message from an export
// row: our own export format (with or without seconds) and the raw SMS one.
var rowTimestampLayouts = []string{
	report.TimestampLayout,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"02.01.06 15:04",
}

// Import parses data as CSV, reconstructs one message per row (carrying
// partial rows forward), and persists every record that parses and is not
// ignore-listed. Per-message failures only increment the rejected counter;
// only an unreadable file or a store failure aborts the import.
func (i *Importer) Import(ctx context.Context, data []byte, owner int64) (domain.ImportReport, error) {
	var rep domain.ImportReport

	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return domain.ImportReport{}, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}

	var pending []string

	flushPending := func() {
		if len(pending) == 0 {
			return
		}
		pending = nil
		rep.Rejected++
		metrics.RecordImportRow("rejected")
	}

	for _, row := range rows {
		if isExportHeader(row) {
			continue
		}

		lines := extractMessageLines(row)
		if len(lines) == 0 {
			continue
		}

		if len(lines) < 3 {
			pending = append(pending, lines...)
			if len(pending) < 3 {
				continue
			}
			lines = pending
			pending = nil
		} else {
			flushPending()
		}

		if err := i.handleMessage(ctx, strings.Join(lines, "\n"), owner, &rep); err != nil {
			return rep, err
		}
	}

	flushPending()

	i.log.Info("bulk import finished",
		slog.Int64("owner", owner),
		slog.Int("added", rep.Added),
		slog.Int("ignored", rep.Ignored),
		slog.Int("rejected", rep.Rejected),
	)

	return rep, nil
}

// handleMessage parses one reconstructed message and updates the report.
// Parse failures are absorbed here; store failures propagate.
func (i *Importer) handleMessage(ctx context.Context, text string, owner int64, rep *domain.ImportReport) error {
	record, err := sms.Parse(text)
	if err != nil {
		rep.Rejected++
		metrics.RecordImportRow("rejected")
		i.log.Debug("import row rejected", slog.Int64("owner", owner), slog.Any("reason", err))
		return nil
	}

	ignored, err := i.ignores.Contains(ctx, owner, record.CardID)
	if err != nil {
		return fmt.Errorf("check ignore list: %w", err)
	}
	if ignored {
		rep.Ignored++
		metrics.RecordImportRow("ignored")
		return nil
	}

	record.Owner = owner
	if err := i.records.Append(ctx, record); err != nil {
		return fmt.Errorf("append record: %w", err)
	}

	rep.Added++
	metrics.RecordImportRow("added")
	return nil
}

// extractMessageLines pulls candidate SMS lines out of a CSV row. Android
// export apps usually place the whole body in one quoted field with embedded
// newlines; rows matching our own export column layout are re-assembled
// into the three-line template; otherwise the last non-empty field is taken.
func extractMessageLines(row []string) []string {
	for idx := len(row) - 1; idx >= 0; idx-- {
		lines := nonBlankLines(row[idx])
		if len(lines) >= 3 {
			return lines
		}
	}

	if lines := assembleFromColumns(row); lines != nil {
		return lines
	}

	for idx := len(row) - 1; idx >= 0; idx-- {
		if lines := nonBlankLines(row[idx]); len(lines) > 0 {
			return lines
		}
	}

	return nil
}

// assembleFromColumns rebuilds the three-line message from a
// card,timestamp,description,amount,balance row, tolerating extra columns.
// This is what makes export → re-import round-trip.
func assembleFromColumns(row []string) []string {
	if len(row) < 5 {
		return nil
	}

	card := strings.TrimSpace(row[0])
	description := strings.TrimSpace(row[2])
	amount := strings.TrimSpace(row[3])
	balance := strings.TrimSpace(row[4])

	if card == "" || description == "" {
		return nil
	}
	if !decimalValueRe.MatchString(amount) || !decimalValueRe.MatchString(balance) {
		return nil
	}

	ts, ok := parseRowTimestamp(strings.TrimSpace(row[1]))
	if !ok {
		return nil
	}

	return []string{
		fmt.Sprintf("%s %s", card, ts.Format("02.01.06 15:04")),
		fmt.Sprintf("%s %s%s", description, amount, sms.CurrencyMarker),
		fmt.Sprintf("Баланс: %s%s", balance, sms.CurrencyMarker),
	}
}

func parseRowTimestamp(value string) (time.Time, bool) {
	for _, layout := range rowTimestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func isExportHeader(row []string) bool {
	if len(row) < 5 {
		return false
	}

	header := report.ExportHeader(len(row) > 5)
	if len(row) != len(header) {
		return false
	}

	for idx, column := range header {
		if !strings.EqualFold(strings.TrimSpace(row[idx]), column) {
			return false
		}
	}

	return true
}

func nonBlankLines(field string) []string {
	var lines []string
	for _, part := range strings.Split(field, "\n") {
		line := strings.TrimSpace(strings.TrimSuffix(part, "\r"))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
