package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/salarysms/salary-bot/internal/domain"
)

// TimestampLayout is the ISO-like format used in CSV exports. The source
// SMS carries minute precision only.
const TimestampLayout = "2006-01-02T15:04"

// Header columns for per-user exports; full exports append an owner column.
var exportColumns = []string{"card_id", "timestamp", "description", "amount", "balance"}

const ownerColumn = "owner"

// ExportHeader returns the CSV header row for an export.
func ExportHeader(includeOwner bool) []string {
	header := append([]string(nil), exportColumns...)
	if includeOwner {
		header = append(header, ownerColumn)
	}
	return header
}

// WriteCSV serializes records ordered by timestamp ascending, one row per
// record, header row first. With includeOwner the owner column is appended
// to every row (admin export); per-user exports omit it.
func WriteCSV(w io.Writer, records []domain.TransactionRecord, includeOwner bool) error {
	sorted := append([]domain.TransactionRecord(nil), records...)
	SortByTime(sorted)

	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(ExportHeader(includeOwner)); err != nil {
		return fmt.Errorf("write export header: %w", err)
	}

	for i, record := range sorted {
		row := []string{
			record.CardID,
			record.OccurredAt.Format(TimestampLayout),
			record.Description,
			record.Amount.StringFixed(2),
			record.Balance.StringFixed(2),
		}
		if includeOwner {
			row = append(row, strconv.FormatInt(record.Owner, 10))
		}

		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write export row %d: %w", i+2, err)
		}
	}

	return cw.Error()
}
