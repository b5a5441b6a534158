// Package report computes aggregate views over stored transaction records.
package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/salarysms/salary-bot/internal/domain"
)

// Monthly filters records to the calendar month [year-month-01, next month)
// and sums their amounts. An empty result is valid: no records, total 0.00.
func Monthly(records []domain.TransactionRecord, month time.Month, year int) domain.MonthlyReport {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	result := domain.MonthlyReport{
		Total: decimal.Zero,
		Month: month,
		Year:  year,
	}

	for _, record := range records {
		if record.OccurredAt.Before(start) || !record.OccurredAt.Before(end) {
			continue
		}
		result.Records = append(result.Records, record)
		result.Total = result.Total.Add(record.Amount)
	}

	SortByTime(result.Records)

	return result
}

// PreviousMonth resolves the default reporting period: the calendar month
// immediately preceding now.
func PreviousMonth(now time.Time) (time.Month, int) {
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	prev := firstOfMonth.AddDate(0, -1, 0)
	return prev.Month(), prev.Year()
}

// SortByTime orders records by timestamp ascending. The sort is stable so
// repeated exports of the same store produce identical output.
func SortByTime(records []domain.TransactionRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].OccurredAt.Before(records[j].OccurredAt)
	})
}
