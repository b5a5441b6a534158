package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionRecord is a single bank operation extracted from an SMS
// notification. Amount and Balance carry exactly two fractional digits and
// are never negative. Records are immutable once stored.
type TransactionRecord struct {
	CardID      string
	OccurredAt  time.Time
	Description string
	Amount      decimal.Decimal
	Balance     decimal.Decimal
	Owner       int64
}

// ImportReport summarizes a bulk CSV import.
type ImportReport struct {
	Added    int
	Ignored  int
	Rejected int
}

// Total returns the number of rows the importer attempted.
func (r ImportReport) Total() int {
	return r.Added + r.Ignored + r.Rejected
}

// MonthlyReport aggregates one owner's records for a calendar month.
type MonthlyReport struct {
	Records []TransactionRecord
	Total   decimal.Decimal
	Month   time.Month
	Year    int
}
