package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salarysms/salary-bot/internal/domain"
)

func record(card string, at time.Time, amount string) domain.TransactionRecord {
	return domain.TransactionRecord{
		CardID:      card,
		OccurredAt:  at,
		Description: "зачисление зарплаты",
		Amount:      decimal.RequireFromString(amount),
		Balance:     decimal.RequireFromString("16063.28"),
		Owner:       42,
	}
}

func TestMonthly_SingleRecordWindow(t *testing.T) {
	records := []domain.TransactionRecord{
		record("VISA1234", time.Date(2016, time.December, 21, 22, 12, 0, 0, time.UTC), "12345.57"),
	}

	december := Monthly(records, time.December, 2016)
	require.Len(t, december.Records, 1)
	assert.True(t, december.Total.Equal(decimal.RequireFromString("12345.57")), "total = %s", december.Total)

	january := Monthly(records, time.January, 2017)
	assert.Empty(t, january.Records)
	assert.True(t, january.Total.IsZero())
}

func TestMonthly_WindowBoundsAreHalfOpen(t *testing.T) {
	records := []domain.TransactionRecord{
		record("A", time.Date(2016, time.November, 30, 23, 59, 0, 0, time.UTC), "1.00"),
		record("B", time.Date(2016, time.December, 1, 0, 0, 0, 0, time.UTC), "2.00"),
		record("C", time.Date(2016, time.December, 31, 23, 59, 0, 0, time.UTC), "3.00"),
		record("D", time.Date(2017, time.January, 1, 0, 0, 0, 0, time.UTC), "4.00"),
	}

	rep := Monthly(records, time.December, 2016)
	require.Len(t, rep.Records, 2)
	assert.Equal(t, "B", rep.Records[0].CardID)
	assert.Equal(t, "C", rep.Records[1].CardID)
	assert.True(t, rep.Total.Equal(decimal.RequireFromString("5.00")))
}

func TestMonthly_EmptyStoreIsNotAnError(t *testing.T) {
	rep := Monthly(nil, time.June, 2020)
	assert.Empty(t, rep.Records)
	assert.True(t, rep.Total.IsZero())
	assert.Equal(t, "0.00", rep.Total.StringFixed(2))
}

func TestPreviousMonth(t *testing.T) {
	testCases := []struct {
		now           time.Time
		expectedMonth time.Month
		expectedYear  int
	}{
		{time.Date(2017, time.January, 15, 10, 0, 0, 0, time.UTC), time.December, 2016},
		{time.Date(2017, time.March, 1, 0, 0, 0, 0, time.UTC), time.February, 2017},
		{time.Date(2017, time.July, 31, 23, 59, 0, 0, time.UTC), time.June, 2017},
	}

	for _, tc := range testCases {
		month, year := PreviousMonth(tc.now)
		assert.Equal(t, tc.expectedMonth, month, "now=%s", tc.now)
		assert.Equal(t, tc.expectedYear, year, "now=%s", tc.now)
	}
}

func TestWriteCSV_OrderedAscendingWithHeader(t *testing.T) {
	records := []domain.TransactionRecord{
		record("LATE", time.Date(2017, time.February, 1, 9, 0, 0, 0, time.UTC), "3.00"),
		record("EARLY", time.Date(2016, time.December, 21, 22, 12, 0, 0, time.UTC), "1.00"),
		record("MID", time.Date(2017, time.January, 5, 12, 30, 0, 0, time.UTC), "2.00"),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, records, false))

	lines := splitCSVLines(buf.String())
	require.Len(t, lines, 4)
	assert.Equal(t, "card_id,timestamp,description,amount,balance", lines[0])
	assert.Contains(t, lines[1], "EARLY,2016-12-21T22:12")
	assert.Contains(t, lines[2], "MID,2017-01-05T12:30")
	assert.Contains(t, lines[3], "LATE,2017-02-01T09:00")
}

func TestWriteCSV_OwnerColumnForAdminExport(t *testing.T) {
	records := []domain.TransactionRecord{
		record("VISA1234", time.Date(2016, time.December, 21, 22, 12, 0, 0, time.UTC), "12345.57"),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, records, true))

	lines := splitCSVLines(buf.String())
	require.Len(t, lines, 2)
	assert.Equal(t, "card_id,timestamp,description,amount,balance,owner", lines[0])
	assert.Equal(t, "VISA1234,2016-12-21T22:12,зачисление зарплаты,12345.57,16063.28,42", lines[1])
}

func splitCSVLines(out string) []string {
	var lines []string
	for _, line := range bytes.Split([]byte(out), []byte("\n")) {
		trimmed := bytes.TrimRight(line, "\r")
		if len(trimmed) > 0 {
			lines = append(lines, string(trimmed))
		}
	}
	return lines
}
