package importer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salarysms/salary-bot/internal/domain"
	"github.com/salarysms/salary-bot/internal/report"
	"github.com/salarysms/salary-bot/internal/sms"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type memoryStore struct {
	records   []domain.TransactionRecord
	appendErr error
}

func (m *memoryStore) Append(_ context.Context, record domain.TransactionRecord) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.records = append(m.records, record)
	return nil
}

type memoryIgnoreList struct {
	cards map[string]bool
}

func (m *memoryIgnoreList) Contains(_ context.Context, _ int64, cardID string) (bool, error) {
	return m.cards[cardID], nil
}

func newImporter(store *memoryStore, ignored ...string) *Importer {
	cards := make(map[string]bool, len(ignored))
	for _, card := range ignored {
		cards[card] = true
	}
	return New(store, &memoryIgnoreList{cards: cards}, testLogger())
}

func validBody(card, date, amount string) string {
	return fmt.Sprintf("%s %s 10:30\nзачисление зарплаты %sр\nБаланс: 99999.99р", card, date, amount)
}

func csvRow(fields ...string) string {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	return strings.Join(quoted, ",")
}

func TestImport_CountsAddedIgnoredRejected(t *testing.T) {
	// Ten rows: five valid, three malformed, two on the ignore list.
	rows := []string{
		csvRow("1", validBody("VISA1111", "01.12.16", "100.00")),
		csvRow("2", validBody("VISA1111", "02.12.16", "200.00")),
		csvRow("3", "это вообще не смс"),
		csvRow("4", validBody("VISA1111", "03.12.16", "300.00")),
		csvRow("5", "VISA1111 99.99.99 10:30\nзачисление зарплаты 100.00р\nБаланс: 1.00р"),
		csvRow("6", validBody("MAES2222", "04.12.16", "400.00")),
		csvRow("7", validBody("MAES2222", "05.12.16", "500.00")),
		csvRow("8", "VISA1111 06.12.16 10:30\nзачисление зарплаты сто рублей\nБаланс: 1.00р"),
		csvRow("9", validBody("IGNR9999", "07.12.16", "600.00")),
		csvRow("10", validBody("IGNR9999", "08.12.16", "700.00")),
	}

	store := &memoryStore{}
	imp := newImporter(store, "IGNR9999")

	rep, err := imp.Import(context.Background(), []byte(strings.Join(rows, "\n")), 42)
	require.NoError(t, err)

	assert.Equal(t, 5, rep.Added)
	assert.Equal(t, 2, rep.Ignored)
	assert.Equal(t, 3, rep.Rejected)
	require.Len(t, store.records, 5)

	for _, record := range store.records {
		assert.Equal(t, int64(42), record.Owner)
		assert.NotEqual(t, "IGNR9999", record.CardID)
	}
}

func TestImport_IgnoredCardNeverStored(t *testing.T) {
	data := []byte(csvRow("1", validBody("IGNR9999", "01.12.16", "100.00")))

	store := &memoryStore{}
	imp := newImporter(store, "IGNR9999")

	for range 3 {
		rep, err := imp.Import(context.Background(), data, 42)
		require.NoError(t, err)
		assert.Equal(t, domain.ImportReport{Ignored: 1}, rep)
	}

	assert.Empty(t, store.records)
}

func TestImport_RoundTripThroughExport(t *testing.T) {
	store := &memoryStore{}
	imp := newImporter(store)

	source := strings.Join([]string{
		csvRow("1", validBody("VISA1111", "21.12.16", "12345.57")),
		csvRow("2", validBody("MAES2222", "22.12.16", "500.00")),
		csvRow("3", validBody("VISA1111", "23.01.17", "777.77")),
	}, "\n")

	_, err := imp.Import(context.Background(), []byte(source), 42)
	require.NoError(t, err)
	require.Len(t, store.records, 3)

	var exported bytes.Buffer
	require.NoError(t, report.WriteCSV(&exported, store.records, false))

	reimportStore := &memoryStore{}
	rep, err := newImporter(reimportStore).Import(context.Background(), exported.Bytes(), 42)
	require.NoError(t, err)

	assert.Equal(t, 3, rep.Added)
	assert.Zero(t, rep.Rejected)
	assert.Equal(t, recordKeys(store.records), recordKeys(reimportStore.records))
}

func TestImport_MessageSpanningRows(t *testing.T) {
	// One SMS split across two CSV rows must still assemble.
	data := strings.Join([]string{
		csvRow("1", "VISA1111 21.12.16 22:12\nзачисление зарплаты 12345.57р"),
		csvRow("2", "Баланс: 16063.28р"),
	}, "\n")

	store := &memoryStore{}
	rep, err := newImporter(store).Import(context.Background(), []byte(data), 42)
	require.NoError(t, err)

	assert.Equal(t, domain.ImportReport{Added: 1}, rep)
	require.Len(t, store.records, 1)
	assert.Equal(t, "VISA1111", store.records[0].CardID)
}

func TestImport_TrailingPartialMessageRejected(t *testing.T) {
	data := csvRow("1", "VISA1111 21.12.16 22:12\nзачисление зарплаты 12345.57р")

	store := &memoryStore{}
	rep, err := newImporter(store).Import(context.Background(), []byte(data), 42)
	require.NoError(t, err)

	assert.Equal(t, domain.ImportReport{Rejected: 1}, rep)
	assert.Empty(t, store.records)
}

func TestImport_UnreadableFileAborts(t *testing.T) {
	// Broken quoting makes the CSV reader fail before anything is written.
	data := []byte("\"unterminated,\"oops\"trailing\nrow2")

	store := &memoryStore{}
	rep, err := newImporter(store).Import(context.Background(), data, 42)

	require.ErrorIs(t, err, ErrUnreadableFile)
	assert.Zero(t, rep)
	assert.Empty(t, store.records)
}

func TestImport_StoreFailurePropagates(t *testing.T) {
	store := &memoryStore{appendErr: errors.New("connection reset")}
	data := []byte(csvRow("1", validBody("VISA1111", "01.12.16", "100.00")))

	_, err := newImporter(store).Import(context.Background(), data, 42)
	require.Error(t, err)
	assert.False(t, sms.IsParseError(err))
}

func TestImport_ToleratesBOMAndExtraColumns(t *testing.T) {
	row := csvRow("extra", "columns", "everywhere", validBody("VISA1111", "01.12.16", "100.00"))
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte(row)...)

	store := &memoryStore{}
	rep, err := newImporter(store).Import(context.Background(), data, 42)
	require.NoError(t, err)

	assert.Equal(t, domain.ImportReport{Added: 1}, rep)
}

func recordKeys(records []domain.TransactionRecord) []string {
	keys := make([]string, 0, len(records))
	for _, r := range records {
		keys = append(keys, fmt.Sprintf("%s|%s|%s|%s|%s",
			r.CardID,
			r.OccurredAt.Format(report.TimestampLayout),
			r.Description,
			r.Amount.StringFixed(2),
			r.Balance.StringFixed(2),
		))
	}
	sort.Strings(keys)
	return keys
}
