package tracker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/salarysms/salary-bot/internal/domain"
	"github.com/salarysms/salary-bot/internal/errs"
	"github.com/salarysms/salary-bot/internal/sms"
)

const validMessage = "VISA1234 21.12.16 22:12\nзачисление зарплаты 12345.57р\nБаланс: 16063.28р"

type mockRecordRepo struct{ mock.Mock }

func (m *mockRecordRepo) Append(ctx context.Context, record domain.TransactionRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *mockRecordRepo) ListByOwner(ctx context.Context, owner int64) ([]domain.TransactionRecord, error) {
	args := m.Called(ctx, owner)
	records, _ := args.Get(0).([]domain.TransactionRecord)
	return records, args.Error(1)
}

func (m *mockRecordRepo) ListAll(ctx context.Context) ([]domain.TransactionRecord, error) {
	args := m.Called(ctx)
	records, _ := args.Get(0).([]domain.TransactionRecord)
	return records, args.Error(1)
}

func (m *mockRecordRepo) CountByOwner(ctx context.Context, owner int64) (int, error) {
	args := m.Called(ctx, owner)
	return args.Int(0), args.Error(1)
}

func (m *mockRecordRepo) Purge(ctx context.Context, owner int64) error {
	args := m.Called(ctx, owner)
	return args.Error(0)
}

func (m *mockRecordRepo) PurgeAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type mockIgnoreRepo struct{ mock.Mock }

func (m *mockIgnoreRepo) Add(ctx context.Context, owner int64, cardID string) error {
	args := m.Called(ctx, owner, cardID)
	return args.Error(0)
}

func (m *mockIgnoreRepo) Remove(ctx context.Context, owner int64, cardID string) error {
	args := m.Called(ctx, owner, cardID)
	return args.Error(0)
}

func (m *mockIgnoreRepo) Contains(ctx context.Context, owner int64, cardID string) (bool, error) {
	args := m.Called(ctx, owner, cardID)
	return args.Bool(0), args.Error(1)
}

func (m *mockIgnoreRepo) List(ctx context.Context, owner int64) ([]string, error) {
	args := m.Called(ctx, owner)
	cards, _ := args.Get(0).([]string)
	return cards, args.Error(1)
}

type mockNotifyRepo struct{ mock.Mock }

func (m *mockNotifyRepo) Add(ctx context.Context, owner, recipient int64) error {
	args := m.Called(ctx, owner, recipient)
	return args.Error(0)
}

func (m *mockNotifyRepo) Remove(ctx context.Context, owner, recipient int64) error {
	args := m.Called(ctx, owner, recipient)
	return args.Error(0)
}

func (m *mockNotifyRepo) List(ctx context.Context, owner int64) ([]int64, error) {
	args := m.Called(ctx, owner)
	recipients, _ := args.Get(0).([]int64)
	return recipients, args.Error(1)
}

func newTestService(t *testing.T) (*Service, *mockRecordRepo, *mockIgnoreRepo, *mockNotifyRepo) {
	t.Helper()

	records := &mockRecordRepo{}
	ignores := &mockIgnoreRepo{}
	notifies := &mockNotifyRepo{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewService(records, ignores, notifies, nil, log), records, ignores, notifies
}

func TestHandleText_StoresRecordAndReturnsRecipients(t *testing.T) {
	svc, records, ignores, notifies := newTestService(t)
	ctx := context.Background()

	ignores.On("Contains", ctx, int64(42), "VISA1234").Return(false, nil)
	records.On("Append", ctx, mock.MatchedBy(func(r domain.TransactionRecord) bool {
		return r.Owner == 42 &&
			r.CardID == "VISA1234" &&
			r.Amount.Equal(decimal.RequireFromString("12345.57"))
	})).Return(nil)
	notifies.On("List", ctx, int64(42)).Return([]int64{100, 200}, nil)

	record, recipients, err := svc.HandleText(ctx, 42, validMessage)

	require.NoError(t, err)
	assert.Equal(t, int64(42), record.Owner)
	assert.Equal(t, "зачисление зарплаты", record.Description)
	assert.Equal(t, []int64{100, 200}, recipients)
	records.AssertExpectations(t)
}

func TestHandleText_ParseRejectionPropagates(t *testing.T) {
	svc, records, _, _ := newTestService(t)

	_, _, err := svc.HandleText(context.Background(), 42, "привет, как дела?")

	require.Error(t, err)
	assert.ErrorIs(t, err, sms.ErrNotTransaction)

	var appErr *errs.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "E100", appErr.Code)
	records.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestHandleText_IgnoredCardNotStored(t *testing.T) {
	svc, records, ignores, _ := newTestService(t)
	ctx := context.Background()

	ignores.On("Contains", ctx, int64(42), "VISA1234").Return(true, nil)

	_, _, err := svc.HandleText(ctx, 42, validMessage)

	assert.ErrorIs(t, err, ErrCardIgnored)
	records.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestHandleText_NotifyLookupFailureIsNotFatal(t *testing.T) {
	svc, records, ignores, notifies := newTestService(t)
	ctx := context.Background()

	ignores.On("Contains", ctx, int64(42), "VISA1234").Return(false, nil)
	records.On("Append", ctx, mock.Anything).Return(nil)
	notifies.On("List", ctx, int64(42)).Return(nil, errors.New("redis down"))

	record, recipients, err := svc.HandleText(ctx, 42, validMessage)

	require.NoError(t, err)
	assert.Equal(t, "VISA1234", record.CardID)
	assert.Empty(t, recipients)
}

func TestMonthlyReport_DefaultsToPreviousMonth(t *testing.T) {
	svc, records, _, _ := newTestService(t)
	svc.now = func() time.Time {
		return time.Date(2017, time.January, 15, 10, 0, 0, 0, time.UTC)
	}

	stored := []domain.TransactionRecord{
		{
			CardID:      "VISA1234",
			OccurredAt:  time.Date(2016, time.December, 21, 22, 12, 0, 0, time.UTC),
			Description: "зачисление зарплаты",
			Amount:      decimal.RequireFromString("12345.57"),
			Balance:     decimal.RequireFromString("16063.28"),
			Owner:       42,
		},
		{
			CardID:      "VISA1234",
			OccurredAt:  time.Date(2017, time.January, 5, 9, 0, 0, 0, time.UTC),
			Description: "зачисление зарплаты",
			Amount:      decimal.RequireFromString("100.00"),
			Balance:     decimal.RequireFromString("16163.28"),
			Owner:       42,
		},
	}
	records.On("ListByOwner", mock.Anything, int64(42)).Return(stored, nil)

	rep, err := svc.MonthlyReport(context.Background(), 42, 0, 0)

	require.NoError(t, err)
	assert.Equal(t, time.December, rep.Month)
	assert.Equal(t, 2016, rep.Year)
	assert.Len(t, rep.Records, 1)
	assert.Equal(t, "12345.57", rep.Total.StringFixed(2))
}

func TestMonthlyReport_RejectsImpossibleMonth(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.MonthlyReport(context.Background(), 42, 13, 2016)

	var appErr *errs.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "E110", appErr.Code)
}

func TestHandleFile_UnreadableFileWritesNothing(t *testing.T) {
	svc, records, _, _ := newTestService(t)

	rep, err := svc.HandleFile(context.Background(), 42, []byte("\"broken,\"quote\"row\n"))

	var appErr *errs.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "E120", appErr.Code)
	assert.Zero(t, rep.Total())
	records.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestExportCSV_OmitsOwnerColumn(t *testing.T) {
	svc, records, _, _ := newTestService(t)

	stored := []domain.TransactionRecord{
		{
			CardID:      "VISA1234",
			OccurredAt:  time.Date(2016, time.December, 21, 22, 12, 0, 0, time.UTC),
			Description: "зачисление зарплаты",
			Amount:      decimal.RequireFromString("12345.57"),
			Balance:     decimal.RequireFromString("16063.28"),
			Owner:       42,
		},
	}
	records.On("ListByOwner", mock.Anything, int64(42)).Return(stored, nil)

	data, err := svc.ExportCSV(context.Background(), 42)

	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "card_id,timestamp,description,amount,balance", lines[0])
	assert.Equal(t, "VISA1234,2016-12-21T22:12,зачисление зарплаты,12345.57,16063.28", lines[1])
}

func TestIgnore_RequiresCardAndInvalidates(t *testing.T) {
	svc, _, ignores, _ := newTestService(t)
	ctx := context.Background()

	err := svc.Ignore(ctx, 42, "")
	var appErr *errs.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "E110", appErr.Code)

	ignores.On("Add", ctx, int64(42), "VISA1234").Return(nil)
	require.NoError(t, svc.Ignore(ctx, 42, "VISA1234"))
	ignores.AssertExpectations(t)
}

func TestNotify_RejectsSelfSubscription(t *testing.T) {
	svc, _, _, notifies := newTestService(t)

	err := svc.Notify(context.Background(), 42, 42)

	var appErr *errs.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "E110", appErr.Code)
	notifies.AssertNotCalled(t, "Add", mock.Anything, mock.Anything, mock.Anything)
}

func TestPurge_DatabaseFailureWrapped(t *testing.T) {
	svc, records, _, _ := newTestService(t)

	records.On("Purge", mock.Anything, int64(42)).Return(errors.New("connection reset"))

	err := svc.Purge(context.Background(), 42)

	var appErr *errs.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "E200", appErr.Code)
	assert.True(t, appErr.Retryable)
}
