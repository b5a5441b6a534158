package sms

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validMessage = "VISA1234 21.12.16 22:12\nзачисление зарплаты 12345.57р\nБаланс: 16063.28р"

func TestParse_ValidMessage(t *testing.T) {
	record, err := Parse(validMessage)
	require.NoError(t, err)

	assert.Equal(t, "VISA1234", record.CardID)
	assert.Equal(t, time.Date(2016, time.December, 21, 22, 12, 0, 0, time.UTC), record.OccurredAt)
	assert.Equal(t, "зачисление зарплаты", record.Description)
	assert.True(t, record.Amount.Equal(decimal.RequireFromString("12345.57")), "amount = %s", record.Amount)
	assert.True(t, record.Balance.Equal(decimal.RequireFromString("16063.28")), "balance = %s", record.Balance)
	assert.Zero(t, record.Owner, "owner must be attached by the caller")
}

func TestParse_ToleratesBlankLinesAndCR(t *testing.T) {
	raw := "\nVISA1234 21.12.16 22:12\r\n\n  \nзачисление зарплаты 12345.57р\r\nБаланс: 16063.28р\n\n"

	record, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "VISA1234", record.CardID)
}

func TestParse_TwoDigitYearIsAlwaysThisCentury(t *testing.T) {
	// 99 must become 2099, not 1999.
	raw := "MAES5678 01.02.99 08:30\nперевод 100.00р\nБаланс: 200.00р"

	record, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, 2099, record.OccurredAt.Year())
}

func TestParse_Rejections(t *testing.T) {
	testCases := []struct {
		name        string
		raw         string
		expectedErr error
	}{
		{
			name:        "empty input",
			raw:         "",
			expectedErr: ErrNotTransaction,
		},
		{
			name:        "plain chat text",
			raw:         "привет, как дела?",
			expectedErr: ErrNotTransaction,
		},
		{
			name:        "too many lines",
			raw:         validMessage + "\nлишняя строка",
			expectedErr: ErrNotTransaction,
		},
		{
			name:        "header with extra token",
			raw:         "VISA 1234 21.12.16 22:12\nзачисление зарплаты 12345.57р\nБаланс: 16063.28р",
			expectedErr: ErrMalformedHeader,
		},
		{
			name:        "header with bad date",
			raw:         "VISA1234 2016-12-21 22:12\nзачисление зарплаты 12345.57р\nБаланс: 16063.28р",
			expectedErr: ErrMalformedHeader,
		},
		{
			name:        "header with impossible date",
			raw:         "VISA1234 32.13.16 22:12\nзачисление зарплаты 12345.57р\nБаланс: 16063.28р",
			expectedErr: ErrMalformedHeader,
		},
		{
			name:        "header with impossible time",
			raw:         "VISA1234 21.12.16 25:61\nзачисление зарплаты 12345.57р\nБаланс: 16063.28р",
			expectedErr: ErrMalformedHeader,
		},
		{
			name:        "amount without currency marker",
			raw:         "VISA1234 21.12.16 22:12\nзачисление зарплаты 12345.57\nБаланс: 16063.28р",
			expectedErr: ErrMalformedAmount,
		},
		{
			name:        "amount with one fractional digit",
			raw:         "VISA1234 21.12.16 22:12\nзачисление зарплаты 12345.5р\nБаланс: 16063.28р",
			expectedErr: ErrMalformedAmount,
		},
		{
			name:        "amount line without description",
			raw:         "VISA1234 21.12.16 22:12\n12345.57р\nБаланс: 16063.28р",
			expectedErr: ErrMalformedAmount,
		},
		{
			name:        "balance line without label",
			raw:         "VISA1234 21.12.16 22:12\nзачисление зарплаты 12345.57р\n16063.28р",
			expectedErr: ErrMalformedBalance,
		},
		{
			name:        "balance with garbage value",
			raw:         "VISA1234 21.12.16 22:12\nзачисление зарплаты 12345.57р\nБаланс: много денег",
			expectedErr: ErrMalformedBalance,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.raw)
			require.ErrorIs(t, err, tc.expectedErr)
			assert.True(t, IsParseError(err))
		})
	}
}

func TestParse_NeverPanicsOnNoise(t *testing.T) {
	inputs := []string{
		strings.Repeat("р", 1000),
		"Баланс: \nБаланс: \nБаланс: ",
		"\x00\x01\x02\n\xff\xfe\nр",
		"a b c\nd 1.23р\nБаланс: 4.56р\n\n\n",
	}

	for _, raw := range inputs {
		_, err := Parse(raw)
		assert.Error(t, err)
	}
}
