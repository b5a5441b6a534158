// Package sms parses bank SMS notifications into transaction records.
//
// Only the fixed Sberbank three-line template is supported:
//
//	VISA1234 21.12.16 22:12
//	зачисление зарплаты 12345.57р
//	Баланс: 16063.28р
package sms

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/salarysms/salary-bot/internal/domain"
)

var (
	// ErrNotTransaction indicates text that does not resemble a bank
	// notification at all. Safe to skip silently during bulk import.
	ErrNotTransaction = errors.New("not a recognized transaction message")
	// ErrMalformedHeader indicates a broken card/date/time header line.
	ErrMalformedHeader = errors.New("malformed header line")
	// ErrMalformedAmount indicates a missing or invalid amount suffix.
	ErrMalformedAmount = errors.New("malformed amount line")
	// ErrMalformedBalance indicates a missing or invalid balance line.
	ErrMalformedBalance = errors.New("malformed balance line")
)

const (
	// CurrencyMarker is the ruble suffix the bank appends to every value.
	CurrencyMarker = "р"

	balanceLabel     = "Баланс:"
	headerTimeLayout = "02.01.06 15:04"
)

var (
	dateTokenRe = regexp.MustCompile(`^\d{2}\.\d{2}\.\d{2}$`)
	timeTokenRe = regexp.MustCompile(`^\d{2}:\d{2}$`)
	amountRe    = regexp.MustCompile(`^(.*?)(\d+\.\d{2})` + CurrencyMarker + `$`)
	balanceRe   = regexp.MustCompile(`^` + balanceLabel + `\s*(\d+\.\d{2})` + CurrencyMarker + `$`)
)

// Parse converts one raw SMS into a TransactionRecord with Owner left unset.
// The caller attaches the owner. Parse never panics on arbitrary input.
func Parse(raw string) (domain.TransactionRecord, error) {
	lines := splitLines(raw)
	if len(lines) != 3 {
		return domain.TransactionRecord{}, fmt.Errorf("%w: expected 3 lines, got %d", ErrNotTransaction, len(lines))
	}

	cardID, occurredAt, err := parseHeader(lines[0])
	if err != nil {
		return domain.TransactionRecord{}, err
	}

	description, amount, err := parseAmountLine(lines[1])
	if err != nil {
		return domain.TransactionRecord{}, err
	}

	balance, err := parseBalanceLine(lines[2])
	if err != nil {
		return domain.TransactionRecord{}, err
	}

	return domain.TransactionRecord{
		CardID:      cardID,
		OccurredAt:  occurredAt,
		Description: description,
		Amount:      amount,
		Balance:     balance,
	}, nil
}

// splitLines breaks raw text into trimmed non-blank lines.
func splitLines(raw string) []string {
	parts := strings.Split(raw, "\n")
	lines := make([]string, 0, len(parts))
	for _, part := range parts {
		line := strings.TrimSpace(strings.TrimSuffix(part, "\r"))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func parseHeader(line string) (string, time.Time, error) {
	tokens := strings.Fields(line)
	if len(tokens) != 3 {
		return "", time.Time{}, fmt.Errorf("%w: expected 3 tokens, got %d", ErrMalformedHeader, len(tokens))
	}

	cardID := tokens[0]
	if !dateTokenRe.MatchString(tokens[1]) || !timeTokenRe.MatchString(tokens[2]) {
		return "", time.Time{}, fmt.Errorf("%w: bad date/time tokens %q %q", ErrMalformedHeader, tokens[1], tokens[2])
	}

	occurredAt, err := time.Parse(headerTimeLayout, tokens[1]+" "+tokens[2])
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: %v", ErrMalformedHeader, err)
	}

	// Two-digit years always mean 2000+YY; time.Parse maps 69-99 to 19YY.
	if occurredAt.Year() < 2000 {
		occurredAt = occurredAt.AddDate(100, 0, 0)
	}

	return cardID, occurredAt, nil
}

func parseAmountLine(line string) (string, decimal.Decimal, error) {
	matches := amountRe.FindStringSubmatch(line)
	if matches == nil {
		return "", decimal.Decimal{}, fmt.Errorf("%w: no decimal amount with %q suffix in %q", ErrMalformedAmount, CurrencyMarker, line)
	}

	amount, err := decimal.NewFromString(matches[2])
	if err != nil {
		return "", decimal.Decimal{}, fmt.Errorf("%w: %v", ErrMalformedAmount, err)
	}

	description := strings.TrimSpace(matches[1])
	if description == "" {
		return "", decimal.Decimal{}, fmt.Errorf("%w: missing operation description", ErrMalformedAmount)
	}

	return description, amount, nil
}

func parseBalanceLine(line string) (decimal.Decimal, error) {
	matches := balanceRe.FindStringSubmatch(line)
	if matches == nil {
		return decimal.Decimal{}, fmt.Errorf("%w: expected %q prefix and decimal value in %q", ErrMalformedBalance, balanceLabel, line)
	}

	balance, err := decimal.NewFromString(matches[1])
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %v", ErrMalformedBalance, err)
	}

	return balance, nil
}

// IsParseError reports whether err is one of the parser's rejection reasons,
// as opposed to an infrastructure failure.
func IsParseError(err error) bool {
	return errors.Is(err, ErrNotTransaction) ||
		errors.Is(err, ErrMalformedHeader) ||
		errors.Is(err, ErrMalformedAmount) ||
		errors.Is(err, ErrMalformedBalance)
}
