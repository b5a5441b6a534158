// Package errs defines the application error taxonomy.
package errs

import "fmt"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

type AppError struct {
	Code        string
	Message     string
	UserMessage string
	Severity    Severity
	Retryable   bool
	cause       error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

func (e *AppError) Cause() error {
	return e.Unwrap()
}

// NewParseError wraps a message rejection from the SMS parser. Low severity:
// the user simply sent text the grammar does not recognize.
func NewParseError(cause error) *AppError {
	var underlyingMsg string
	if cause != nil {
		underlyingMsg = cause.Error()
	}

	return &AppError{
		Code:        "E100",
		Message:     fmt.Sprintf("Parse error: %s", underlyingMsg),
		UserMessage: "Не удалось распознать сообщение. Отправьте корректное СМС от банка",
		Severity:    SeverityLow,
		Retryable:   false,
		cause:       cause,
	}
}

// NewValidationError flags malformed command arguments.
func NewValidationError(msg string) *AppError {
	return &AppError{
		Code:        "E110",
		Message:     msg,
		UserMessage: fmt.Sprintf("Неверный формат данных. %s", msg),
		Severity:    SeverityLow,
		Retryable:   false,
		cause:       nil,
	}
}

// NewImportError wraps an unreadable import file. Nothing was written.
func NewImportError(cause error) *AppError {
	var underlyingMsg string
	if cause != nil {
		underlyingMsg = cause.Error()
	}

	return &AppError{
		Code:        "E120",
		Message:     fmt.Sprintf("Import error: %s", underlyingMsg),
		UserMessage: "Файл не удалось прочитать. Импорт отменён, ничего не записано",
		Severity:    SeverityLow,
		Retryable:   false,
		cause:       cause,
	}
}

func NewDatabaseError(cause error) *AppError {
	var underlyingMsg string
	if cause != nil {
		underlyingMsg = cause.Error()
	}

	return &AppError{
		Code:        "E200",
		Message:     fmt.Sprintf("Database error: %s", underlyingMsg),
		UserMessage: "Временная проблема, попробуйте позже",
		Severity:    SeverityHigh,
		Retryable:   true,
		cause:       cause,
	}
}

// NewTelegramError wraps failures of the Telegram API itself.
func NewTelegramError(cause error) *AppError {
	return &AppError{
		Code:        "E300",
		Message:     "Telegram API error",
		UserMessage: "Сервис временно недоступен",
		Severity:    SeverityMedium,
		Retryable:   true,
		cause:       cause,
	}
}

// NewAccessDeniedError flags a non-admin invoking an admin command.
func NewAccessDeniedError() *AppError {
	return &AppError{
		Code:        "E400",
		Message:     "access denied",
		UserMessage: "У вас нет доступа к этой команде",
		Severity:    SeverityLow,
		Retryable:   false,
		cause:       nil,
	}
}

func NewRateLimitError(retryAfter int) *AppError {
	return &AppError{
		Code:        "E500",
		Message:     fmt.Sprintf("Rate limit exceeded: retry after %d seconds", retryAfter),
		UserMessage: fmt.Sprintf("Слишком много запросов. Попробуйте через %d секунд", retryAfter),
		Severity:    SeverityLow,
		Retryable:   false,
		cause:       nil,
	}
}
