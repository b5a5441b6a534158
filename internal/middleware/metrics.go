package middleware

import (
	"strings"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/salarysms/salary-bot/internal/bot/handlers"
	"github.com/salarysms/salary-bot/pkg/metrics"
)

// Metrics measures execution time and status for bot handlers, reporting them to Prometheus.
func Metrics(next handlers.Handler) handlers.Handler {
	if next == nil {
		return nil
	}

	return func(c telebot.Context) error {
		start := time.Now()
		err := next(c)

		command := extractCommandName(c)
		status := "ok"
		if err != nil {
			status = "error"
		}

		metrics.RecordCommand(command, status, time.Since(start))

		return err
	}
}

// extractCommandName maps an update to a low-cardinality label: the command
// word, the callback unique, "document" for uploads, or "text" for raw SMS.
func extractCommandName(c telebot.Context) string {
	if c == nil {
		return "unknown"
	}

	if cb := c.Callback(); cb != nil && cb.Data != "" {
		data := strings.TrimPrefix(cb.Data, "\f")
		if idx := strings.IndexAny(data, ":|"); idx > 0 {
			data = data[:idx]
		}
		return data
	}

	if msg := c.Message(); msg != nil && msg.Document != nil {
		return "document"
	}

	text := c.Text()
	if strings.HasPrefix(text, "/") {
		if idx := strings.IndexAny(text, " @"); idx > 0 {
			text = text[:idx]
		}
		return text
	}

	if text != "" {
		return "text"
	}

	return "unknown"
}
