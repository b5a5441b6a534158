package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"gopkg.in/telebot.v3"

	"github.com/salarysms/salary-bot/internal/errs"
	"github.com/salarysms/salary-bot/internal/ratelimit"
)

// RateLimitMiddleware enforces sliding-window budgets for incoming Telegram
// updates. File uploads count against the strict import budget.
type RateLimitMiddleware struct {
	limiter ratelimit.Limiter
	rules   *ratelimit.Rules
	log     *slog.Logger
}

// NewRateLimitMiddleware constructs a rate-limit middleware component.
func NewRateLimitMiddleware(limiter ratelimit.Limiter, rules *ratelimit.Rules, log *slog.Logger) *RateLimitMiddleware {
	if log == nil {
		log = slog.Default()
	}

	return &RateLimitMiddleware{
		limiter: limiter,
		rules:   rules,
		log:     log,
	}
}

// Handle returns a telebot middleware enforcing the configured budgets.
func (m *RateLimitMiddleware) Handle(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		if m.limiter == nil || !m.rules.Enabled() {
			return next(c)
		}

		sender := c.Sender()
		if sender == nil {
			return next(c)
		}

		userID := sender.ID
		if m.rules.Whitelisted(userID) {
			return next(c)
		}

		category := updateCategory(c)
		rule := m.rules.ForCategory(category)

		key := fmt.Sprintf("user:%d:%s", userID, category)
		result, err := m.limiter.Check(context.Background(), key, rule.Limit, rule.Window)
		if err != nil {
			// A broken limiter must not take the bot down with it.
			m.log.Warn("rate limiter error", slog.Int64("user_id", userID), slog.Any("error", err))
			return next(c)
		}

		if !result.Allowed {
			m.log.Warn("rate limit exceeded",
				slog.Int64("user_id", userID),
				slog.String("category", category),
			)

			retryAfter := int(rule.Window.Seconds())
			appErr := errs.NewRateLimitError(retryAfter)
			return c.Send(appErr.UserMessage)
		}

		return next(c)
	}
}

// updateCategory classifies an update for budget selection.
func updateCategory(c telebot.Context) string {
	if msg := c.Message(); msg != nil && msg.Document != nil {
		return "import"
	}

	text := c.Text()
	switch {
	case strings.HasPrefix(text, "/wage"):
		return "wage"
	case strings.HasPrefix(text, "/formcsv"),
		strings.HasPrefix(text, "/alldata"),
		strings.HasPrefix(text, "/dumpdb"):
		return "export"
	default:
		return "default"
	}
}
