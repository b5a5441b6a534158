package handlers

import (
	"context"
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/salarysms/salary-bot/internal/tracker"
)

// NewUserInfoHandler answers /userinfo with storage counters for the chat.
func NewUserInfoHandler(svc *tracker.Service, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		ctx := context.Background()
		owner := c.Sender().ID

		count, err := svc.RecordCount(ctx, owner)
		if err != nil {
			return err
		}

		ignored, err := svc.IgnoredCards(ctx, owner)
		if err != nil {
			return err
		}

		recipients, err := svc.NotifyList(ctx, owner)
		if err != nil {
			return err
		}

		return c.Send(fmt.Sprintf(
			"Ваш ID: %d\nЗаписей: %d\nИгнорируемых карт: %d\nПодписанных чатов: %d",
			owner,
			count,
			len(ignored),
			len(recipients),
		))
	}
}
