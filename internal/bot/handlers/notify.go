package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/salarysms/salary-bot/internal/errs"
	"github.com/salarysms/salary-bot/internal/tracker"
)

// NewNotifyHandler subscribes another chat to copies of the sender's new
// records. Without arguments it lists current subscriptions.
func NewNotifyHandler(svc *tracker.Service, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		ctx := context.Background()
		owner := c.Sender().ID

		if len(c.Args()) == 0 {
			recipients, err := svc.NotifyList(ctx, owner)
			if err != nil {
				return err
			}

			if len(recipients) == 0 {
				return c.Send("Пересылка не настроена. Использование: /notify ИД_ЧАТА")
			}

			return c.Send("Новые записи пересылаются в чаты:\n" + joinChatIDs(recipients))
		}

		recipient, err := chatArg(c.Args())
		if err != nil {
			return err
		}

		if err := svc.Notify(ctx, owner, recipient); err != nil {
			return err
		}

		log.Info("notify subscription added", slog.Int64("owner", owner), slog.Int64("recipient", recipient))
		return c.Send(fmt.Sprintf("Чат %d будет получать копии новых записей", recipient))
	}
}

// NewDenotifyHandler removes a notify subscription.
func NewDenotifyHandler(svc *tracker.Service, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		recipient, err := chatArg(c.Args())
		if err != nil {
			return err
		}

		owner := c.Sender().ID
		if err := svc.Denotify(context.Background(), owner, recipient); err != nil {
			return err
		}

		log.Info("notify subscription removed", slog.Int64("owner", owner), slog.Int64("recipient", recipient))
		return c.Send(fmt.Sprintf("Чат %d отключён от пересылки", recipient))
	}
}

func chatArg(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, errs.NewValidationError("укажите идентификатор чата, например /notify 123456789")
	}

	recipient, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
	if err != nil {
		return 0, errs.NewValidationError(fmt.Sprintf("«%s» не похоже на идентификатор чата", args[0]))
	}

	return recipient, nil
}

func joinChatIDs(ids []int64) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatInt(id, 10))
	}

	return strings.Join(parts, "\n")
}
