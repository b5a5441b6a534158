package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/salarysms/salary-bot/internal/sms"
	"github.com/salarysms/salary-bot/internal/tracker"
)

// NewSMSHandler processes plain text messages: every non-command text is
// treated as a candidate bank SMS. Stored records are fanned out to the
// owner's notify list.
func NewSMSHandler(svc *tracker.Service, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		ctx := context.Background()
		owner := c.Sender().ID
		text := c.Text()

		record, recipients, err := svc.HandleText(ctx, owner, text)
		if err != nil {
			switch {
			case errors.Is(err, tracker.ErrCardIgnored):
				return c.Send("Карта в списке игнорируемых, запись не сохранена")
			case errors.Is(err, sms.ErrNotTransaction):
				return c.Send("Это не похоже на СМС о зачислении. Нужно три строки: карта и дата, сумма, баланс")
			case errors.Is(err, sms.ErrMalformedHeader):
				return c.Send("Не удалось разобрать первую строку: ожидаю «КАРТА ДД.ММ.ГГ ЧЧ:ММ»")
			case errors.Is(err, sms.ErrMalformedAmount):
				return c.Send("Не удалось разобрать сумму: ожидаю «описание 12345.57р»")
			case errors.Is(err, sms.ErrMalformedBalance):
				return c.Send("Не удалось разобрать баланс: ожидаю «Баланс: 16063.28р»")
			default:
				return err
			}
		}

		reply := fmt.Sprintf(
			"Записано: %sр, карта %s, %s",
			record.Amount.StringFixed(2),
			record.CardID,
			record.OccurredAt.Format("02.01.2006 15:04"),
		)

		if monthly, reportErr := svc.MonthlyReport(ctx, owner, record.OccurredAt.Month(), record.OccurredAt.Year()); reportErr == nil {
			reply += fmt.Sprintf("\nВсего за %02d.%d: %sр", int(monthly.Month), monthly.Year, monthly.Total.StringFixed(2))
		}

		if err := c.Send(reply); err != nil {
			return err
		}

		fanOut(c, log, owner, text, recipients)
		return nil
	}
}

// fanOut forwards a copy of the stored message to each subscribed chat.
// Delivery failures are logged per recipient and never fail the update.
func fanOut(c telebot.Context, log *slog.Logger, owner int64, text string, recipients []int64) {
	if len(recipients) == 0 || c.Bot() == nil {
		return
	}

	copyText := fmt.Sprintf("Новое зачисление у %d:\n%s", owner, text)
	for _, recipient := range recipients {
		if _, err := c.Bot().Send(telebot.ChatID(recipient), copyText); err != nil {
			log.Warn("notify delivery failed",
				slog.Int64("owner", owner),
				slog.Int64("recipient", recipient),
				slog.Any("error", err),
			)
		}
	}
}
