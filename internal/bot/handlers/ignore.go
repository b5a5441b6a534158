package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/salarysms/salary-bot/internal/errs"
	"github.com/salarysms/salary-bot/internal/tracker"
)

// NewIgnoreHandler adds a card to the chat's ignore list.
func NewIgnoreHandler(svc *tracker.Service, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		cardID, err := cardArg(c.Args())
		if err != nil {
			return err
		}

		owner := c.Sender().ID
		if err := svc.Ignore(context.Background(), owner, cardID); err != nil {
			return err
		}

		log.Info("card ignored", slog.Int64("owner", owner), slog.String("card_id", cardID))
		return c.Send(fmt.Sprintf("Карта %s больше не учитывается", cardID))
	}
}

// NewUnignoreHandler removes a card from the chat's ignore list.
func NewUnignoreHandler(svc *tracker.Service, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		cardID, err := cardArg(c.Args())
		if err != nil {
			return err
		}

		owner := c.Sender().ID
		if err := svc.Unignore(context.Background(), owner, cardID); err != nil {
			return err
		}

		log.Info("card unignored", slog.Int64("owner", owner), slog.String("card_id", cardID))
		return c.Send(fmt.Sprintf("Карта %s снова учитывается", cardID))
	}
}

// NewIgnoredHandler lists the chat's ignored cards.
func NewIgnoredHandler(svc *tracker.Service) Handler {
	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		cards, err := svc.IgnoredCards(context.Background(), c.Sender().ID)
		if err != nil {
			return err
		}

		if len(cards) == 0 {
			return c.Send("Список игнорируемых карт пуст")
		}

		return c.Send("Игнорируемые карты:\n" + strings.Join(cards, "\n"))
	}
}

func cardArg(args []string) (string, error) {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return "", errs.NewValidationError("укажите номер карты, например VISA1234")
	}

	return strings.TrimSpace(args[0]), nil
}
