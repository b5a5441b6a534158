package handlers

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/salarysms/salary-bot/internal/bot/keyboard"
	"github.com/salarysms/salary-bot/internal/errs"
	"github.com/salarysms/salary-bot/internal/i18n"
	"github.com/salarysms/salary-bot/internal/tracker"
	"github.com/salarysms/salary-bot/pkg/config"
)

// NewAllDataHandler answers /alldata with per-owner storage totals.
func NewAllDataHandler(svc *tracker.Service, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		records, err := svc.ListAll(context.Background())
		if err != nil {
			return err
		}

		if len(records) == 0 {
			return c.Send("Хранилище пусто")
		}

		perOwner := make(map[int64]int)
		for _, record := range records {
			perOwner[record.Owner]++
		}

		text := fmt.Sprintf("Всего записей: %d\nПользователей: %d\n", len(records), len(perOwner))
		for owner, count := range perOwner {
			text += fmt.Sprintf("%d: %d записей\n", owner, count)
		}

		return c.Send(text)
	}
}

// NewDumpDBHandler answers /dumpdb with the whole store as CSV, owner
// column included.
func NewDumpDBHandler(svc *tracker.Service, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		data, err := svc.ExportAllCSV(context.Background())
		if err != nil {
			return err
		}

		log.Info("full dump requested", slog.Int64("admin", c.Sender().ID), slog.Int("bytes", len(data)))

		return c.Send(&telebot.Document{
			File:     telebot.FromReader(bytes.NewReader(data)),
			FileName: fmt.Sprintf("dump_%s.csv", time.Now().Format("2006-01-02")),
			MIME:     "text/csv",
		})
	}
}

// NewPurgeHandler asks for confirmation before deleting records. Without
// arguments it targets the sender's own data; admins may pass a chat ID to
// purge another chat.
func NewPurgeHandler(svc *tracker.Service, kb *keyboard.Builder, t i18n.Translator, cfg config.BotConfig) Handler {
	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		sender := c.Sender().ID
		target := sender
		if args := c.Args(); len(args) == 1 {
			if !cfg.IsAdmin(sender) {
				return errs.NewAccessDeniedError()
			}

			parsed, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
			if err != nil {
				return errs.NewValidationError(fmt.Sprintf("«%s» не похоже на идентификатор чата", args[0]))
			}
			target = parsed
		}

		count, err := svc.RecordCount(context.Background(), target)
		if err != nil {
			return err
		}

		if count == 0 {
			return c.Send("Удалять нечего: записей нет")
		}

		prompt := fmt.Sprintf("Удалить все ваши записи (%d шт.)? Это действие необратимо", count)
		if target != sender {
			prompt = fmt.Sprintf("Удалить все записи чата %d (%d шт.)? Это действие необратимо", target, count)
		}

		return c.Send(prompt, kb.ConfirmButtons(t, "purge", strconv.FormatInt(target, 10)))
	}
}

// NewPurgeDBHandler asks for confirmation before emptying the entire store.
func NewPurgeDBHandler(kb *keyboard.Builder, t i18n.Translator) Handler {
	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		return c.Send(
			"Удалить ВСЕ записи ВСЕХ пользователей? Это действие необратимо",
			kb.ConfirmButtons(t, "purgedb", ""),
		)
	}
}

// HandlePurgeConfirm deletes the targeted records after confirmation. A
// target other than the sender requires admin rights; the button payload is
// user-originated data and cannot be trusted on its own.
func HandlePurgeConfirm(svc *tracker.Service, cfg config.BotConfig, log *slog.Logger) CallbackHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		defer func() { _ = c.Respond(&telebot.CallbackResponse{}) }()

		sender := c.Sender().ID
		target := sender
		if cb := c.Callback(); cb != nil {
			data := strings.TrimPrefix(cb.Data, "\f")
			if _, payload, err := keyboard.DecodeCallback(data); err == nil && payload != "" {
				if parsed, convErr := strconv.ParseInt(payload, 10, 64); convErr == nil {
					target = parsed
				}
			}
		}

		if target != sender && !cfg.IsAdmin(sender) {
			return errs.NewAccessDeniedError()
		}

		if err := svc.Purge(context.Background(), target); err != nil {
			return err
		}

		log.Info("purge confirmed", slog.Int64("sender", sender), slog.Int64("target", target))
		if target == sender {
			return c.Edit("Ваши записи удалены")
		}
		return c.Edit(fmt.Sprintf("Записи чата %d удалены", target))
	}
}

// HandlePurgeDBConfirm empties the store after confirmation.
func HandlePurgeDBConfirm(svc *tracker.Service, log *slog.Logger) CallbackHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		defer func() { _ = c.Respond(&telebot.CallbackResponse{}) }()

		if err := svc.PurgeAll(context.Background()); err != nil {
			return err
		}

		log.Warn("full purge confirmed", slog.Int64("admin", c.Sender().ID))
		return c.Edit("Хранилище очищено")
	}
}

// HandlePurgeCancel dismisses a pending confirmation.
func HandlePurgeCancel() CallbackHandler {
	return func(c telebot.Context) error {
		if c == nil {
			return nil
		}

		defer func() { _ = c.Respond(&telebot.CallbackResponse{}) }()
		return c.Edit("Удаление отменено")
	}
}
