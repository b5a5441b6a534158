package handlers

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/salarysms/salary-bot/internal/errs"
	"github.com/salarysms/salary-bot/internal/tracker"
)

// Telegram bot API caps downloads at 20 MB anyway; SMS exports are tiny.
const maxImportFileSize = 10 << 20

// NewDocumentHandler imports an uploaded CSV file into the owner's records.
func NewDocumentHandler(svc *tracker.Service, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		msg := c.Message()
		if msg == nil || msg.Document == nil {
			return nil
		}

		doc := msg.Document
		if doc.FileSize > maxImportFileSize {
			return c.Send("Файл слишком большой для импорта")
		}

		if err := c.Send("Импортирую файл..."); err != nil {
			return err
		}

		reader, err := c.Bot().File(&doc.File)
		if err != nil {
			return errs.NewTelegramError(fmt.Errorf("download import file: %w", err))
		}
		defer func() { _ = reader.Close() }()

		data, err := io.ReadAll(reader)
		if err != nil {
			return errs.NewTelegramError(fmt.Errorf("read import file: %w", err))
		}

		owner := c.Sender().ID
		report, err := svc.HandleFile(context.Background(), owner, data)
		if err != nil {
			return err
		}

		log.Info("import finished",
			slog.Int64("owner", owner),
			slog.String("file", doc.FileName),
			slog.Int("added", report.Added),
			slog.Int("ignored", report.Ignored),
			slog.Int("rejected", report.Rejected),
		)

		return c.Send(fmt.Sprintf(
			"Импорт завершён.\nДобавлено: %d\nПроигнорировано: %d\nОтклонено: %d",
			report.Added,
			report.Ignored,
			report.Rejected,
		))
	}
}
