package handlers

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/salarysms/salary-bot/internal/tracker"
)

// NewFormCSVHandler answers /formcsv with the owner's records as a CSV
// document. The file re-imports cleanly.
func NewFormCSVHandler(svc *tracker.Service, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		owner := c.Sender().ID
		data, err := svc.ExportCSV(context.Background(), owner)
		if err != nil {
			return err
		}

		log.Info("export requested", slog.Int64("owner", owner), slog.Int("bytes", len(data)))

		return c.Send(&telebot.Document{
			File:     telebot.FromReader(bytes.NewReader(data)),
			FileName: fmt.Sprintf("records_%s.csv", time.Now().Format("2006-01-02")),
			MIME:     "text/csv",
		})
	}
}
