package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/salarysms/salary-bot/internal/bot/keyboard"
	"github.com/salarysms/salary-bot/internal/domain"
	"github.com/salarysms/salary-bot/internal/i18n"
	"github.com/salarysms/salary-bot/internal/tracker"
)

const userDataPageSize = 10

// NewUserDataHandler answers /userdata with the first page of the owner's
// records; inline buttons page through the rest.
func NewUserDataHandler(svc *tracker.Service, kb *keyboard.Builder, t i18n.Translator, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		return sendRecordsPage(c, svc, kb, t, 1, false)
	}
}

// HandleUserDataPage is the callback handler behind the pagination buttons.
func HandleUserDataPage(svc *tracker.Service, kb *keyboard.Builder, t i18n.Translator, action string, log *slog.Logger) CallbackHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		page := 1
		if cb := c.Callback(); cb != nil {
			data := strings.TrimPrefix(cb.Data, "\f")
			if _, payload, err := keyboard.DecodeCallback(data); err == nil {
				if parsed, convErr := strconv.Atoi(payload); convErr == nil {
					page = parsed
				}
			}
		}

		defer func() { _ = c.Respond(&telebot.CallbackResponse{}) }()

		return sendRecordsPage(c, svc, kb, t, page, true)
	}
}

func sendRecordsPage(c telebot.Context, svc *tracker.Service, kb *keyboard.Builder, t i18n.Translator, page int, edit bool) error {
	records, err := svc.History(context.Background(), c.Sender().ID)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		return c.Send("Записей пока нет. Пришлите СМС от банка или CSV-файл")
	}

	totalPages := (len(records) + userDataPageSize - 1) / userDataPageSize
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * userDataPageSize
	end := start + userDataPageSize
	if end > len(records) {
		end = len(records)
	}

	text := renderRecords(records[start:end], start)
	markup := kb.Pagination(t, "userdata_page", page, totalPages)

	if edit {
		if editErr := c.Edit(text, markup); editErr == nil {
			return nil
		}
		// Editing fails when the page content did not change; fall through.
		return nil
	}

	return c.Send(text, markup)
}

func renderRecords(records []domain.TransactionRecord, offset int) string {
	var sb strings.Builder
	for idx, record := range records {
		sb.WriteString(fmt.Sprintf(
			"%d. %s | %s | %s | %sр\n",
			offset+idx+1,
			record.OccurredAt.Format("02.01.2006 15:04"),
			record.CardID,
			record.Description,
			record.Amount.StringFixed(2),
		))
	}

	return strings.TrimRight(sb.String(), "\n")
}
