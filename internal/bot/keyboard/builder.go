package keyboard

import (
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/salarysms/salary-bot/internal/i18n"
)

// Builder creates inline keyboards for destructive confirmations and list
// pagination.
type Builder struct {
	log *slog.Logger
}

// NewBuilder returns a new Builder instance.
func NewBuilder(log *slog.Logger) *Builder {
	return &Builder{log: log}
}

// ConfirmButtons builds a confirm/cancel row for a destructive action. The
// action string becomes the callback unique prefix; data rides along on the
// confirm button so the callback knows its target.
func (b *Builder) ConfirmButtons(t i18n.Translator, action, data string) *telebot.ReplyMarkup {
	return NewInlineKeyboard().
		AddRow(
			InlineButton{
				Text:   translated(t, "confirm.yes", "Да, удалить ✅"),
				Unique: action + "_confirm",
				Data:   data,
			},
			InlineButton{
				Text:   translated(t, "confirm.no", "Отмена ❌"),
				Unique: action + "_cancel",
			},
		).
		Build(b.encode)
}

// Pagination builds a navigation row for paginated listings.
func (b *Builder) Pagination(t i18n.Translator, action string, page, totalPages int) *telebot.ReplyMarkup {
	return NewInlineKeyboard().
		AddRow(PaginationButtons(t, action, page, totalPages)...).
		Build(b.encode)
}

func (b *Builder) encode(unique, data string) string {
	payload, err := EncodeCallback(unique, data)
	if err != nil {
		if b.log != nil {
			b.log.Error("callback data too long", slog.String("unique", unique), slog.Any("error", err))
		}
		return unique
	}

	return payload
}
