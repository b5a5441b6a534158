package handlers

import (
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/salarysms/salary-bot/internal/i18n"
)

const helpText = `Пришлите СМС от банка о зачислении, и я сохраню его.

/wage [месяц год] — сумма зачислений за месяц (по умолчанию за прошлый)
/userinfo — сколько записей сохранено
/userdata — список ваших записей
/formcsv — выгрузка ваших записей в CSV
/ignore КАРТА — не учитывать карту
/unignore КАРТА — снова учитывать карту
/ignored — список игнорируемых карт
/notify ЧАТ — пересылать новые записи в другой чат
/denotify ЧАТ — отключить пересылку

Файл CSV с выгрузкой СМС можно прислать как документ — я импортирую его целиком.`

// NewStartHandler greets the user and shows the command reference.
func NewStartHandler(t i18n.Translator) Handler {
	return func(c telebot.Context) error {
		if c == nil {
			return nil
		}

		greeting := translate(t, "start.greeting", "Привет! Я считаю зарплату по СМС от банка.")
		return c.Send(greeting + "\n\n" + helpText)
	}
}

// NewHelpHandler shows the command reference.
func NewHelpHandler() Handler {
	return func(c telebot.Context) error {
		if c == nil {
			return nil
		}

		return c.Send(helpText)
	}
}

func translate(t i18n.Translator, key, fallback string) string {
	if t == nil {
		return fallback
	}

	text := strings.TrimSpace(t.T(key))
	if text == "" || text == key {
		return fallback
	}

	return text
}
