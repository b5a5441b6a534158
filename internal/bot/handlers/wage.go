package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/salarysms/salary-bot/internal/errs"
	"github.com/salarysms/salary-bot/internal/tracker"
)

// NewWageHandler answers /wage: the sum of stored credits for one calendar
// month. Without arguments the previous month is reported.
func NewWageHandler(svc *tracker.Service, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		month, year, err := parseWageArgs(c.Args())
		if err != nil {
			return err
		}

		report, err := svc.MonthlyReport(context.Background(), c.Sender().ID, month, year)
		if err != nil {
			return err
		}

		if len(report.Records) == 0 {
			return c.Send(fmt.Sprintf("За %02d.%d зачислений не найдено", int(report.Month), report.Year))
		}

		return c.Send(fmt.Sprintf(
			"Зарплата за %02d.%d: %sр (%d зачислений)",
			int(report.Month),
			report.Year,
			report.Total.StringFixed(2),
			len(report.Records),
		))
	}
}

// parseWageArgs accepts no arguments (previous month) or "месяц год".
func parseWageArgs(args []string) (time.Month, int, error) {
	if len(args) == 0 {
		return 0, 0, nil
	}

	if len(args) != 2 {
		return 0, 0, errs.NewValidationError("использование: /wage или /wage МЕСЯЦ ГОД")
	}

	monthNum, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, 0, errs.NewValidationError(fmt.Sprintf("«%s» не похоже на номер месяца", args[0]))
	}

	year, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, 0, errs.NewValidationError(fmt.Sprintf("«%s» не похоже на год", args[1]))
	}

	return time.Month(monthNum), year, nil
}
