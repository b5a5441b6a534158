package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	botCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_commands_total",
			Help: "Total number of bot commands received labeled by command and status",
		},
		[]string{"command", "status"},
	)
	commandDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "command_duration_seconds",
			Help:    "Duration of bot commands in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)
	messagesParsedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sms_parsed_total",
			Help: "Total number of parsed SMS messages labeled by outcome",
		},
		[]string{"outcome"},
	)
	importRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "import_rows_total",
			Help: "Total number of bulk import rows labeled by outcome",
		},
		[]string{"outcome"},
	)
	recordsAppendedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "records_appended_total",
			Help: "Total number of transaction records written to the store",
		},
	)
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors split by type and severity",
		},
		[]string{"type", "severity"},
	)
)

// RecordCommand increments command counters and records duration.
func RecordCommand(command, status string, duration time.Duration) {
	if command == "" {
		command = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	botCommandsTotal.WithLabelValues(command, status).Inc()
	commandDurationSeconds.WithLabelValues(command).Observe(duration.Seconds())
}

// RecordParse tracks single-message parse outcomes.
func RecordParse(outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}

	messagesParsedTotal.WithLabelValues(outcome).Inc()
}

// RecordImportRow tracks one bulk import row outcome.
func RecordImportRow(outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}

	importRowsTotal.WithLabelValues(outcome).Inc()
}

// RecordAppended counts a stored transaction record.
func RecordAppended() {
	recordsAppendedTotal.Inc()
}

// RecordError increments error counters with metadata.
func RecordError(errType, severity string) {
	if errType == "" {
		errType = "unknown"
	}
	if severity == "" {
		severity = "unknown"
	}

	errorsTotal.WithLabelValues(errType, severity).Inc()
}
