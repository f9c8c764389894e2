package command

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type commandStoreMetrics struct {
	sqlCommandCreateDuration       prometheus.Histogram
	sqlCommandAnswerDuration       prometheus.Histogram
	sqlCommandTakeAnsweredDuration prometheus.Histogram
	commandRecordsDeliveredCounter prometheus.Counter
	commandsDispatchedCounter      *prometheus.CounterVec
	unknownCommandCounter          prometheus.Counter
}

var metrics = initializeCommandStoreMetrics()

func initializeCommandStoreMetrics() *commandStoreMetrics {
	metrics := new(commandStoreMetrics)

	metrics.sqlCommandCreateDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "stock_chat_sql_create_command_duration",
		Help: "The amount of time it took to store a pending command record in the db",
	})

	metrics.sqlCommandAnswerDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "stock_chat_sql_record_answer_duration",
		Help: "The amount of time it took to record a bot answer in the db",
	})

	metrics.sqlCommandTakeAnsweredDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "stock_chat_sql_take_answered_duration",
		Help: "The amount of time it took to drain answered command records from the db",
	})

	metrics.commandRecordsDeliveredCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_chat_command_records_delivered_count",
		Help: "The number of answered command records delivered to polling clients",
	})

	metrics.commandsDispatchedCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_chat_commands_dispatched_count",
		Help: "The number of commands published to the bot requests queue",
	}, []string{"command"})

	metrics.unknownCommandCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_chat_unknown_command_count",
		Help: "The number of posted commands with an unrecognized command name",
	})

	return metrics
}
