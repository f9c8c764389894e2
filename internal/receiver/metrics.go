package receiver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type receiverMetrics struct {
	responsesRecordedCounter prometheus.Counter
	responsesDroppedCounter  prometheus.Counter
}

var metrics = initializeReceiverMetrics()

func initializeReceiverMetrics() *receiverMetrics {
	metrics := new(receiverMetrics)

	metrics.responsesRecordedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_chat_responses_recorded_count",
		Help: "The number of bot responses written into the command store",
	})

	metrics.responsesDroppedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_chat_responses_dropped_count",
		Help: "The number of bot responses dropped because they could not be matched or stored",
	})

	return metrics
}
