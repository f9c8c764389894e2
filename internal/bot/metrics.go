package bot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type botMetrics struct {
	requestsProcessedCounter *prometheus.CounterVec
	stockCacheHitCounter     prometheus.Counter
}

var metrics = initializeBotMetrics()

func initializeBotMetrics() *botMetrics {
	metrics := new(botMetrics)

	metrics.requestsProcessedCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_chat_bot_requests_processed_count",
		Help: "The number of command requests processed by the bot worker",
	}, []string{"command"})

	metrics.stockCacheHitCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_chat_bot_stock_cache_hit_count",
		Help: "The number of stock lookups served from the in-memory quote cache",
	})

	return metrics
}

func commandLabel(name string) prometheus.Labels {
	return prometheus.Labels{"command": name}
}
