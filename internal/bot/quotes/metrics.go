package quotes

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	upstreamRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "stock_chat_quote_source_request_duration",
		Help: "The amount of time it took the quote source to answer",
	}, []string{"status_code"})
)

func observeUpstreamRequest(statusCode int, duration time.Duration) {
	upstreamRequestDuration.With(prometheus.Labels{
		"status_code": strconv.Itoa(statusCode)}).Observe(duration.Seconds())
}
