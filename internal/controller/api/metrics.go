package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesPostedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_chat_api_messages_posted_count",
		Help: "The number of chat messages posted through the API",
	})

	commandsQueuedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_chat_api_commands_queued_count",
		Help: "The number of slash commands accepted and queued for the bot",
	})

	loginCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_chat_api_login_count",
		Help: "The number of login attempts partitioned by outcome",
	}, []string{"outcome"})

	updateMessagesDeliveredCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_chat_api_update_messages_delivered_count",
		Help: "The number of display messages delivered through the updates endpoint",
	})
)
