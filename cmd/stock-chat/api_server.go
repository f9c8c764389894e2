package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/stock-chat/stock-chat/internal/chat"
	"github.com/stock-chat/stock-chat/internal/command"
	"github.com/stock-chat/stock-chat/internal/config"
	"github.com/stock-chat/stock-chat/internal/controller/api"
	"github.com/stock-chat/stock-chat/internal/platform/db"
	"github.com/stock-chat/stock-chat/internal/platform/logger"
	"github.com/stock-chat/stock-chat/internal/platform/queue"
	"github.com/stock-chat/stock-chat/internal/platform/utils"
	"github.com/stock-chat/stock-chat/internal/presence"
	"github.com/stock-chat/stock-chat/internal/users"

	"github.com/gorilla/mux"
	"github.com/redhatinsights/platform-go-middlewares/request_id"
)

func startChatApiServer(listenAddr string) {

	logger.Log.Info("Starting Stock-Chat API server")

	cfg := config.GetConfig()
	logger.Log.Info("Stock-Chat configuration:\n", cfg)

	database, err := db.InitializeDatabaseConnection(cfg)
	if err != nil {
		logger.LogFatalError("Unable to connect to database: ", err)
	}

	commandStore, err := command.NewSqlCommandStore(cfg, database)
	if err != nil {
		logger.LogFatalError("Failed to create SQL command store", err)
	}

	messageStore, err := chat.NewSqlMessageStore(cfg, database)
	if err != nil {
		logger.LogFatalError("Failed to create SQL message store", err)
	}

	userStore, err := users.NewSqlUserStore(cfg, database)
	if err != nil {
		logger.LogFatalError("Failed to create SQL user store", err)
	}

	sessionStore := presence.NewRedisSessionStore(cfg)

	kafkaProducerCfg := &queue.ProducerConfig{
		Brokers:    cfg.KafkaBrokers,
		SaslConfig: buildSaslConfig(cfg),
		Topic:      cfg.KafkaBotRequestsTopic,
		BatchSize:  1,
		Balancer:   "hash",
	}

	kafkaWriter := queue.StartProducer(kafkaProducerCfg)

	dispatcher, err := command.NewDispatcher(commandStore, kafkaWriter)
	if err != nil {
		logger.LogFatalError("Failed to create command dispatcher", err)
	}

	apiMux := mux.NewRouter()
	apiMux.Use(request_id.ConfiguredRequestID("x-request-id"))

	monitoringServer := api.NewMonitoringServer(apiMux, cfg)
	monitoringServer.Routes()

	chatServer := api.NewChatServer(apiMux, cfg, messageStore, commandStore, dispatcher, sessionStore, userStore)
	chatServer.Routes()

	apiSrv := utils.StartHTTPServer(listenAddr, "api", apiMux)

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-signalChan
	logger.Log.Info("Received signal to shutdown: ", sig)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HttpShutdownTimeout)
	defer cancel()

	utils.ShutdownHTTPServer(ctx, "api", apiSrv)

	if err := kafkaWriter.Close(); err != nil {
		logger.LogError("Failed to close kafka writer", err)
	}

	logger.Log.Info("Stock-Chat API server shutting down")
}

func buildSaslConfig(cfg *config.Config) *queue.SaslConfig {
	if cfg.KafkaUsername == "" {
		return nil
	}

	return &queue.SaslConfig{
		SaslMechanism: cfg.KafkaSASLMechanism,
		SaslUsername:  cfg.KafkaUsername,
		SaslPassword:  cfg.KafkaPassword,
		KafkaCA:       cfg.KafkaCA,
	}
}
