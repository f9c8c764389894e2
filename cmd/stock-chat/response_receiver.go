package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/stock-chat/stock-chat/internal/command"
	"github.com/stock-chat/stock-chat/internal/config"
	"github.com/stock-chat/stock-chat/internal/controller/api"
	"github.com/stock-chat/stock-chat/internal/platform/db"
	"github.com/stock-chat/stock-chat/internal/platform/logger"
	"github.com/stock-chat/stock-chat/internal/platform/queue"
	"github.com/stock-chat/stock-chat/internal/platform/utils"
	"github.com/stock-chat/stock-chat/internal/receiver"

	"github.com/gorilla/mux"
)

func startResponseReceiver(mgmtAddr string) {

	logger.Log.Info("Starting Stock-Chat response receiver")

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

	kafkaConsumerCfg := &queue.ConsumerConfig{
		Brokers:    cfg.KafkaBrokers,
		SaslConfig: buildSaslConfig(cfg),
		Topic:      cfg.KafkaBotResponsesTopic,
		GroupID:    cfg.KafkaBotResponsesGroupID,
	}

	kafkaReader := queue.StartConsumer(kafkaConsumerCfg)

	responseReceiver := receiver.NewResponseReceiver(kafkaReader, commandStore)

	shutdownCtx, shutdownCtxCancel := context.WithCancel(context.Background())

	fatalProcessingError := make(chan error, 1)

	go func() {
		if err := responseReceiver.Run(shutdownCtx); err != nil {
			fatalProcessingError <- err
		}
	}()

	apiMux := mux.NewRouter()

	monitoringServer := api.NewMonitoringServer(apiMux, cfg)
	monitoringServer.Routes()

	apiSrv := utils.StartHTTPServer(mgmtAddr, "management", apiMux)

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-signalChan:
		logger.Log.Info("Received signal to shutdown: ", sig)
		shutdownCtxCancel()
	case err := <-fatalProcessingError:
		logger.LogError("Response receiver stopped with a fatal error", err)
		shutdownCtxCancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HttpShutdownTimeout)
	defer cancel()

	utils.ShutdownHTTPServer(ctx, "management", apiSrv)

	if err := kafkaReader.Close(); err != nil {
		logger.LogError("Failed to close kafka reader", err)
	}

	logger.Log.Info("Stock-Chat response receiver shutting down")
}
