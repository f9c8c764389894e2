package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/stock-chat/stock-chat/internal/bot"
	"github.com/stock-chat/stock-chat/internal/bot/quotes"
	"github.com/stock-chat/stock-chat/internal/config"
	"github.com/stock-chat/stock-chat/internal/controller/api"
	"github.com/stock-chat/stock-chat/internal/platform/logger"
	"github.com/stock-chat/stock-chat/internal/platform/queue"
	"github.com/stock-chat/stock-chat/internal/platform/utils"

	"github.com/gorilla/mux"
)

func startBotWorker(mgmtAddr string) {

	logger.Log.Info("Starting Stock-Chat bot worker")

	cfg := config.GetConfig()
	logger.Log.Info("Stock-Chat configuration:\n", cfg)

	kafkaConsumerCfg := &queue.ConsumerConfig{
		Brokers:    cfg.KafkaBrokers,
		SaslConfig: buildSaslConfig(cfg),
		Topic:      cfg.KafkaBotRequestsTopic,
		GroupID:    cfg.KafkaBotRequestsGroupID,
	}

	kafkaReader := queue.StartConsumer(kafkaConsumerCfg)

	kafkaProducerCfg := &queue.ProducerConfig{
		Brokers:    cfg.KafkaBrokers,
		SaslConfig: buildSaslConfig(cfg),
		Topic:      cfg.KafkaBotResponsesTopic,
		BatchSize:  1,
		Balancer:   "hash",
	}

	kafkaWriter := queue.StartProducer(kafkaProducerCfg)

	quoteClient := quotes.NewClient(cfg)

	handlers := bot.NewHandlers(quoteClient, cfg.QuoteCacheSize, cfg.QuoteCacheTTL)

	worker, err := bot.NewWorker(kafkaReader, kafkaWriter, handlers)
	if err != nil {
		logger.LogFatalError("Failed to create bot worker", err)
	}

	shutdownCtx, shutdownCtxCancel := context.WithCancel(context.Background())

	// If the consumer loop runs into a fatal error, notify the main
	// thread so that it can shutdown the process
	fatalProcessingError := make(chan error, 1)

	go func() {
		if err := worker.Run(shutdownCtx); err != nil {
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
		logger.LogError("Bot worker stopped with a fatal error", err)
		shutdownCtxCancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HttpShutdownTimeout)
	defer cancel()

	utils.ShutdownHTTPServer(ctx, "management", apiSrv)

	if err := kafkaReader.Close(); err != nil {
		logger.LogError("Failed to close kafka reader", err)
	}

	if err := kafkaWriter.Close(); err != nil {
		logger.LogError("Failed to close kafka writer", err)
	}

	logger.Log.Info("Stock-Chat bot worker shutting down")
}
