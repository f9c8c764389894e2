package main

import (
	"context"
	"time"

	"github.com/stock-chat/stock-chat/internal/command"
	"github.com/stock-chat/stock-chat/internal/config"
	"github.com/stock-chat/stock-chat/internal/platform/db"
	"github.com/stock-chat/stock-chat/internal/platform/logger"
)

// startCommandRecordCleaner removes command records that were never
// answered or never collected by their owner.  It is meant to run
// periodically as a cron style job.
func startCommandRecordCleaner() {

	logger.Log.Info("Starting Stock-Chat command record cleaner")

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

	cutoff := time.Now().UTC().Add(-cfg.CommandRecordRetentionAge)

	removed, err := commandStore.DeleteAbandonedBefore(context.Background(), cutoff)
	if err != nil {
		logger.LogFatalError("Failed to remove abandoned command records", err)
	}

	logger.Log.Infof("Removed %d command records posted before %s", removed, cutoff.Format(time.RFC3339))
}
