package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/stock-chat/stock-chat/internal/config"

	_ "github.com/lib/pq"
)

func InitializeDatabaseConnection(cfg *config.Config) (*sql.DB, error) {

	psqlConnectionInfo := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s TimeZone=UTC",
		cfg.ChatDatabaseHost,
		cfg.ChatDatabasePort,
		cfg.ChatDatabaseUser,
		cfg.ChatDatabasePassword,
		cfg.ChatDatabaseName)

	sslSettings, err := buildPostgresSslConfigString(cfg)
	if err != nil {
		return nil, err
	}

	psqlConnectionInfo += " " + sslSettings

	return sql.Open("postgres", psqlConnectionInfo)
}

func buildPostgresSslConfigString(cfg *config.Config) (string, error) {
	if cfg.ChatDatabaseSslMode == "disable" {
		return "sslmode=disable", nil
	} else if cfg.ChatDatabaseSslMode == "verify-full" {
		return "sslmode=verify-full sslrootcert=" + cfg.ChatDatabaseSslRootCert, nil
	} else {
		return "", errors.New("Invalid SSL configuration for database connection: " + cfg.ChatDatabaseSslMode)
	}
}
