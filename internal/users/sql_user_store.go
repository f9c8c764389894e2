package users

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/stock-chat/stock-chat/internal/config"
	"github.com/stock-chat/stock-chat/internal/domain"
	"github.com/stock-chat/stock-chat/internal/platform/logger"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

// UserStore authenticates chat users against the users table.
type UserStore interface {
	Authenticate(ctx context.Context, username string, password string) (domain.User, error)
}

type SqlUserStore struct {
	database     *sql.DB
	queryTimeout time.Duration
}

func NewSqlUserStore(cfg *config.Config, database *sql.DB) (*SqlUserStore, error) {
	return &SqlUserStore{
		database:     database,
		queryTimeout: cfg.ChatDatabaseQueryTimeout,
	}, nil
}

func (sus *SqlUserStore) Authenticate(ctx context.Context, username string, password string) (domain.User, error) {

	ctx, cancel := context.WithTimeout(ctx, sus.queryTimeout)
	defer cancel()

	var userID int64
	var passwordHash string

	err := sus.database.QueryRowContext(ctx,
		"SELECT id, password_hash FROM users WHERE username = $1",
		username).Scan(&userID, &passwordHash)
	if err == sql.ErrNoRows {
		return domain.User{}, ErrInvalidCredentials
	}
	if err != nil {
		logger.LogError("Error reading user from database", err)
		return domain.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)); err != nil {
		return domain.User{}, ErrInvalidCredentials
	}

	return domain.User{ID: domain.UserID(userID), Username: domain.Username(username)}, nil
}
