package chat

import (
	"context"
	"database/sql"
	"time"

	"github.com/stock-chat/stock-chat/internal/config"
	"github.com/stock-chat/stock-chat/internal/platform/logger"
)

// MessageStore is the append/query log of chat messages.
type MessageStore interface {
	Append(ctx context.Context, message *Message) error
	LastN(ctx context.Context, count int) ([]Message, error)
	PostedAfter(ctx context.Context, after time.Time, limit int) ([]Message, error)
}

type SqlMessageStore struct {
	database     *sql.DB
	queryTimeout time.Duration
}

func NewSqlMessageStore(cfg *config.Config, database *sql.DB) (*SqlMessageStore, error) {
	return &SqlMessageStore{
		database:     database,
		queryTimeout: cfg.ChatDatabaseQueryTimeout,
	}, nil
}

func (sms *SqlMessageStore) Append(ctx context.Context, message *Message) error {

	ctx, cancel := context.WithTimeout(ctx, sms.queryTimeout)
	defer cancel()

	err := sms.database.QueryRowContext(ctx,
		`INSERT INTO messages (user_id, username, posted_at, text)
         VALUES ($1, $2, $3, $4) RETURNING id`,
		message.UserID, message.Username, message.PostedAt, message.Text).Scan(&message.ID)
	if err != nil {
		logger.LogError("Error saving message in database", err)
		return err
	}

	return nil
}

func (sms *SqlMessageStore) LastN(ctx context.Context, count int) ([]Message, error) {

	ctx, cancel := context.WithTimeout(ctx, sms.queryTimeout)
	defer cancel()

	rows, err := sms.database.QueryContext(ctx,
		`SELECT id, user_id, username, posted_at, text FROM messages
         ORDER BY posted_at DESC LIMIT $1`, count)
	if err != nil {
		logger.LogError("Error reading messages from database", err)
		return nil, err
	}
	defer rows.Close()

	return scanMessagesOldestFirst(rows)
}

func (sms *SqlMessageStore) PostedAfter(ctx context.Context, after time.Time, limit int) ([]Message, error) {

	ctx, cancel := context.WithTimeout(ctx, sms.queryTimeout)
	defer cancel()

	// The limit defends against unbounded historical queries when a
	// client sends a very old timestamp.
	rows, err := sms.database.QueryContext(ctx,
		`SELECT id, user_id, username, posted_at, text FROM messages
         WHERE posted_at > $1 ORDER BY posted_at DESC LIMIT $2`, after, limit)
	if err != nil {
		logger.LogError("Error reading messages from database", err)
		return nil, err
	}
	defer rows.Close()

	return scanMessagesOldestFirst(rows)
}

// scanMessagesOldestFirst reverses the newest-first query order so
// callers receive messages in the order they were posted.
func scanMessagesOldestFirst(rows *sql.Rows) ([]Message, error) {

	var messages []Message
	for rows.Next() {
		var message Message
		if err := rows.Scan(&message.ID, &message.UserID, &message.Username,
			&message.PostedAt, &message.Text); err != nil {
			logger.LogError("SQL row scan failed", err)
			return nil, err
		}
		messages = append(messages, message)
	}

	if err := rows.Err(); err != nil {
		logger.LogError("SQL row iteration failed", err)
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}
