package command

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/stock-chat/stock-chat/internal/config"
	"github.com/stock-chat/stock-chat/internal/domain"
	"github.com/stock-chat/stock-chat/internal/platform/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

type SqlCommandStore struct {
	database     *sql.DB
	queryTimeout time.Duration
}

func NewSqlCommandStore(cfg *config.Config, database *sql.DB) (*SqlCommandStore, error) {
	return &SqlCommandStore{
		database:     database,
		queryTimeout: cfg.ChatDatabaseQueryTimeout,
	}, nil
}

func (scs *SqlCommandStore) Create(ctx context.Context, record *Record) error {

	callDurationTimer := prometheus.NewTimer(metrics.sqlCommandCreateDuration)
	defer callDurationTimer.ObserveDuration()

	log := logger.Log.WithFields(logrus.Fields{"correlation_id": record.ID, "user_id": record.UserID})

	ctx, cancel := context.WithTimeout(ctx, scs.queryTimeout)
	defer cancel()

	statement, err := scs.database.Prepare(`INSERT INTO command_messages
        (id, posted_at, request, user_id, username) VALUES ($1, $2, $3, $4, $5)`)
	if err != nil {
		log.WithFields(logrus.Fields{"error": err}).Error("SQL Prepare failed")
		return err
	}
	defer statement.Close()

	_, err = statement.ExecContext(ctx, record.ID, record.PostedAt, record.RequestPayload,
		record.UserID, record.Username)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pgerrcode.IsIntegrityConstraintViolation(string(pqErr.Code)) {
			// A correlation id collision means uuid generation is broken.
			log.WithFields(logrus.Fields{"error": err}).Error("Duplicate correlation id")
			return fmt.Errorf("duplicate correlation id %s: %w", record.ID, err)
		}
		log.WithFields(logrus.Fields{"error": err}).Error("Unable to store command record")
		return err
	}

	log.Debug("Created a pending command record")
	return nil
}

func (scs *SqlCommandStore) RecordAnswer(ctx context.Context, id uuid.UUID, responsePayload string, answeredAt time.Time) error {

	callDurationTimer := prometheus.NewTimer(metrics.sqlCommandAnswerDuration)
	defer callDurationTimer.ObserveDuration()

	log := logger.Log.WithFields(logrus.Fields{"correlation_id": id})

	ctx, cancel := context.WithTimeout(ctx, scs.queryTimeout)
	defer cancel()

	statement, err := scs.database.Prepare(`UPDATE command_messages
        SET answered_at = $2, response = $3
        WHERE id = $1 AND answered_at IS NULL`)
	if err != nil {
		log.WithFields(logrus.Fields{"error": err}).Error("SQL Prepare failed")
		return err
	}
	defer statement.Close()

	results, err := statement.ExecContext(ctx, id, answeredAt, responsePayload)
	if err != nil {
		log.WithFields(logrus.Fields{"error": err}).Error("Unable to record answer")
		return err
	}

	rowsAffected, err := results.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrRecordNotFound
	}

	log.Debug("Recorded a command answer")
	return nil
}

func (scs *SqlCommandStore) TakeAnswered(ctx context.Context, userID domain.UserID) ([]Record, error) {

	callDurationTimer := prometheus.NewTimer(metrics.sqlCommandTakeAnsweredDuration)
	defer callDurationTimer.ObserveDuration()

	ctx, cancel := context.WithTimeout(ctx, scs.queryTimeout)
	defer cancel()

	// Delete-returning keeps the read and the delete in one atomic
	// statement so concurrent polls from the same user cannot deliver
	// a record twice.
	rows, err := scs.database.QueryContext(ctx,
		`DELETE FROM command_messages
         WHERE user_id = $1 AND answered_at IS NOT NULL
         RETURNING id, posted_at, answered_at, request, response, username`,
		userID)
	if err != nil {
		logger.LogError("SQL Query failed", err)
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var record Record
		var answeredAt sql.NullTime
		var response sql.NullString

		if err := rows.Scan(&record.ID, &record.PostedAt, &answeredAt, &record.RequestPayload,
			&response, &record.Username); err != nil {
			logger.LogError("SQL row scan failed", err)
			return nil, err
		}

		record.UserID = userID
		if answeredAt.Valid {
			t := answeredAt.Time
			record.AnsweredAt = &t
		}
		if response.Valid {
			s := response.String
			record.ResponsePayload = &s
		}

		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		logger.LogError("SQL row iteration failed", err)
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].PostedAt.Before(records[j].PostedAt)
	})

	metrics.commandRecordsDeliveredCounter.Add(float64(len(records)))

	return records, nil
}

func (scs *SqlCommandStore) DeleteAbandonedBefore(ctx context.Context, cutoff time.Time) (int64, error) {

	ctx, cancel := context.WithTimeout(ctx, scs.queryTimeout)
	defer cancel()

	results, err := scs.database.ExecContext(ctx,
		"DELETE FROM command_messages WHERE posted_at < $1", cutoff)
	if err != nil {
		logger.LogError("SQL Query failed", err)
		return 0, err
	}

	rowsAffected, err := results.RowsAffected()
	if err != nil {
		return 0, err
	}

	return rowsAffected, nil
}
