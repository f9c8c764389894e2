package command

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stock-chat/stock-chat/internal/domain"
	"github.com/stock-chat/stock-chat/internal/platform/logger"
	"github.com/stock-chat/stock-chat/internal/platform/queue"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	kafka "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

var ErrUnknownCommand = errors.New("command not recognized")

type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Dispatcher turns a recognized command line into a pending command
// record and a message on the bot_requests queue.  It never waits for
// the answer; completion is observed later through the store.
type Dispatcher struct {
	store  Store
	writer kafkaWriter
}

func NewDispatcher(store Store, writer kafkaWriter) (*Dispatcher, error) {
	for name, builder := range requestBuilders {
		if builder == nil {
			return nil, fmt.Errorf("no request builder registered for command %q", name)
		}
	}

	return &Dispatcher{
		store:  store,
		writer: writer,
	}, nil
}

// Dispatch persists a pending record for the command and publishes the
// request tagged with the record's id as the correlation id.  An
// unknown command name yields ErrUnknownCommand without touching the
// store or the queue.
func (d *Dispatcher) Dispatch(ctx context.Context, user domain.User, name string, arg string) (uuid.UUID, error) {

	builder, known := requestBuilders[name]
	if !known {
		metrics.unknownCommandCounter.Inc()
		return uuid.Nil, ErrUnknownCommand
	}

	request := builder(arg)

	requestPayload, err := json.Marshal(request)
	if err != nil {
		return uuid.Nil, err
	}

	record := &Record{
		ID:             uuid.New(),
		PostedAt:       time.Now().UTC(),
		RequestPayload: string(requestPayload),
		UserID:         user.ID,
		Username:       user.Username,
	}

	log := logger.Log.WithFields(logrus.Fields{"correlation_id": record.ID, "user_id": user.ID, "command": name})

	if err := d.store.Create(ctx, record); err != nil {
		return uuid.Nil, err
	}

	log.Debug("Sending command request to the bot_requests queue")

	message := kafka.Message{
		Key:   []byte(record.ID.String()),
		Value: requestPayload,
		Headers: []kafka.Header{
			{Key: queue.CorrelationIDHeader, Value: []byte(record.ID.String())},
		},
	}

	if err := d.writer.WriteMessages(ctx, message); err != nil {
		log.WithFields(logrus.Fields{"error": err}).Error("Unable to publish command request")
		return uuid.Nil, err
	}

	metrics.commandsDispatchedCounter.With(prometheus.Labels{"command": name}).Inc()

	return record.ID, nil
}
