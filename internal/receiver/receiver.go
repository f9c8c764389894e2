package receiver

import (
	"context"
	"time"

	"github.com/stock-chat/stock-chat/internal/command"
	"github.com/stock-chat/stock-chat/internal/platform/logger"
	"github.com/stock-chat/stock-chat/internal/platform/queue"

	"github.com/google/uuid"
	kafka "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type kafkaReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// ResponseReceiver drains the bot_responses queue and writes each
// answer into the command store matched by correlation id.  Bad
// messages are logged and dropped; they never crash the consumer loop
// and are never redelivered.
type ResponseReceiver struct {
	reader kafkaReader
	store  command.Store
}

func NewResponseReceiver(reader kafkaReader, store command.Store) *ResponseReceiver {
	return &ResponseReceiver{
		reader: reader,
		store:  store,
	}
}

// Run blocks consuming responses until the context is canceled or the
// queue read fails.
func (r *ResponseReceiver) Run(ctx context.Context) error {

	logger.Log.Info("Bot response receiver started. Waiting for incoming messages...")

	for {
		msg, err := r.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		r.processResponse(ctx, msg)
	}
}

func (r *ResponseReceiver) processResponse(ctx context.Context, msg kafka.Message) {

	correlationID := queue.GetHeaderValueAsString(msg.Headers, queue.CorrelationIDHeader)
	if correlationID == "" {
		correlationID = string(msg.Key)
	}

	log := logger.Log.WithFields(logrus.Fields{"correlation_id": correlationID})

	log.Debug("Response message received: ", string(msg.Value))

	id, err := uuid.Parse(correlationID)
	if err != nil {
		metrics.responsesDroppedCounter.Inc()
		logger.LogErrorWithCorrelationId("Response message has an invalid correlation id", err, correlationID)
		return
	}

	err = r.store.RecordAnswer(ctx, id, string(msg.Value), time.Now().UTC())
	if err == command.ErrRecordNotFound {
		// The receiver never creates the record retroactively.
		metrics.responsesDroppedCounter.Inc()
		log.Error("Response message does not match a pending command record")
		return
	}
	if err != nil {
		metrics.responsesDroppedCounter.Inc()
		logger.LogErrorWithCorrelationId("Error when updating the command record", err, correlationID)
		return
	}

	metrics.responsesRecordedCounter.Inc()
}
