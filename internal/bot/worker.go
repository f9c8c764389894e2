package bot

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stock-chat/stock-chat/internal/command"
	"github.com/stock-chat/stock-chat/internal/platform/logger"
	"github.com/stock-chat/stock-chat/internal/platform/queue"

	kafka "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type kafkaReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Worker consumes command requests from the bot_requests queue one at
// a time, executes them synchronously and always publishes exactly one
// response carrying the same correlation id.  It never re-queues or
// retries a request.
type Worker struct {
	reader   kafkaReader
	writer   kafkaWriter
	handlers map[string]Handler
}

func NewWorker(reader kafkaReader, writer kafkaWriter, handlers map[string]Handler) (*Worker, error) {
	for _, name := range []string{command.StockCommand, command.DayRangeCommand} {
		if handlers[name] == nil {
			return nil, fmt.Errorf("no handler registered for command %q", name)
		}
	}

	return &Worker{
		reader:   reader,
		writer:   writer,
		handlers: handlers,
	}, nil
}

// Run blocks consuming requests until the context is canceled or the
// queue read fails.
func (w *Worker) Run(ctx context.Context) error {

	logger.Log.Info("Bot worker started. Waiting for incoming requests...")

	for {
		msg, err := w.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		correlationID := queue.GetHeaderValueAsString(msg.Headers, queue.CorrelationIDHeader)
		if correlationID == "" {
			correlationID = string(msg.Key)
		}

		logger.Log.WithFields(logrus.Fields{"correlation_id": correlationID}).Debug("Request message received by the bot")

		response := w.processRequest(ctx, msg.Value)

		w.sendResponse(ctx, correlationID, response)
	}
}

func (w *Worker) processRequest(ctx context.Context, body []byte) command.Response {

	var request command.Request

	if err := json.Unmarshal(body, &request); err != nil {
		logger.LogError("Error parsing message sent to bot", err)
		metrics.requestsProcessedCounter.With(commandLabel("decode_error")).Inc()
		return command.ErrorResponse("Error when deserializing message received by the bot.",
			command.ErrCodeTransportFailure)
	}

	handler, known := w.handlers[request.Type]
	if !known {
		metrics.requestsProcessedCounter.With(commandLabel("not_implemented")).Inc()
		return command.ErrorResponse(fmt.Sprintf("Service not implemented: %s", request.Type), "")
	}

	metrics.requestsProcessedCounter.With(commandLabel(request.Type)).Inc()

	return handler(ctx, request.Arg)
}

func (w *Worker) sendResponse(ctx context.Context, correlationID string, response command.Response) {

	log := logger.Log.WithFields(logrus.Fields{"correlation_id": correlationID})

	body, err := json.Marshal(response)
	if err != nil {
		logger.LogErrorWithCorrelationId("Error serializing response to json", err, correlationID)
		body, _ = json.Marshal(command.ErrorResponse("Non serializable response.", command.ErrCodeNonSerializable))
	}

	log.Debug("Bot sends response: ", string(body))

	message := kafka.Message{
		Key:   []byte(correlationID),
		Value: body,
		Headers: []kafka.Header{
			{Key: queue.CorrelationIDHeader, Value: []byte(correlationID)},
		},
	}

	if err := w.writer.WriteMessages(ctx, message); err != nil {
		// The correlation is lost; the record will sit pending until
		// the retention job reaps it.
		logger.LogErrorWithCorrelationId("FATAL: Cannot return answer from bot", err, correlationID)
	}
}
