package bot

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stock-chat/stock-chat/internal/bot/quotes"
	"github.com/stock-chat/stock-chat/internal/command"
	"github.com/stock-chat/stock-chat/internal/platform/queue"

	kafka "github.com/segmentio/kafka-go"
)

// scriptedKafkaReader feeds a fixed list of messages and then cancels
// the consumer context so Run returns.
type scriptedKafkaReader struct {
	messages []kafka.Message
	cancel   context.CancelFunc
}

func (r *scriptedKafkaReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.messages) == 0 {
		r.cancel()
		return kafka.Message{}, context.Canceled
	}
	msg := r.messages[0]
	r.messages = r.messages[1:]
	return msg, nil
}

type capturingKafkaWriter struct {
	writtenMessages []kafka.Message
}

func (w *capturingKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.writtenMessages = append(w.writtenMessages, msgs...)
	return nil
}

func runWorkerOverMessages(t *testing.T, handlers map[string]Handler, messages []kafka.Message) []kafka.Message {

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := &scriptedKafkaReader{messages: messages, cancel: cancel}
	writer := &capturingKafkaWriter{}

	worker, err := NewWorker(reader, writer, handlers)
	if err != nil {
		t.Fatal("unexpected error while creating the worker", err)
	}

	if err := worker.Run(ctx); err != nil {
		t.Fatal("unexpected error from the worker run loop", err)
	}

	return writer.writtenMessages
}

func requestMessage(t *testing.T, correlationID string, request command.Request) kafka.Message {
	payload, err := json.Marshal(request)
	if err != nil {
		t.Fatal("unexpected error while marshaling the request", err)
	}
	return kafka.Message{
		Key:   []byte(correlationID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: queue.CorrelationIDHeader, Value: []byte(correlationID)},
		},
	}
}

func TestWorkerEchoesTheCorrelationId(t *testing.T) {

	fetcher := &fakeQuoteFetcher{stockEntry: quotes.StockEntry{Name: "Apple", Price: "93.42"}}
	handlers := newTestHandlers(fetcher)

	correlationID := "7e58d63b-60bc-4f6a-8cc5-6030cd667b29"

	responses := runWorkerOverMessages(t, handlers, []kafka.Message{
		requestMessage(t, correlationID, command.Request{Type: command.StockCommand, Arg: command.SingleArg("AAPL.US")}),
	})

	if len(responses) != 1 {
		t.Fatalf("expected 1 response message, got %d", len(responses))
	}

	msg := responses[0]

	if string(msg.Key) != correlationID {
		t.Fatalf("expected response key %s, got %s", correlationID, string(msg.Key))
	}

	if headerValue := queue.GetHeaderValueAsString(msg.Headers, queue.CorrelationIDHeader); headerValue != correlationID {
		t.Fatalf("expected correlation id header %s, got %s", correlationID, headerValue)
	}

	var response command.Response
	if err := json.Unmarshal(msg.Value, &response); err != nil {
		t.Fatal("unexpected error while parsing the response payload", err)
	}

	if response.Error || response.Message != "AAPL.US (Apple) quote is $93.42 per share." {
		t.Fatalf("unexpected response: %+v", response)
	}
}

func TestWorkerFallsBackToTheMessageKey(t *testing.T) {

	fetcher := &fakeQuoteFetcher{stockEntry: quotes.StockEntry{Name: "Apple", Price: "93.42"}}
	handlers := newTestHandlers(fetcher)

	payload, _ := json.Marshal(command.Request{Type: command.StockCommand, Arg: command.SingleArg("AAPL.US")})

	responses := runWorkerOverMessages(t, handlers, []kafka.Message{
		{Key: []byte("key-only-correlation"), Value: payload},
	})

	if len(responses) != 1 || string(responses[0].Key) != "key-only-correlation" {
		t.Fatalf("expected the key to carry the correlation, got %+v", responses)
	}
}

func TestWorkerRespondsToUndecodableRequests(t *testing.T) {

	handlers := newTestHandlers(&fakeQuoteFetcher{})

	responses := runWorkerOverMessages(t, handlers, []kafka.Message{
		{Key: []byte("broken-message"), Value: []byte("this is not json")},
	})

	if len(responses) != 1 {
		t.Fatalf("expected 1 response message, got %d", len(responses))
	}

	var response command.Response
	if err := json.Unmarshal(responses[0].Value, &response); err != nil {
		t.Fatal("unexpected error while parsing the response payload", err)
	}

	if !response.Error || response.Code != command.ErrCodeTransportFailure {
		t.Fatalf("expected a BOT03 response, got %+v", response)
	}

	if response.Message != "Error when deserializing message received by the bot." {
		t.Fatalf("unexpected message: %q", response.Message)
	}
}

func TestWorkerRespondsToUnknownCommandTypes(t *testing.T) {

	handlers := newTestHandlers(&fakeQuoteFetcher{})

	responses := runWorkerOverMessages(t, handlers, []kafka.Message{
		requestMessage(t, "some-correlation-id", command.Request{Type: "weather", Arg: command.SingleArg("sp")}),
	})

	if len(responses) != 1 {
		t.Fatalf("expected 1 response message, got %d", len(responses))
	}

	var response command.Response
	if err := json.Unmarshal(responses[0].Value, &response); err != nil {
		t.Fatal("unexpected error while parsing the response payload", err)
	}

	if !response.Error || response.Message != "Service not implemented: weather" {
		t.Fatalf("unexpected response: %+v", response)
	}

	if response.Code != "" {
		t.Fatalf("expected no error code, got %q", response.Code)
	}
}

func TestWorkerRequiresTheBuiltinHandlers(t *testing.T) {

	_, err := NewWorker(&scriptedKafkaReader{}, &capturingKafkaWriter{}, map[string]Handler{})
	if err == nil {
		t.Fatal("expected an error when the handler mapping is incomplete")
	}
}
