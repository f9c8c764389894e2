package queue

import (
	"github.com/stock-chat/stock-chat/internal/platform/logger"

	kafka "github.com/segmentio/kafka-go"
)

const CorrelationIDHeader = "correlation_id"

// StartConsumer creates a Kafka reader that delivers messages one at a
// time.  Offsets are committed as messages are read, so a message that
// blows up during processing is dropped rather than redelivered.
func StartConsumer(cfg *ConsumerConfig) *kafka.Reader {
	logger.Log.Info("Starting Kafka message consumer...")
	logger.Log.Info("Kafka consumer configuration: ", cfg)

	var kafkaDialer *kafka.Dialer
	var err error

	if cfg.SaslConfig != nil {
		kafkaDialer, err = saslDialer(cfg.SaslConfig)
		if err != nil {
			logger.Log.Error("Failed to create a new Kafka dialer: ", err)
			panic(err)
		}
	}

	readerConfig := kafka.ReaderConfig{
		Brokers:       cfg.Brokers,
		Topic:         cfg.Topic,
		GroupID:       cfg.GroupID,
		QueueCapacity: 1,
	}

	if kafkaDialer != nil {
		readerConfig.Dialer = kafkaDialer
	}

	r := kafka.NewReader(readerConfig)

	logger.Log.Info("Consuming messages from topic: ", cfg.Topic)

	return r
}

func GetHeaderValueAsString(headers []kafka.Header, headerName string) string {

	for _, header := range headers {
		if header.Key == headerName {
			return string(header.Value)
		}
	}

	return ""
}
