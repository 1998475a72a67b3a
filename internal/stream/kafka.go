package stream

import (
	"log/slog"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/shopspring/decimal"
)

const (
	// TransactionCompletedTopic carries one event per committed transaction.
	// The dashboard worker consumes it to maintain daily aggregate metrics.
	TransactionCompletedTopic = "transaction.completed"
)

// TransactionEvent is the wire payload published after a settlement commits.
type TransactionEvent struct {
	ID          string          `json:"id"`
	Currency    string          `json:"currency"`
	Amount      decimal.Decimal `json:"amount"`
	Fee         decimal.Decimal `json:"fee"`
	Type        string          `json:"type"`
	CompletedAt time.Time       `json:"completed_at"`
}

type KafkaStream struct {
	kafkaServers string
	logger       *slog.Logger
}

func New(kafkaServers string, logger *slog.Logger) *KafkaStream {
	return &KafkaStream{
		kafkaServers: kafkaServers,
		logger:       logger,
	}
}

func (st *KafkaStream) ProduceMessage(topic, message string) error {
	producer, err := kafka.NewProducer(&kafka.ConfigMap{"bootstrap.servers": st.kafkaServers})
	if err != nil {
		return err
	}
	defer producer.Close()

	err = producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Value:          []byte(message),
	}, nil)

	if err != nil {
		st.logger.Error("failed to produce message", "topic", topic, "error", err)
		return err
	}

	return nil
}

type StreamConsumer struct {
	GroupId string
	Topic   string
}

func (st *KafkaStream) CreateConsumer(consumerStruct *StreamConsumer) (*kafka.Consumer, error) {
	consumer, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers": st.kafkaServers,
		"group.id":          consumerStruct.GroupId,
		"auto.offset.reset": "earliest",
	})
	if err != nil {
		return nil, err
	}

	if err := consumer.Subscribe(consumerStruct.Topic, nil); err != nil {
		return nil, err
	}

	return consumer, nil
}
