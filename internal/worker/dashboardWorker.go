package worker

import (
	"encoding/json"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/deolamide/wallex/internal/stream"
)

// DashboardWorker consumes completed-transaction events and maintains the
// daily aggregate rows behind the admin dashboard. The metric upsert is
// idempotent per event delivery but not deduplicating, so the consumer relies
// on Kafka's at-least-once delivery being effectively once in practice;
// aggregates tolerate the rare double-count.
func (wk *Worker) DashboardWorker() {
	consumer, err := wk.KafkaStream.CreateConsumer(&stream.StreamConsumer{
		GroupId: dashboardGroupID,
		Topic:   stream.TransactionCompletedTopic,
	})
	if err != nil {
		wk.Logger.Error("failed to create dashboard consumer", "error", err)
		return
	}

	for {
		event := consumer.Poll(100)
		switch e := event.(type) {
		case *kafka.Message:
			var transactionEvent stream.TransactionEvent
			if err := json.Unmarshal(e.Value, &transactionEvent); err != nil {
				wk.Logger.Error("failed to decode transaction event",
					"topic", e.TopicPartition.String(), "error", err)
				continue
			}

			wk.recordTransaction(&transactionEvent)
		case kafka.Error:
			wk.Logger.Error("kafka error", "error", e)
		default:
		}
	}
}

func (wk *Worker) recordTransaction(event *stream.TransactionEvent) {
	date := event.CompletedAt

	err := wk.DB.Metric().RecordTransaction(date, event.Currency, event.Amount, event.Fee)
	if err != nil {
		wk.Logger.Error("failed to record dashboard metric",
			"transaction_id", event.ID, "error", err)
		return
	}

	total, active, err := wk.DB.User().Counts()
	if err != nil {
		wk.Logger.Error("failed to count users for dashboard metric", "error", err)
		return
	}

	err = wk.DB.Metric().RefreshUserCounts(date, event.Currency, total, active)
	if err != nil {
		wk.Logger.Error("failed to refresh user counts",
			"transaction_id", event.ID, "error", err)
	}
}
