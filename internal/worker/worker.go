package worker

import (
	"log/slog"

	"github.com/deolamide/wallex/internal/repository"
	"github.com/deolamide/wallex/internal/stream"
)

type Worker struct {
	KafkaStream *stream.KafkaStream
	DB          repository.Database
	Logger      *slog.Logger
}

const (
	// dashboardGroupID groups the consumers that fold completed transactions
	// into the daily dashboard aggregates. One consumer per instance; Kafka
	// balances partitions across them.
	dashboardGroupID = "dashboard-metrics-group"
)

// Workers typically need access to the database and the kafka event stream;
// worker-specific dependencies can be passed as arguments to the worker.
func New(wk *Worker) *Worker {
	return &Worker{
		KafkaStream: wk.KafkaStream,
		DB:          wk.DB,
		Logger:      wk.Logger,
	}
}
