package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

type DashboardMetric struct {
	ID                     string          `db:"id"`
	MetricDate             time.Time       `db:"metric_date"`
	Currency               string          `db:"currency"`
	TotalUsers             int             `db:"total_users"`
	ActiveUsers            int             `db:"active_users"`
	TotalTransactions      int             `db:"total_transactions"`
	TotalTransactionVolume decimal.Decimal `db:"total_transaction_volume"`
	TotalFeesCollected     decimal.Decimal `db:"total_fees_collected"`
	CreatedAt              time.Time       `db:"created_at"`
	UpdatedAt              sql.NullTime    `db:"updated_at"`
}
