package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/deolamide/wallex/internal/models"
)

type MetricRepository interface {
	RecordTransaction(date time.Time, currency string, amount, fee decimal.Decimal) error
	RefreshUserCounts(date time.Time, currency string, total, active int) error
	Range(from, to time.Time) ([]models.DashboardMetric, error)
}

type MetricRepositoryImpl struct {
	db *sqlx.DB
}

func NewMetricRepository(db *sqlx.DB) MetricRepository {
	return &MetricRepositoryImpl{db: db}
}

// RecordTransaction folds one completed transaction into the day's
// aggregate row. The upsert keys on (metric_date, currency) so concurrent
// workers land on the same row.
func (repo *MetricRepositoryImpl) RecordTransaction(date time.Time, currency string, amount, fee decimal.Decimal) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		INSERT INTO dashboard_metrics (metric_date, currency, total_transactions, total_transaction_volume, total_fees_collected)
		VALUES ($1, $2, 1, $3, $4)
		ON CONFLICT (metric_date, currency) DO UPDATE
		SET total_transactions = dashboard_metrics.total_transactions + 1,
		    total_transaction_volume = dashboard_metrics.total_transaction_volume + EXCLUDED.total_transaction_volume,
		    total_fees_collected = dashboard_metrics.total_fees_collected + EXCLUDED.total_fees_collected,
		    updated_at = NOW()`

	_, err := repo.db.ExecContext(ctx, query, date.Format("2006-01-02"), currency, amount, fee)
	return err
}

func (repo *MetricRepositoryImpl) RefreshUserCounts(date time.Time, currency string, total, active int) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		INSERT INTO dashboard_metrics (metric_date, currency, total_users, active_users)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (metric_date, currency) DO UPDATE
		SET total_users = EXCLUDED.total_users,
		    active_users = EXCLUDED.active_users,
		    updated_at = NOW()`

	_, err := repo.db.ExecContext(ctx, query, date.Format("2006-01-02"), currency, total, active)
	return err
}

func (repo *MetricRepositoryImpl) Range(from, to time.Time) ([]models.DashboardMetric, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var metrics []models.DashboardMetric

	query := `
		SELECT * FROM dashboard_metrics
		WHERE metric_date BETWEEN $1 AND $2
		ORDER BY metric_date DESC`

	err := repo.db.SelectContext(ctx, &metrics, query, from.Format("2006-01-02"), to.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}

	return metrics, nil
}
