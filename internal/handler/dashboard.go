package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/deolamide/wallex/internal/cache"
	"github.com/deolamide/wallex/internal/errHandler"
	"github.com/deolamide/wallex/internal/models"
	"github.com/deolamide/wallex/internal/repository"
	"github.com/deolamide/wallex/internal/response"
)

// dashboardCacheTTL bounds staleness of the admin dashboard. Metrics are
// aggregates over a day, so a short cache window is invisible to readers and
// keeps repeat loads off the database.
const dashboardCacheTTL = 5 * time.Minute

type DashboardMetricData struct {
	Date                   string `json:"date"`
	Currency               string `json:"currency"`
	TotalUsers             int    `json:"total_users"`
	ActiveUsers            int    `json:"active_users"`
	TotalTransactions      int    `json:"total_transactions"`
	TotalTransactionVolume string `json:"total_transaction_volume"`
	TotalFeesCollected     string `json:"total_fees_collected"`
}

type DashboardHandler struct {
	MetricRepo repository.MetricRepository
	Cache      *cache.Cache
	ErrHandler *errHandler.ErrorRepository
}

func NewDashboardHandler(handler *DashboardHandler) *DashboardHandler {
	return &DashboardHandler{
		MetricRepo: handler.MetricRepo,
		Cache:      handler.Cache,
		ErrHandler: handler.ErrHandler,
	}
}

// HandleDashboardMetrics serves daily aggregates for the requested date range,
// defaulting to the last 30 days.
func (h *DashboardHandler) HandleDashboardMetrics(w http.ResponseWriter, r *http.Request) {
	queryValues := retrieveUrlQueryValues(r)

	to := time.Now()
	from := to.AddDate(0, 0, -30)

	if queryValues.StartDate != nil {
		from = *queryValues.StartDate
	}
	if queryValues.EndDate != nil {
		to = *queryValues.EndDate
	}

	if from.After(to) {
		h.ErrHandler.FailedValidation(w, r, []string{"start_date must not be after end_date"})
		return
	}

	message := "Dashboard metrics retrieved successfully"

	cacheKey := fmt.Sprintf("dashboard:%s:%s", from.Format("2006-01-02"), to.Format("2006-01-02"))

	var data []*DashboardMetricData

	if h.Cache != nil {
		hit, err := h.Cache.GetJSON(cacheKey, &data)
		if err == nil && hit {
			err = response.JSONOkResponse(w, data, message, nil)
			if err != nil {
				h.ErrHandler.ServerError(w, r, err)
			}
			return
		}
	}

	metrics, err := h.MetricRepo.Range(from, to)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data = make([]*DashboardMetricData, len(metrics))
	for i := range metrics {
		data[i] = dashboardMetricResponse(&metrics[i])
	}

	if h.Cache != nil {
		// a failed cache write is not worth failing the request over
		h.Cache.SetJSON(cacheKey, data, dashboardCacheTTL)
	}

	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func dashboardMetricResponse(metric *models.DashboardMetric) *DashboardMetricData {
	return &DashboardMetricData{
		Date:                   metric.MetricDate.Format("2006-01-02"),
		Currency:               metric.Currency,
		TotalUsers:             metric.TotalUsers,
		ActiveUsers:            metric.ActiveUsers,
		TotalTransactions:      metric.TotalTransactions,
		TotalTransactionVolume: metric.TotalTransactionVolume.StringFixed(4),
		TotalFeesCollected:     metric.TotalFeesCollected.StringFixed(4),
	}
}
