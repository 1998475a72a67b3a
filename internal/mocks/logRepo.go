package mocks

import (
	"sync"

	"github.com/deolamide/wallex/internal/models"
)

// MockLogRepo records inserted logs in memory. FailedLogins controls the
// lockout counter seen by the login handler; CountErr makes the counter fail.
type MockLogRepo struct {
	mu           sync.Mutex
	Inserted     []*models.Log
	FailedLogins int
	CountErr     error
}

func (m *MockLogRepo) Insert(log *models.Log) (*models.Log, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Inserted = append(m.Inserted, log)
	return log, nil
}

func (m *MockLogRepo) GetAllByEntity(entityType, entityID string) ([]models.Log, error) {
	return nil, nil
}

func (m *MockLogRepo) CountConsecutiveFailedLogins(userID string, limit int) (int, error) {
	if m.CountErr != nil {
		return 0, m.CountErr
	}
	if m.FailedLogins > limit {
		return limit, nil
	}
	return m.FailedLogins, nil
}
