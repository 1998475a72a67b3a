package mocks

import (
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"

	"github.com/deolamide/wallex/internal/models"
)

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Insert(user *models.User, tx *sqlx.Tx) (string, error) {
	return "", nil
}

func (m *MockUserRepo) GetOne(id string) (*models.User, bool, error) {
	return nil, false, nil
}

func (m *MockUserRepo) GetByEmail(email string) (*models.User, bool, error) {
	args := m.Called(email)
	return args.Get(0).(*models.User), args.Bool(1), args.Error(2)
}

func (m *MockUserRepo) RecordLogin(id string, at time.Time) error {
	return nil
}

func (m *MockUserRepo) Deactivate(id string) error {
	return nil
}

func (m *MockUserRepo) Delete(id string) error {
	return nil
}

func (m *MockUserRepo) Counts() (int, int, error) {
	return 0, 0, nil
}
