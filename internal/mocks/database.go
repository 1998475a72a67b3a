package mocks

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/deolamide/wallex/internal/repository"
)

// MockDatabase satisfies repository.Database by handing out whatever
// repositories the test plugged in. BeginTx is unsupported; handler tests
// that need real transactions belong in integration tests.
type MockDatabase struct {
	UserRepo        repository.UserRepository
	ProfileRepo     repository.ProfileRepository
	WalletRepo      repository.WalletRepository
	TransactionRepo repository.TransactionRepository
	BeneficiaryRepo repository.BeneficiaryRepository
	LogRepo         repository.LogRepository
	MetricRepo      repository.MetricRepository
}

func (m *MockDatabase) User() repository.UserRepository               { return m.UserRepo }
func (m *MockDatabase) Profile() repository.ProfileRepository         { return m.ProfileRepo }
func (m *MockDatabase) Wallet() repository.WalletRepository           { return m.WalletRepo }
func (m *MockDatabase) Transaction() repository.TransactionRepository { return m.TransactionRepo }
func (m *MockDatabase) Beneficiary() repository.BeneficiaryRepository { return m.BeneficiaryRepo }
func (m *MockDatabase) Log() repository.LogRepository                 { return m.LogRepo }
func (m *MockDatabase) Metric() repository.MetricRepository           { return m.MetricRepo }

func (m *MockDatabase) Close() error {
	return nil
}

func (m *MockDatabase) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return nil, errors.New("transactions are not supported by the mock database")
}
