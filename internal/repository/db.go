package repository

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/deolamide/wallex/assets"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
)

const defaultTimeout = 3 * time.Second

// Database defines the available repositories. Repositories are created
// lazily and shared, so handlers can grab what they need without wiring
// every repository up front.
type Database interface {
	User() UserRepository
	Profile() ProfileRepository
	Wallet() WalletRepository
	Transaction() TransactionRepository
	Beneficiary() BeneficiaryRepository
	Log() LogRepository
	Metric() MetricRepository

	Close() error
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type DatabaseImpl struct {
	db              *sqlx.DB
	userRepo        UserRepository
	profileRepo     ProfileRepository
	walletRepo      WalletRepository
	transactionRepo TransactionRepository
	beneficiaryRepo BeneficiaryRepository
	logRepo         LogRepository
	metricRepo      MetricRepository

	mu sync.Mutex
}

// New initializes a database connection and runs the embedded migrations if
// enabled.
func New(dsn string, automigrate bool) (Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "postgres", "postgres://"+dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(2 * time.Hour)

	if automigrate {
		iofsDriver, err := iofs.New(assets.EmbeddedFiles, "migrations")
		if err != nil {
			return nil, err
		}

		migrator, err := migrate.NewWithSourceInstance("iofs", iofsDriver, "postgres://"+dsn)
		if err != nil {
			return nil, err
		}

		if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return nil, err
		}
	}

	return &DatabaseImpl{db: db}, nil
}

func (d *DatabaseImpl) Close() error {
	return d.db.Close()
}

func (d *DatabaseImpl) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return d.db.BeginTxx(ctx, opts)
}

func (d *DatabaseImpl) User() UserRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.userRepo == nil {
		d.userRepo = NewUserRepository(d.db)
	}
	return d.userRepo
}

func (d *DatabaseImpl) Profile() ProfileRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.profileRepo == nil {
		d.profileRepo = NewProfileRepository(d.db)
	}
	return d.profileRepo
}

func (d *DatabaseImpl) Wallet() WalletRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.walletRepo == nil {
		d.walletRepo = NewWalletRepository(d.db)
	}
	return d.walletRepo
}

func (d *DatabaseImpl) Transaction() TransactionRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.transactionRepo == nil {
		d.transactionRepo = NewTransactionRepository(d.db)
	}
	return d.transactionRepo
}

func (d *DatabaseImpl) Beneficiary() BeneficiaryRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.beneficiaryRepo == nil {
		d.beneficiaryRepo = NewBeneficiaryRepository(d.db)
	}
	return d.beneficiaryRepo
}

func (d *DatabaseImpl) Log() LogRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.logRepo == nil {
		d.logRepo = NewLogRepository(d.db)
	}
	return d.logRepo
}

func (d *DatabaseImpl) Metric() MetricRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.metricRepo == nil {
		d.metricRepo = NewMetricRepository(d.db)
	}
	return d.metricRepo
}

// uniqueViolation reports whether err is a Postgres unique-constraint
// violation, optionally on one specific constraint. The storage layer is
// the last line of defense against races between requests that both passed
// application-level validation, so these get mapped to typed ledger errors
// instead of leaking driver details.
func uniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	if pqErr.Code != "23505" {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

// checkViolation reports whether err is a CHECK constraint violation.
func checkViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	if pqErr.Code != "23514" {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}
