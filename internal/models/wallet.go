package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Wallet balances are stored as NUMERIC(19,4) and must never go below zero.
// Balance is only ever mutated inside a ledger commit boundary; nothing
// outside the transaction repository reads-modifies-writes it.
type Wallet struct {
	ID                string          `db:"id"`
	UserID            string          `db:"user_id"`
	Balance           decimal.Decimal `db:"balance"`
	Currency          string          `db:"currency"`
	IsActive          bool            `db:"is_active"`
	LastTransactionAt sql.NullTime    `db:"last_transaction_at"`
	CreatedAt         time.Time       `db:"created_at"`
	UpdatedAt         sql.NullTime    `db:"updated_at"`
	DeletedAt         sql.NullTime    `db:"deleted_at"`
}
