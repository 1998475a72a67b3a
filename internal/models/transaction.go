package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

type Transaction struct {
	ID               string          `db:"id"`
	SenderWalletID   sql.NullString  `db:"sender_wallet_id"`
	ReceiverWalletID sql.NullString  `db:"receiver_wallet_id"`
	BeneficiaryID    sql.NullString  `db:"beneficiary_id"`
	Amount           decimal.Decimal `db:"amount"`
	Currency         string          `db:"currency"`
	Type             string          `db:"transaction_type"`
	Status           string          `db:"status"`
	ReferenceCode    string          `db:"reference_code"`
	Description      sql.NullString  `db:"description"`
	Fee              decimal.Decimal `db:"fee"`
	CreatedAt        time.Time       `db:"created_at"`
	UpdatedAt        sql.NullTime    `db:"updated_at"`
	CompletedAt      sql.NullTime    `db:"completed_at"`
}

const (
	TransactionTypeDeposit    = "DEPOSIT"
	TransactionTypeTransfer   = "TRANSFER"
	TransactionTypeWithdrawal = "WITHDRAWAL"
)

// Status transitions are monotonic: PENDING may become COMPLETED or FAILED,
// and both of those are terminal. With synchronous settlement a transaction
// is inserted already COMPLETED; PENDING is reserved for rails that need to
// wait for external confirmation.
const (
	TransactionStatusPending   = "PENDING"
	TransactionStatusCompleted = "COMPLETED"
	TransactionStatusFailed    = "FAILED"
)

// IsTerminalTransactionStatus reports whether no further transition is
// allowed out of the given status.
func IsTerminalTransactionStatus(status string) bool {
	return status == TransactionStatusCompleted || status == TransactionStatusFailed
}
