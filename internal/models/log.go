package models

import (
	"database/sql"
	"time"
)

// Log rows are write-once. They are never updated or deleted, which is what
// makes the table usable as an audit trail.
type Log struct {
	ID         string         `db:"id"`
	UserID     sql.NullString `db:"user_id"`
	Action     string         `db:"action"`
	EntityType string         `db:"entity_type"`
	EntityID   sql.NullString `db:"entity_id"`
	OldValue   []byte         `db:"old_value"`
	NewValue   []byte         `db:"new_value"`
	IPAddress  sql.NullString `db:"ip_address"`
	UserAgent  sql.NullString `db:"user_agent"`
	CreatedAt  time.Time      `db:"created_at"`
}

// audit log entity types
const (
	LogEntityUser        = "USER"
	LogEntityProfile     = "PROFILE"
	LogEntityWallet      = "WALLET"
	LogEntityTransaction = "TRANSACTION"
	LogEntityBeneficiary = "BENEFICIARY"
)

// audit log actions
const (
	LogActionRegister          = "REGISTER"
	LogActionLogin             = "LOGIN"
	LogActionFailedLogin       = "FAILED_LOGIN"
	LogActionCreateProfile     = "CREATE_PROFILE"
	LogActionUpdateProfile     = "UPDATE_PROFILE"
	LogActionCreateWallet      = "CREATE_WALLET"
	LogActionCreateTransaction = "CREATE_TRANSACTION"
	LogActionCreateBeneficiary = "CREATE_BENEFICIARY"
	LogActionLockAccount       = "LOCK_ACCOUNT"
)
