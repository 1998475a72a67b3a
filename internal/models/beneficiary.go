package models

import (
	"database/sql"
	"time"
)

// Beneficiary is a saved recipient shortcut. A user can save the same
// person once per wallet, enforced by the (user_id, wallet_id, email)
// unique constraint.
type Beneficiary struct {
	ID        string         `db:"id"`
	UserID    string         `db:"user_id"`
	WalletID  sql.NullString `db:"wallet_id"`
	Name      string         `db:"name"`
	Email     string         `db:"email"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt sql.NullTime   `db:"updated_at"`
}
