package repository

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/deolamide/wallex/internal/ledger"
	"github.com/deolamide/wallex/internal/models"
)

type TransactionRepository interface {
	PerformTransfer(params *ledger.TransferParams) (*models.Transaction, error)
	GetOne(id string) (*models.Transaction, bool, error)
	FindByReference(referenceCode string) (*models.Transaction, bool, error)
	GetAllForUser(userID string, limit, offset int) ([]models.Transaction, error)
	UpdateStatus(id, status string) (bool, error)
}

type TransactionRepositoryImpl struct {
	db *sqlx.DB
}

func NewTransactionRepository(db *sqlx.DB) TransactionRepository {
	return &TransactionRepositoryImpl{db: db}
}

// PerformTransfer is the commit boundary for every money movement. All of
// it happens in one database transaction:
//
//  1. lock the involved wallet rows FOR UPDATE, always in ascending-id
//     order so two transfers over the same pair in opposite directions
//     cannot deadlock;
//  2. re-validate activeness and balance under the lock, since the
//     pre-commit checks may be stale by now;
//  3. apply the debit with a conditional decrement, apply the credit,
//     stamp last_transaction_at;
//  4. insert the COMPLETED transaction row.
//
// Any failure rolls the whole unit back: no partial balance change, no
// orphan transaction row.
func (repo *TransactionRepositoryImpl) PerformTransfer(params *ledger.TransferParams) (*models.Transaction, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	lockIDs := make([]string, 0, 2)
	if params.SenderWalletID != "" {
		lockIDs = append(lockIDs, params.SenderWalletID)
	}
	if params.ReceiverWalletID != "" {
		lockIDs = append(lockIDs, params.ReceiverWalletID)
	}
	sort.Strings(lockIDs)

	wallets := make(map[string]*models.Wallet, len(lockIDs))
	for _, id := range lockIDs {
		var wallet models.Wallet

		query := `SELECT * FROM wallets WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`

		err := tx.GetContext(ctx, &wallet, query, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, ledger.ErrWalletNotFound
			}
			return nil, err
		}
		if !wallet.IsActive {
			return nil, ledger.ErrWalletInactive
		}
		wallets[id] = &wallet
	}

	if params.SenderWalletID != "" {
		sender := wallets[params.SenderWalletID]
		if sender.Balance.LessThan(params.Amount) {
			return nil, ledger.ErrInsufficientFunds
		}

		if err := repo.debit(ctx, tx, sender.ID, params.Amount); err != nil {
			return nil, err
		}
	}

	if params.ReceiverWalletID != "" {
		if err := repo.credit(ctx, tx, params.ReceiverWalletID, params.Amount); err != nil {
			return nil, err
		}
	}

	transaction, err := repo.insert(ctx, tx, params)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return transaction, nil
}

// debit applies an atomic conditional decrement. The balance was already
// re-checked under the row lock; the WHERE clause and the table's CHECK
// constraint are kept as further defenses, and a zero-row result is
// insufficient funds discovered at commit time.
func (repo *TransactionRepositoryImpl) debit(ctx context.Context, tx *sqlx.Tx, walletID string, amount decimal.Decimal) error {
	query := `
		UPDATE wallets
		SET balance = balance - $1, last_transaction_at = NOW(), updated_at = NOW()
		WHERE id = $2 AND balance >= $1`

	result, err := tx.ExecContext(ctx, query, amount, walletID)
	if err != nil {
		if checkViolation(err, "wallets_balance_non_negative") {
			return ledger.ErrInsufficientFunds
		}
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ledger.ErrInsufficientFunds
	}

	return nil
}

func (repo *TransactionRepositoryImpl) credit(ctx context.Context, tx *sqlx.Tx, walletID string, amount decimal.Decimal) error {
	query := `
		UPDATE wallets
		SET balance = balance + $1, last_transaction_at = NOW(), updated_at = NOW()
		WHERE id = $2`

	_, err := tx.ExecContext(ctx, query, amount, walletID)
	return err
}

func (repo *TransactionRepositoryImpl) insert(ctx context.Context, tx *sqlx.Tx, params *ledger.TransferParams) (*models.Transaction, error) {
	var transaction models.Transaction

	query := `
		INSERT INTO transactions
			(sender_wallet_id, receiver_wallet_id, beneficiary_id, amount, currency,
			 transaction_type, status, reference_code, description, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING *`

	err := tx.GetContext(ctx, &transaction, query,
		nullableID(params.SenderWalletID),
		nullableID(params.ReceiverWalletID),
		nullableID(params.BeneficiaryID),
		params.Amount,
		params.Currency,
		params.Type,
		models.TransactionStatusCompleted,
		params.ReferenceCode,
		nullableID(params.Description),
	)
	if err != nil {
		if uniqueViolation(err, "transactions_reference_code_key") {
			return nil, ledger.ErrDuplicateReference
		}
		if uniqueViolation(err, "") {
			return nil, ledger.ErrStoreConflict
		}
		return nil, err
	}

	return &transaction, nil
}

func (repo *TransactionRepositoryImpl) GetOne(id string) (*models.Transaction, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var transaction models.Transaction

	query := `SELECT * FROM transactions WHERE id = $1`

	err := repo.db.GetContext(ctx, &transaction, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &transaction, true, nil
}

func (repo *TransactionRepositoryImpl) FindByReference(referenceCode string) (*models.Transaction, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var transaction models.Transaction

	query := `SELECT * FROM transactions WHERE reference_code = $1`

	err := repo.db.GetContext(ctx, &transaction, query, referenceCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &transaction, true, nil
}

// GetAllForUser lists transactions touching any of the user's wallets,
// newest first.
func (repo *TransactionRepositoryImpl) GetAllForUser(userID string, limit, offset int) ([]models.Transaction, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var transactions []models.Transaction

	query := `
		SELECT t.* FROM transactions t
		WHERE t.sender_wallet_id IN (SELECT id FROM wallets WHERE user_id = $1)
		   OR t.receiver_wallet_id IN (SELECT id FROM wallets WHERE user_id = $1)
		ORDER BY t.created_at DESC
		LIMIT $2 OFFSET $3`

	err := repo.db.SelectContext(ctx, &transactions, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	return transactions, nil
}

// UpdateStatus transitions a PENDING transaction to a terminal status.
// COMPLETED and FAILED are immutable, which the WHERE clause enforces; the
// return value reports whether a transition actually happened.
func (repo *TransactionRepositoryImpl) UpdateStatus(id, status string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE transactions
		SET status = $1,
		    updated_at = NOW(),
		    completed_at = CASE WHEN $1 = $2 THEN NOW() ELSE completed_at END
		WHERE id = $3 AND status = $4`

	result, err := repo.db.ExecContext(ctx, query, status, models.TransactionStatusCompleted, id, models.TransactionStatusPending)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

func nullableID(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
