package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/deolamide/wallex/internal/ledger"
	"github.com/deolamide/wallex/internal/models"
)

type WalletRepository interface {
	Insert(wallet *models.Wallet, tx *sqlx.Tx) (string, error)
	GetOne(id string) (*models.Wallet, bool, error)
	GetAllByUserID(userID string) ([]models.Wallet, error)
	FindActiveByUserAndCurrency(userID, currency string) (*models.Wallet, bool, error)
	Deactivate(id string) error
}

type WalletRepositoryImpl struct {
	db *sqlx.DB
}

func NewWalletRepository(db *sqlx.DB) WalletRepository {
	return &WalletRepositoryImpl{db: db}
}

// Insert creates a wallet. A user may hold at most one wallet per currency;
// the (user_id, currency) unique constraint is the authority, application
// pre-checks only improve the error message under no contention.
func (repo *WalletRepositoryImpl) Insert(wallet *models.Wallet, tx *sqlx.Tx) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string

	query := `
		INSERT INTO wallets (user_id, currency)
		VALUES ($1, $2)
		RETURNING id`

	var err error
	if tx != nil {
		err = tx.QueryRowContext(ctx, query,
			wallet.UserID,
			wallet.Currency,
		).Scan(&id)
	} else {
		err = repo.db.GetContext(ctx, &id, query,
			wallet.UserID,
			wallet.Currency,
		)
	}

	if err != nil {
		if uniqueViolation(err, "wallets_user_currency_key") {
			return "", ledger.ErrDuplicateWallet
		}
		return "", err
	}

	return id, nil
}

func (repo *WalletRepositoryImpl) GetOne(id string) (*models.Wallet, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var wallet models.Wallet

	query := `SELECT * FROM wallets WHERE id = $1 AND deleted_at IS NULL`

	err := repo.db.GetContext(ctx, &wallet, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &wallet, true, nil
}

func (repo *WalletRepositoryImpl) GetAllByUserID(userID string) ([]models.Wallet, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var wallets []models.Wallet

	query := `
		SELECT * FROM wallets
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY created_at`

	err := repo.db.SelectContext(ctx, &wallets, query, userID)
	if err != nil {
		return nil, err
	}

	return wallets, nil
}

func (repo *WalletRepositoryImpl) FindActiveByUserAndCurrency(userID, currency string) (*models.Wallet, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var wallet models.Wallet

	query := `
		SELECT * FROM wallets
		WHERE user_id = $1 AND currency = $2 AND is_active AND deleted_at IS NULL`

	err := repo.db.GetContext(ctx, &wallet, query, userID, currency)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &wallet, true, nil
}

func (repo *WalletRepositoryImpl) Deactivate(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE wallets SET is_active = FALSE, updated_at = NOW() WHERE id = $1`

	_, err := repo.db.ExecContext(ctx, query, id)
	return err
}
