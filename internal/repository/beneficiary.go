package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/deolamide/wallex/internal/ledger"
	"github.com/deolamide/wallex/internal/models"
)

type BeneficiaryRepository interface {
	Insert(beneficiary *models.Beneficiary) (string, error)
	GetAllByUserID(userID string) ([]models.Beneficiary, error)
	FindByUserAndEmail(userID, email string) (*models.Beneficiary, bool, error)
}

type BeneficiaryRepositoryImpl struct {
	db *sqlx.DB
}

func NewBeneficiaryRepository(db *sqlx.DB) BeneficiaryRepository {
	return &BeneficiaryRepositoryImpl{db: db}
}

func (repo *BeneficiaryRepositoryImpl) Insert(beneficiary *models.Beneficiary) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string

	query := `
		INSERT INTO beneficiaries (user_id, wallet_id, name, email)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	err := repo.db.GetContext(ctx, &id, query,
		beneficiary.UserID,
		beneficiary.WalletID,
		beneficiary.Name,
		beneficiary.Email,
	)
	if err != nil {
		if uniqueViolation(err, "beneficiaries_user_wallet_email_key") {
			return "", ledger.ErrDuplicateBeneficiary
		}
		return "", err
	}

	return id, nil
}

func (repo *BeneficiaryRepositoryImpl) GetAllByUserID(userID string) ([]models.Beneficiary, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var beneficiaries []models.Beneficiary

	query := `
		SELECT * FROM beneficiaries
		WHERE user_id = $1
		ORDER BY created_at DESC`

	err := repo.db.SelectContext(ctx, &beneficiaries, query, userID)
	if err != nil {
		return nil, err
	}

	return beneficiaries, nil
}

// FindByUserAndEmail returns the most recently saved beneficiary entry for
// the email; a user may have saved the same person against several wallets.
func (repo *BeneficiaryRepositoryImpl) FindByUserAndEmail(userID, email string) (*models.Beneficiary, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var beneficiary models.Beneficiary

	query := `
		SELECT * FROM beneficiaries
		WHERE user_id = $1 AND email = $2
		ORDER BY created_at DESC
		LIMIT 1`

	err := repo.db.GetContext(ctx, &beneficiary, query, userID, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &beneficiary, true, nil
}
