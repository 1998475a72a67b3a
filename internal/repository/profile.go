package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/deolamide/wallex/internal/models"
)

// ErrDuplicatePhoneNumber surfaces the phone-number unique constraint; the
// handler pre-check can lose a race with a concurrent registration.
var ErrDuplicatePhoneNumber = errors.New("phone number has been registered")

type ProfileRepository interface {
	GetByUserID(userID string) (*models.Profile, bool, error)
	Insert(profile *models.Profile, tx *sqlx.Tx) (string, error)
	Update(profile *models.Profile) error
	UpdatePicture(userID, pictureURL string) error
}

type ProfileRepositoryImpl struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) ProfileRepository {
	return &ProfileRepositoryImpl{db: db}
}

func (repo *ProfileRepositoryImpl) GetByUserID(userID string) (*models.Profile, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var profile models.Profile

	query := `SELECT * FROM profiles WHERE user_id = $1`

	err := repo.db.GetContext(ctx, &profile, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}

	return &profile, true, err
}

func (repo *ProfileRepositoryImpl) Insert(profile *models.Profile, tx *sqlx.Tx) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string

	query := `
		INSERT INTO profiles (user_id, first_name, last_name, phone_number, date_of_birth, address, city, country)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	args := []any{
		profile.UserID,
		profile.FirstName,
		profile.LastName,
		profile.PhoneNumber,
		profile.DateOfBirth,
		profile.Address,
		profile.City,
		profile.Country,
	}

	var err error
	if tx != nil {
		err = tx.QueryRowContext(ctx, query, args...).Scan(&id)
	} else {
		err = repo.db.GetContext(ctx, &id, query, args...)
	}
	if err != nil {
		if uniqueViolation(err, "profiles_phone_number_key") {
			return "", ErrDuplicatePhoneNumber
		}
		return "", err
	}

	return id, nil
}

func (repo *ProfileRepositoryImpl) Update(profile *models.Profile) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE profiles
		SET first_name = $1, last_name = $2, phone_number = $3, date_of_birth = $4,
		    address = $5, city = $6, country = $7, updated_at = NOW()
		WHERE user_id = $8`

	_, err := repo.db.ExecContext(ctx, query,
		profile.FirstName,
		profile.LastName,
		profile.PhoneNumber,
		profile.DateOfBirth,
		profile.Address,
		profile.City,
		profile.Country,
		profile.UserID,
	)
	if err != nil && uniqueViolation(err, "profiles_phone_number_key") {
		return ErrDuplicatePhoneNumber
	}
	return err
}

func (repo *ProfileRepositoryImpl) UpdatePicture(userID, pictureURL string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE profiles SET profile_picture_url = $1, updated_at = NOW() WHERE user_id = $2`

	_, err := repo.db.ExecContext(ctx, query, pictureURL, userID)
	return err
}
