package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/deolamide/wallex/internal/models"
)

type UserRepository interface {
	Insert(user *models.User, tx *sqlx.Tx) (string, error)
	GetOne(id string) (*models.User, bool, error)
	GetByEmail(email string) (*models.User, bool, error)
	RecordLogin(id string, at time.Time) error
	Deactivate(id string) error
	Delete(id string) error
	Counts() (total int, active int, err error)
}

type UserRepositoryImpl struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &UserRepositoryImpl{db: db}
}

func (repo *UserRepositoryImpl) Insert(user *models.User, tx *sqlx.Tx) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string

	query := `
		INSERT INTO users (email, hashed_password, is_admin)
		VALUES ($1, $2, $3)
		RETURNING id`

	if tx != nil {
		err := tx.QueryRowContext(ctx, query,
			user.Email,
			user.HashedPassword,
			user.IsAdmin,
		).Scan(&id)
		if err != nil {
			return "", err
		}
	} else {
		err := repo.db.GetContext(ctx, &id, query,
			user.Email,
			user.HashedPassword,
			user.IsAdmin,
		)
		if err != nil {
			return "", err
		}
	}

	return id, nil
}

func (repo *UserRepositoryImpl) GetOne(id string) (*models.User, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var user models.User

	query := `SELECT * FROM users WHERE id = $1 AND deleted_at IS NULL`

	err := repo.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}

	return &user, true, err
}

func (repo *UserRepositoryImpl) GetByEmail(email string) (*models.User, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var user models.User

	query := `SELECT * FROM users WHERE email = $1 AND deleted_at IS NULL`

	err := repo.db.GetContext(ctx, &user, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}

	return &user, true, err
}

func (repo *UserRepositoryImpl) RecordLogin(id string, at time.Time) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE users SET last_login_at = $1, updated_at = NOW() WHERE id = $2`

	_, err := repo.db.ExecContext(ctx, query, at, id)
	return err
}

func (repo *UserRepositoryImpl) Deactivate(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE users SET is_active = FALSE, updated_at = NOW() WHERE id = $1`

	_, err := repo.db.ExecContext(ctx, query, id)
	return err
}

// Delete removes a user entirely; owned profile and wallets go with it via
// ON DELETE CASCADE.
func (repo *UserRepositoryImpl) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `DELETE FROM users WHERE id = $1`

	_, err := repo.db.ExecContext(ctx, query, id)
	return err
}

func (repo *UserRepositoryImpl) Counts() (int, int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var counts struct {
		Total  int `db:"total"`
		Active int `db:"active"`
	}

	query := `
		SELECT count(*) AS total,
		       count(*) FILTER (WHERE is_active) AS active
		FROM users
		WHERE deleted_at IS NULL`

	err := repo.db.GetContext(ctx, &counts, query)
	if err != nil {
		return 0, 0, err
	}

	return counts.Total, counts.Active, nil
}
