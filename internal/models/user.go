package models

import (
	"database/sql"
	"time"
)

type User struct {
	ID             string       `db:"id"`
	Email          string       `db:"email"`
	HashedPassword string       `db:"hashed_password"`
	IsActive       bool         `db:"is_active"`
	IsAdmin        bool         `db:"is_admin"`
	EmailVerified  bool         `db:"email_verified"`
	LastLoginAt    sql.NullTime `db:"last_login_at"`
	CreatedAt      time.Time    `db:"created_at"`
	UpdatedAt      sql.NullTime `db:"updated_at"`
	DeletedAt      sql.NullTime `db:"deleted_at"`
}

type Profile struct {
	ID                string         `db:"id"`
	UserID            string         `db:"user_id"`
	FirstName         string         `db:"first_name"`
	LastName          string         `db:"last_name"`
	PhoneNumber       sql.NullString `db:"phone_number"`
	DateOfBirth       sql.NullTime   `db:"date_of_birth"`
	Address           sql.NullString `db:"address"`
	City              sql.NullString `db:"city"`
	Country           sql.NullString `db:"country"`
	ProfilePictureURL sql.NullString `db:"profile_picture_url"`
	CreatedAt         time.Time      `db:"created_at"`
	UpdatedAt         sql.NullTime   `db:"updated_at"`
}
