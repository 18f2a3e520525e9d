package storage

import (
	"database/sql"
	"errors"
	"strings"

	"finance-tracker/internal/auth"
	"finance-tracker/internal/models"
)

// CreateUser creates a new user with the given username, email and password
// hash. Returns ErrDuplicateEmail if the email is already registered.
func (db *DB) CreateUser(username, email, passwordHash string) (*models.User, error) {
	// Pre-check for a friendlier error; the UNIQUE constraint backstops races
	var existing int64
	err := db.conn.QueryRow("SELECT id FROM users WHERE email = ?", email).Scan(&existing)
	if err == nil {
		return nil, ErrDuplicateEmail
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	result, err := db.conn.Exec(
		"INSERT INTO users (username, email, password_hash) VALUES (?, ?, ?)",
		username, email, passwordHash,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return db.GetUserByID(id)
}

// GetUserByID retrieves a user by ID.
func (db *DB) GetUserByID(id int64) (*models.User, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, email, password_hash, created_at FROM users WHERE id = ?",
		id,
	)
	return scanUser(row)
}

// GetUserByEmail retrieves a user by email.
func (db *DB) GetUserByEmail(email string) (*models.User, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, email, password_hash, created_at FROM users WHERE email = ?",
		email,
	)
	return scanUser(row)
}

// Authenticate verifies an email/password pair and returns the matching
// user. Unknown emails and wrong passwords both return
// auth.ErrInvalidCredentials, and the unknown-email path still performs a
// hash comparison so the two cases cost the same.
func (db *DB) Authenticate(email, password string) (*models.User, error) {
	user, err := db.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			auth.BurnPassword(password)
			return nil, auth.ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(password, user.PasswordHash) {
		return nil, auth.ErrInvalidCredentials
	}
	return user, nil
}

// UserCount returns the number of users in the database.
func (db *DB) UserCount() (int, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
