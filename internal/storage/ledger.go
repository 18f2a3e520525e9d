package storage

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"finance-tracker/internal/models"

	"github.com/shopspring/decimal"
)

// ListAccounts retrieves all accounts owned by the given user.
func (db *DB) ListAccounts(userID int64) ([]models.Account, error) {
	rows, err := db.conn.Query(
		"SELECT id, user_id, name, balance FROM accounts WHERE user_id = ? ORDER BY id",
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name, &a.Balance); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}

	return accounts, rows.Err()
}

// GetAccount retrieves a single account owned by the given user.
// Accounts belonging to other users are reported as ErrNotFound.
func (db *DB) GetAccount(userID, accountID int64) (*models.Account, error) {
	row := db.conn.QueryRow(
		"SELECT id, user_id, name, balance FROM accounts WHERE id = ? AND user_id = ?",
		accountID, userID,
	)

	var a models.Account
	if err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Balance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// CreateAccount inserts a new account for the given user and returns it.
func (db *DB) CreateAccount(userID int64, name string, balance decimal.Decimal) (*models.Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrValidation
	}

	result, err := db.conn.Exec(
		"INSERT INTO accounts (user_id, name, balance) VALUES (?, ?, ?)",
		userID, name, balance.StringFixed(2),
	)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return db.GetAccount(userID, id)
}

// RenameAccount updates the name of an account owned by the given user.
func (db *DB) RenameAccount(userID, accountID int64, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return ErrValidation
	}

	result, err := db.conn.Exec(
		"UPDATE accounts SET name = ? WHERE id = ? AND user_id = ?",
		newName, accountID, userID,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAccount deletes an account owned by the given user along with its
// transactions. The cascade and the account delete commit together.
func (db *DB) DeleteAccount(userID, accountID int64) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		"DELETE FROM accounts WHERE id = ? AND user_id = ?",
		accountID, userID,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	// The FK declares ON DELETE CASCADE; this keeps the policy explicit even
	// when the foreign_keys pragma is off.
	if _, err := tx.Exec("DELETE FROM transactions WHERE account_id = ?", accountID); err != nil {
		return err
	}

	return tx.Commit()
}

// ListTransactions retrieves all transactions across the given user's
// accounts, newest first.
func (db *DB) ListTransactions(userID int64) ([]models.Transaction, error) {
	rows, err := db.conn.Query(`
		SELECT t.id, t.account_id, t.category_id, t.amount, COALESCE(t.description, ''), t.date
		FROM transactions t
		JOIN accounts a ON t.account_id = a.id
		WHERE a.user_id = ?
		ORDER BY t.date DESC, t.id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.AccountID, &t.CategoryID, &t.Amount, &t.Description, &t.Date); err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}

	return transactions, rows.Err()
}

// CreateTransaction inserts a transaction against one of the user's accounts.
// Both the account and the category must exist and belong to the user;
// otherwise ErrNotFound is returned and nothing is written.
func (db *DB) CreateTransaction(userID, accountID, categoryID int64, amount decimal.Decimal, description string, date time.Time) (int64, error) {
	if date.IsZero() {
		date = time.Now()
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var one int
	if err := tx.QueryRow("SELECT 1 FROM accounts WHERE id = ? AND user_id = ?", accountID, userID).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	if err := tx.QueryRow("SELECT 1 FROM categories WHERE id = ? AND user_id = ?", categoryID, userID).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}

	result, err := tx.Exec(
		"INSERT INTO transactions (account_id, category_id, amount, description, date) VALUES (?, ?, ?, ?, ?)",
		accountID, categoryID, amount.StringFixed(2), description, date,
	)
	if err != nil {
		return 0, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	return id, tx.Commit()
}

// ListCategories retrieves all categories owned by the given user.
func (db *DB) ListCategories(userID int64) ([]models.Category, error) {
	rows, err := db.conn.Query(
		"SELECT id, user_id, name, kind FROM categories WHERE user_id = ? ORDER BY id",
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Kind); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}

	return categories, rows.Err()
}

// CreateCategory inserts a new category for the given user and returns its id.
func (db *DB) CreateCategory(userID int64, name, kind string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, ErrValidation
	}
	if kind != models.KindIncome && kind != models.KindExpense {
		return 0, ErrValidation
	}

	result, err := db.conn.Exec(
		"INSERT INTO categories (user_id, name, kind) VALUES (?, ?, ?)",
		userID, name, kind,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}
