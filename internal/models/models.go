package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category kinds. Every category is one or the other.
const (
	KindIncome  = "Income"
	KindExpense = "Expense"
)

// User represents a registered user account.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Account represents a financial account owned by a user.
// Balance is an independently stored figure, not derived from transactions.
type Account struct {
	ID      int64           `json:"id"`
	UserID  int64           `json:"user_id"`
	Name    string          `json:"name"`
	Balance decimal.Decimal `json:"balance"`
}

// Category labels transactions as income or expense.
type Category struct {
	ID     int64  `json:"id"`
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
	Kind   string `json:"kind"`
}

// Transaction represents a single ledger entry against an account.
type Transaction struct {
	ID          int64           `json:"id"`
	AccountID   int64           `json:"account_id"`
	CategoryID  int64           `json:"category_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`
}

// Session represents a server-side login session.
type Session struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}
