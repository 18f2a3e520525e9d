package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"finance-tracker/internal/models"
	"finance-tracker/internal/money"
	"finance-tracker/internal/storage"
)

// AccountItem represents an account in the list views.
type AccountItem struct {
	models.Account
	BalanceStr string
}

// TransactionItem represents a transaction with resolved names for display.
type TransactionItem struct {
	models.Transaction
	AccountName  string
	CategoryName string
	AmountStr    string
	DateStr      string
}

// DashboardViewModel is the data passed to the dashboard template.
type DashboardViewModel struct {
	Flash        *Flash
	Username     string
	Accounts     []AccountItem
	Transactions []TransactionItem
	Categories   []models.Category
}

// Dashboard renders the session-gated summary view.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	accounts, err := h.loadAccountItems(user.ID)
	if err != nil {
		h.logger.Error("list accounts", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	transactions, err := h.loadTransactionItems(user.ID)
	if err != nil {
		h.logger.Error("list transactions", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	categories, err := h.db.ListCategories(user.ID)
	if err != nil {
		h.logger.Error("list categories", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "dashboard.html", DashboardViewModel{
		Flash:        h.popFlash(w, r),
		Username:     user.Username,
		Accounts:     accounts,
		Transactions: transactions,
		Categories:   categories,
	})
}

// AccountsViewModel is the data passed to the accounts template.
type AccountsViewModel struct {
	Flash    *Flash
	Username string
	Accounts []AccountItem
}

// Accounts renders the list of the user's accounts.
func (h *Handlers) Accounts(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	accounts, err := h.loadAccountItems(user.ID)
	if err != nil {
		h.logger.Error("list accounts", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "accounts.html", AccountsViewModel{
		Flash:    h.popFlash(w, r),
		Username: user.Username,
		Accounts: accounts,
	})
}

// AddAccount handles the add-account form submission.
func (h *Handlers) AddAccount(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	if err := r.ParseForm(); err != nil {
		h.setFlash(w, "error", "Invalid form submission.")
		http.Redirect(w, r, "/accounts", http.StatusFound)
		return
	}

	name := strings.TrimSpace(r.FormValue("account_name"))
	if name == "" {
		h.setFlash(w, "error", "Account name is required.")
		http.Redirect(w, r, "/accounts", http.StatusFound)
		return
	}

	balance, err := money.ParseAmount(r.FormValue("initial_balance"))
	if err != nil {
		h.setFlash(w, "error", "Initial balance must be a valid amount.")
		http.Redirect(w, r, "/accounts", http.StatusFound)
		return
	}

	if _, err := h.db.CreateAccount(user.ID, name, balance); err != nil {
		h.logger.Error("create account", "error", err)
		h.setFlash(w, "error", "Could not add the account. Please try again.")
		http.Redirect(w, r, "/accounts", http.StatusFound)
		return
	}

	h.setFlash(w, "success", "Account added successfully.")
	http.Redirect(w, r, "/accounts", http.StatusFound)
}

// EditAccountViewModel is the data passed to the edit-account template.
type EditAccountViewModel struct {
	Flash    *Flash
	Username string
	Account  AccountItem
}

// EditAccountForm renders the form to rename an account.
func (h *Handlers) EditAccountForm(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.setFlash(w, "error", "Account not found.")
		http.Redirect(w, r, "/accounts", http.StatusFound)
		return
	}

	account, err := h.db.GetAccount(user.ID, id)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			h.logger.Error("get account", "error", err)
		}
		h.setFlash(w, "error", "Account not found.")
		http.Redirect(w, r, "/accounts", http.StatusFound)
		return
	}

	h.render(w, r, "edit_account.html", EditAccountViewModel{
		Flash:    h.popFlash(w, r),
		Username: user.Username,
		Account:  AccountItem{Account: *account, BalanceStr: money.Format(account.Balance)},
	})
}

// EditAccount handles the rename form submission.
func (h *Handlers) EditAccount(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.setFlash(w, "error", "Account not found.")
		http.Redirect(w, r, "/accounts", http.StatusFound)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.setFlash(w, "error", "Invalid form submission.")
		http.Redirect(w, r, "/accounts", http.StatusFound)
		return
	}

	name := strings.TrimSpace(r.FormValue("account_name"))
	if name == "" {
		h.setFlash(w, "error", "Account name is required.")
		http.Redirect(w, r, "/edit_account/"+strconv.FormatInt(id, 10), http.StatusFound)
		return
	}

	if err := h.db.RenameAccount(user.ID, id, name); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.setFlash(w, "error", "Account not found.")
		} else {
			h.logger.Error("rename account", "error", err)
			h.setFlash(w, "error", "Could not update the account. Please try again.")
		}
		http.Redirect(w, r, "/accounts", http.StatusFound)
		return
	}

	h.setFlash(w, "success", "Account updated successfully.")
	http.Redirect(w, r, "/accounts", http.StatusFound)
}

// DeleteAccount deletes an account and its transactions.
func (h *Handlers) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.setFlash(w, "error", "Account not found.")
		http.Redirect(w, r, "/accounts", http.StatusFound)
		return
	}

	if err := h.db.DeleteAccount(user.ID, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.setFlash(w, "error", "Account not found.")
		} else {
			h.logger.Error("delete account", "error", err)
			h.setFlash(w, "error", "Could not delete the account. Please try again.")
		}
		http.Redirect(w, r, "/accounts", http.StatusFound)
		return
	}

	h.setFlash(w, "success", "Account deleted successfully.")
	http.Redirect(w, r, "/accounts", http.StatusFound)
}

// TransactionsViewModel is the data passed to the transactions template.
type TransactionsViewModel struct {
	Flash        *Flash
	Username     string
	Transactions []TransactionItem
	Accounts     []AccountItem
	Categories   []models.Category
}

// Transactions renders all transactions across the user's accounts.
func (h *Handlers) Transactions(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	transactions, err := h.loadTransactionItems(user.ID)
	if err != nil {
		h.logger.Error("list transactions", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	accounts, err := h.loadAccountItems(user.ID)
	if err != nil {
		h.logger.Error("list accounts", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	categories, err := h.db.ListCategories(user.ID)
	if err != nil {
		h.logger.Error("list categories", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "transactions.html", TransactionsViewModel{
		Flash:        h.popFlash(w, r),
		Username:     user.Username,
		Transactions: transactions,
		Accounts:     accounts,
		Categories:   categories,
	})
}

// AddTransaction handles the add-transaction form submission.
func (h *Handlers) AddTransaction(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	if err := r.ParseForm(); err != nil {
		h.setFlash(w, "error", "Invalid form submission.")
		http.Redirect(w, r, "/transactions", http.StatusFound)
		return
	}

	accountID, err1 := strconv.ParseInt(r.FormValue("account_id"), 10, 64)
	categoryID, err2 := strconv.ParseInt(r.FormValue("category_id"), 10, 64)
	if err1 != nil || err2 != nil {
		h.setFlash(w, "error", "Please choose an account and a category.")
		http.Redirect(w, r, "/transactions", http.StatusFound)
		return
	}

	amount, err := money.ParseAmount(r.FormValue("amount"))
	if err != nil {
		h.setFlash(w, "error", "Amount must be a valid number.")
		http.Redirect(w, r, "/transactions", http.StatusFound)
		return
	}

	// Date is optional and defaults to today
	var date time.Time
	if dateStr := r.FormValue("date"); dateStr != "" {
		date, err = time.Parse("2006-01-02", dateStr)
		if err != nil {
			h.setFlash(w, "error", "Date must be in YYYY-MM-DD format.")
			http.Redirect(w, r, "/transactions", http.StatusFound)
			return
		}
	}

	_, err = h.db.CreateTransaction(user.ID, accountID, categoryID, amount, r.FormValue("description"), date)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.setFlash(w, "error", "Account or category not found.")
		} else {
			h.logger.Error("create transaction", "error", err)
			h.setFlash(w, "error", "Could not add the transaction. Please try again.")
		}
		http.Redirect(w, r, "/transactions", http.StatusFound)
		return
	}

	h.setFlash(w, "success", "Transaction added successfully.")
	http.Redirect(w, r, "/transactions", http.StatusFound)
}

// CategoriesViewModel is the data passed to the categories template.
type CategoriesViewModel struct {
	Flash      *Flash
	Username   string
	Categories []models.Category
}

// Categories renders the list of the user's categories.
func (h *Handlers) Categories(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	categories, err := h.db.ListCategories(user.ID)
	if err != nil {
		h.logger.Error("list categories", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "categories.html", CategoriesViewModel{
		Flash:      h.popFlash(w, r),
		Username:   user.Username,
		Categories: categories,
	})
}

// AddCategory handles the add-category form submission.
func (h *Handlers) AddCategory(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	if err := r.ParseForm(); err != nil {
		h.setFlash(w, "error", "Invalid form submission.")
		http.Redirect(w, r, "/categories", http.StatusFound)
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	kind := r.FormValue("kind")

	if _, err := h.db.CreateCategory(user.ID, name, kind); err != nil {
		if errors.Is(err, storage.ErrValidation) {
			h.setFlash(w, "error", "Category needs a name and a kind of Income or Expense.")
		} else {
			h.logger.Error("create category", "error", err)
			h.setFlash(w, "error", "Could not add the category. Please try again.")
		}
		http.Redirect(w, r, "/categories", http.StatusFound)
		return
	}

	h.setFlash(w, "success", "Category added successfully.")
	http.Redirect(w, r, "/categories", http.StatusFound)
}

func (h *Handlers) loadAccountItems(userID int64) ([]AccountItem, error) {
	accounts, err := h.db.ListAccounts(userID)
	if err != nil {
		return nil, err
	}
	items := make([]AccountItem, 0, len(accounts))
	for _, a := range accounts {
		items = append(items, AccountItem{Account: a, BalanceStr: money.Format(a.Balance)})
	}
	return items, nil
}

func (h *Handlers) loadTransactionItems(userID int64) ([]TransactionItem, error) {
	transactions, err := h.db.ListTransactions(userID)
	if err != nil {
		return nil, err
	}
	accounts, err := h.db.ListAccounts(userID)
	if err != nil {
		return nil, err
	}
	categories, err := h.db.ListCategories(userID)
	if err != nil {
		return nil, err
	}

	accountNames := make(map[int64]string, len(accounts))
	for _, a := range accounts {
		accountNames[a.ID] = a.Name
	}
	categoryNames := make(map[int64]string, len(categories))
	for _, c := range categories {
		categoryNames[c.ID] = c.Name
	}

	items := make([]TransactionItem, 0, len(transactions))
	for _, t := range transactions {
		items = append(items, TransactionItem{
			Transaction:  t,
			AccountName:  accountNames[t.AccountID],
			CategoryName: categoryNames[t.CategoryID],
			AmountStr:    money.Format(t.Amount),
			DateStr:      t.Date.Format("2006-01-02"),
		})
	}
	return items, nil
}
