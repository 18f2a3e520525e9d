package storage

import (
	"testing"
	"time"

	"finance-tracker/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// LedgerTestSuite provides a test suite for account, category and
// transaction operations
type LedgerTestSuite struct {
	suite.Suite
	db    *DB
	alice *models.User
	bob   *models.User
}

// SetupTest runs before each test
func (suite *LedgerTestSuite) SetupTest() {
	db, err := NewDB(":memory:")
	require.NoError(suite.T(), err, "failed to create test database")
	suite.db = db

	suite.alice, err = db.CreateUser("alice", "alice@example.com", "hash-a")
	require.NoError(suite.T(), err)
	suite.bob, err = db.CreateUser("bob", "bob@example.com", "hash-b")
	require.NoError(suite.T(), err)
}

// TearDownTest runs after each test
func (suite *LedgerTestSuite) TearDownTest() {
	if suite.db != nil {
		suite.db.Close()
	}
}

func (suite *LedgerTestSuite) TestCreateAndListAccounts() {
	account, err := suite.db.CreateAccount(suite.alice.ID, "Checking", decimal.RequireFromString("100.00"))
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Checking", account.Name)

	accounts, err := suite.db.ListAccounts(suite.alice.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), accounts, 1)
	assert.Equal(suite.T(), "Checking", accounts[0].Name)
	assert.Equal(suite.T(), "100.00", accounts[0].Balance.StringFixed(2))
}

func (suite *LedgerTestSuite) TestCreateAccount_EmptyName() {
	_, err := suite.db.CreateAccount(suite.alice.ID, "   ", decimal.Zero)
	assert.ErrorIs(suite.T(), err, ErrValidation)
}

func (suite *LedgerTestSuite) TestCreateAccount_NegativeBalanceAllowed() {
	account, err := suite.db.CreateAccount(suite.alice.ID, "Overdraft", decimal.RequireFromString("-25.50"))
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "-25.50", account.Balance.StringFixed(2))
}

func (suite *LedgerTestSuite) TestListAccounts_ScopedToOwner() {
	_, err := suite.db.CreateAccount(suite.alice.ID, "Alice Checking", decimal.Zero)
	require.NoError(suite.T(), err)
	_, err = suite.db.CreateAccount(suite.bob.ID, "Bob Savings", decimal.Zero)
	require.NoError(suite.T(), err)

	accounts, err := suite.db.ListAccounts(suite.alice.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), accounts, 1)
	assert.Equal(suite.T(), "Alice Checking", accounts[0].Name)
}

func (suite *LedgerTestSuite) TestRenameAccount() {
	account, err := suite.db.CreateAccount(suite.alice.ID, "Old Name", decimal.Zero)
	require.NoError(suite.T(), err)

	require.NoError(suite.T(), suite.db.RenameAccount(suite.alice.ID, account.ID, "New Name"))

	renamed, err := suite.db.GetAccount(suite.alice.ID, account.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "New Name", renamed.Name)
}

func (suite *LedgerTestSuite) TestRenameAccount_CrossUser() {
	account, err := suite.db.CreateAccount(suite.bob.ID, "Bob Account", decimal.Zero)
	require.NoError(suite.T(), err)

	// Alice cannot rename Bob's account
	err = suite.db.RenameAccount(suite.alice.ID, account.ID, "Hijacked")
	assert.ErrorIs(suite.T(), err, ErrNotFound)

	unchanged, err := suite.db.GetAccount(suite.bob.ID, account.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Bob Account", unchanged.Name)
}

func (suite *LedgerTestSuite) TestDeleteAccount_CrossUser() {
	account, err := suite.db.CreateAccount(suite.bob.ID, "Bob Account", decimal.Zero)
	require.NoError(suite.T(), err)

	// Alice cannot delete Bob's account
	err = suite.db.DeleteAccount(suite.alice.ID, account.ID)
	assert.ErrorIs(suite.T(), err, ErrNotFound)

	_, err = suite.db.GetAccount(suite.bob.ID, account.ID)
	assert.NoError(suite.T(), err, "Bob's account must survive")
}

func (suite *LedgerTestSuite) TestDeleteAccount_CascadesTransactions() {
	account, err := suite.db.CreateAccount(suite.alice.ID, "Checking", decimal.Zero)
	require.NoError(suite.T(), err)
	categoryID, err := suite.db.CreateCategory(suite.alice.ID, "Groceries", models.KindExpense)
	require.NoError(suite.T(), err)

	_, err = suite.db.CreateTransaction(suite.alice.ID, account.ID, categoryID,
		decimal.RequireFromString("12.34"), "weekly shop", time.Now())
	require.NoError(suite.T(), err)

	require.NoError(suite.T(), suite.db.DeleteAccount(suite.alice.ID, account.ID))

	transactions, err := suite.db.ListTransactions(suite.alice.ID)
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), transactions, "transactions must be deleted with their account")
}

func (suite *LedgerTestSuite) TestCreateTransaction_MissingAccount() {
	categoryID, err := suite.db.CreateCategory(suite.alice.ID, "Groceries", models.KindExpense)
	require.NoError(suite.T(), err)

	_, err = suite.db.CreateTransaction(suite.alice.ID, 9999, categoryID,
		decimal.RequireFromString("5.00"), "", time.Now())
	assert.ErrorIs(suite.T(), err, ErrNotFound)
}

func (suite *LedgerTestSuite) TestCreateTransaction_MissingCategory() {
	account, err := suite.db.CreateAccount(suite.alice.ID, "Checking", decimal.Zero)
	require.NoError(suite.T(), err)

	_, err = suite.db.CreateTransaction(suite.alice.ID, account.ID, 9999,
		decimal.RequireFromString("5.00"), "", time.Now())
	assert.ErrorIs(suite.T(), err, ErrNotFound)
}

func (suite *LedgerTestSuite) TestCreateTransaction_ForeignAccount() {
	bobAccount, err := suite.db.CreateAccount(suite.bob.ID, "Bob Account", decimal.Zero)
	require.NoError(suite.T(), err)
	categoryID, err := suite.db.CreateCategory(suite.alice.ID, "Groceries", models.KindExpense)
	require.NoError(suite.T(), err)

	_, err = suite.db.CreateTransaction(suite.alice.ID, bobAccount.ID, categoryID,
		decimal.RequireFromString("5.00"), "", time.Now())
	assert.ErrorIs(suite.T(), err, ErrNotFound)

	transactions, err := suite.db.ListTransactions(suite.bob.ID)
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), transactions, "nothing may be written to Bob's ledger")
}

func (suite *LedgerTestSuite) TestListTransactions_AcrossAccounts() {
	checking, err := suite.db.CreateAccount(suite.alice.ID, "Checking", decimal.Zero)
	require.NoError(suite.T(), err)
	savings, err := suite.db.CreateAccount(suite.alice.ID, "Savings", decimal.Zero)
	require.NoError(suite.T(), err)
	categoryID, err := suite.db.CreateCategory(suite.alice.ID, "Salary", models.KindIncome)
	require.NoError(suite.T(), err)

	_, err = suite.db.CreateTransaction(suite.alice.ID, checking.ID, categoryID,
		decimal.RequireFromString("100.00"), "first", time.Now().Add(-time.Hour))
	require.NoError(suite.T(), err)
	_, err = suite.db.CreateTransaction(suite.alice.ID, savings.ID, categoryID,
		decimal.RequireFromString("200.00"), "second", time.Now())
	require.NoError(suite.T(), err)

	transactions, err := suite.db.ListTransactions(suite.alice.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), transactions, 2)
	// Newest first
	assert.Equal(suite.T(), "second", transactions[0].Description)
	assert.Equal(suite.T(), "200.00", transactions[0].Amount.StringFixed(2))
}

func (suite *LedgerTestSuite) TestCreateCategory_InvalidKind() {
	_, err := suite.db.CreateCategory(suite.alice.ID, "Misc", "Sideways")
	assert.ErrorIs(suite.T(), err, ErrValidation)
}

func (suite *LedgerTestSuite) TestListCategories_ScopedToOwner() {
	_, err := suite.db.CreateCategory(suite.alice.ID, "Groceries", models.KindExpense)
	require.NoError(suite.T(), err)
	_, err = suite.db.CreateCategory(suite.bob.ID, "Rent", models.KindExpense)
	require.NoError(suite.T(), err)

	categories, err := suite.db.ListCategories(suite.alice.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), categories, 1)
	assert.Equal(suite.T(), "Groceries", categories[0].Name)
}

// TestLedgerSuite runs the ledger test suite
func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerTestSuite))
}
