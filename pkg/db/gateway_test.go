package db

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cleytonsamurai/sistema-bancario/pkg/bank"
)

var testNow = time.Date(2024, time.May, 2, 14, 5, 9, 0, time.Local)

func setupGateway(t *testing.T) (*Gateway, *Connection) {
	t.Helper()

	conn, err := Open(filepath.Join(t.TempDir(), "bank.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	rules := bank.DefaultRules()
	rules.Now = func() time.Time { return testNow }
	return NewGateway(conn, rules), conn
}

func registerWithAccount(t *testing.T, g *Gateway, idCode string) (*bank.Customer, *bank.Account) {
	t.Helper()

	c, err := bank.NewCustomer("Ana", "10-10-1980", idCode, "Av. B, 20", g.rules)
	require.NoError(t, err)
	require.NoError(t, g.InsertCustomer(c))

	number, err := g.NextAccountNumber()
	require.NoError(t, err)
	a := bank.NewAccount(number, g.rules)
	require.NoError(t, c.AddAccount(a))
	require.NoError(t, g.InsertAccount(c.ID, a))
	return c, a
}

func persist(t *testing.T, g *Gateway, a *bank.Account, e bank.Entry, err error) bank.Entry {
	t.Helper()
	require.NoError(t, err)
	saved, err := g.InsertTransactionEntry(a, e)
	require.NoError(t, err)
	return saved
}

func countRows(t *testing.T, conn *Connection, table string) int {
	t.Helper()
	var n int
	require.NoError(t, conn.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&n))
	return n
}

func TestInsertAndReplay(t *testing.T) {
	g, _ := setupGateway(t)
	c, a := registerWithAccount(t, g, "11122233344")

	e, err := a.Deposit(decimal.NewFromInt(1000))
	first := persist(t, g, a, e, err)
	e, err = a.Withdraw(decimal.NewFromInt(300))
	persist(t, g, a, e, err)
	e, err = a.Deposit(decimal.RequireFromString("50.25"))
	persist(t, g, a, e, err)

	assert.NotZero(t, first.ID)
	assert.Equal(t, first.ID, a.History().Entries()[0].ID)

	loaded, err := g.FindCustomerByIdentifier(c.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "11122233344", loaded.IDCode)
	require.Len(t, loaded.Accounts(), 1)

	acct := loaded.PrimaryAccount()
	assert.Equal(t, bank.BranchCode, acct.Branch)
	assert.True(t, acct.Balance().Equal(decimal.RequireFromString("750.25")))
	assert.Same(t, loaded, acct.Owner())

	entries := acct.Statement().Entries
	require.Len(t, entries, 3)
	assert.Equal(t, bank.Deposit, entries[0].Kind)
	assert.Equal(t, bank.Withdrawal, entries[1].Kind)
	assert.True(t, testNow.Equal(entries[2].Timestamp))
	assert.NoError(t, acct.Verify())
}

func TestFindAbsent(t *testing.T) {
	g, _ := setupGateway(t)

	c, err := g.FindCustomerByIdentifier(42)
	assert.NoError(t, err)
	assert.Nil(t, c)

	c, err = g.FindCustomerByIDCode("00000000000")
	assert.NoError(t, err)
	assert.Nil(t, c)

	a, err := g.FindAccountForCustomer(42)
	assert.NoError(t, err)
	assert.Nil(t, a)
}

func TestFindAccountForCustomer(t *testing.T) {
	g, _ := setupGateway(t)
	c, a := registerWithAccount(t, g, "11122233344")

	found, err := g.FindAccountForCustomer(c.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, a.Number, found.Number)

	byCode, err := g.FindCustomerByIDCode("11122233344")
	require.NoError(t, err)
	assert.Equal(t, c.ID, byCode.ID)
}

func TestDuplicateCustomer(t *testing.T) {
	g, _ := setupGateway(t)
	first, _ := registerWithAccount(t, g, "11122233344")

	dup, err := bank.NewCustomer("Other", "01-01-2001", "11122233344", "Elsewhere", g.rules)
	require.NoError(t, err)
	err = g.InsertCustomer(dup)
	require.ErrorIs(t, err, bank.ErrDuplicateCustomer)
	assert.Zero(t, dup.ID)

	still, err := g.FindCustomerByIdentifier(first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", still.Name)
}

func TestConstraintViolation(t *testing.T) {
	g, _ := setupGateway(t)

	a := bank.NewAccount("77", g.rules)
	err := g.InsertAccount(999, a)
	assert.ErrorIs(t, err, bank.ErrConstraintViolation, "unknown customer breaks the foreign key")

	c, _ := registerWithAccount(t, g, "11122233344")
	dup := bank.NewAccount(c.PrimaryAccount().Number, g.rules)
	err = g.InsertAccount(c.ID, dup)
	assert.ErrorIs(t, err, bank.ErrConstraintViolation)
}

func TestDeleteCustomerCascade(t *testing.T) {
	g, conn := setupGateway(t)
	c, a := registerWithAccount(t, g, "11122233344")
	other, b := registerWithAccount(t, g, "55566677788")

	e, err := a.Deposit(decimal.NewFromInt(10))
	persist(t, g, a, e, err)
	e, err = b.Deposit(decimal.NewFromInt(20))
	persist(t, g, b, e, err)

	deleted, err := g.DeleteCustomerCascade(c.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	gone, err := g.FindCustomerByIdentifier(c.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	assert.Equal(t, 1, countRows(t, conn, "accounts"))
	assert.Equal(t, 1, countRows(t, conn, "transactions"))

	kept, err := g.FindCustomerByIdentifier(other.ID)
	require.NoError(t, err)
	assert.True(t, kept.PrimaryAccount().Balance().Equal(decimal.NewFromInt(20)))

	deleted, err = g.DeleteCustomerCascade(c.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestAccountNumbersAreNeverReused(t *testing.T) {
	g, _ := setupGateway(t)

	c, a := registerWithAccount(t, g, "11122233344")
	assert.Equal(t, "1", a.Number)
	_, err := g.DeleteCustomerCascade(c.ID)
	require.NoError(t, err)

	_, b := registerWithAccount(t, g, "11122233344")
	assert.Equal(t, "2", b.Number)
}

func TestBalanceMismatchIsReported(t *testing.T) {
	g, conn := setupGateway(t)
	c, a := registerWithAccount(t, g, "11122233344")
	e, err := a.Deposit(decimal.NewFromInt(10))
	persist(t, g, a, e, err)

	_, err = conn.Exec(`UPDATE accounts SET balance = '999' WHERE id = ?`, a.ID)
	require.NoError(t, err)

	_, err = g.FindCustomerByIdentifier(c.ID)
	assert.ErrorIs(t, err, bank.ErrBalanceMismatch)
}

func TestCustomersIteratesAllPages(t *testing.T) {
	g, _ := setupGateway(t)

	total := customerPageSize + 3
	for i := 0; i < total; i++ {
		c, err := bank.NewCustomer(fmt.Sprintf("C%d", i), "01-01-2000", fmt.Sprintf("%011d", i), "x", g.rules)
		require.NoError(t, err)
		require.NoError(t, g.InsertCustomer(c))
	}

	var ids []int64
	for c, err := range g.Customers() {
		require.NoError(t, err)
		ids = append(ids, c.ID)
	}
	require.Len(t, ids, total)
	assert.IsIncreasing(t, ids)

	seen := 0
	for range g.Customers() {
		seen++
		if seen == 2 {
			break
		}
	}
	assert.Equal(t, 2, seen)
}

func TestStatsAndMetadata(t *testing.T) {
	g, _ := setupGateway(t)

	stats, err := g.Stats()
	require.NoError(t, err)
	assert.Zero(t, stats.TotalCustomers)
	assert.True(t, stats.LastTransaction.IsZero())

	_, a := registerWithAccount(t, g, "11122233344")
	e, err := a.Deposit(decimal.NewFromInt(5))
	persist(t, g, a, e, err)

	stats, err = g.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalCustomers)
	assert.Equal(t, 1, stats.TotalAccounts)
	assert.Equal(t, 1, stats.TotalTransactions)
	assert.True(t, testNow.Equal(stats.LastTransaction))

	v, err := g.Metadata("missing")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, g.SetMetadata("k", "v1"))
	require.NoError(t, g.SetMetadata("k", "v2"))
	v, err = g.Metadata("k")
	require.NoError(t, err)
	assert.Equal(t, "v2", v)
}
