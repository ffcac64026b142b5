package bank

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, time.March, 15, 10, 30, 0, 0, time.Local)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// testRules returns the default rules with a clock the test can move.
func testRules(now *time.Time) Rules {
	r := DefaultRules()
	r.Now = func() time.Time { return *now }
	return r
}

func newTestAccount(t *testing.T, rules Rules) (*Customer, *Account) {
	t.Helper()
	c, err := NewCustomer("Maria Silva", "01-02-1990", "12345678901", "Rua A, 10", rules)
	require.NoError(t, err)
	a := NewAccount("1", rules)
	a.ID = 1
	require.NoError(t, c.AddAccount(a))
	return c, a
}

func assertBalanceInvariant(t *testing.T, a *Account) {
	t.Helper()
	want := a.OpeningBalance()
	for _, e := range a.Statement().Entries {
		switch e.Kind {
		case Deposit:
			want = want.Add(e.Amount)
		case Withdrawal:
			want = want.Sub(e.Amount)
		}
	}
	assert.True(t, want.Equal(a.Balance()), "balance %s, replayed %s", a.Balance(), want)
	assert.NoError(t, a.Verify())
}

func TestNewTransaction(t *testing.T) {
	tests := []struct {
		name    string
		kind    Kind
		amount  decimal.Decimal
		wantErr error
	}{
		{"deposit", Deposit, dec(100), nil},
		{"withdrawal", Withdrawal, decimal.RequireFromString("0.01"), nil},
		{"zero amount", Deposit, decimal.Zero, ErrInvalidAmount},
		{"negative amount", Withdrawal, dec(-5), ErrInvalidAmount},
		{"unknown kind", Kind("Transferencia"), dec(10), ErrInvalidKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn, err := NewTransaction(tt.kind, tt.amount)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.kind, txn.Kind())
			assert.True(t, tt.amount.Equal(txn.Amount()))
		})
	}
}

func TestTransactionSigned(t *testing.T) {
	d, _ := NewTransaction(Deposit, dec(40))
	w, _ := NewTransaction(Withdrawal, dec(40))
	assert.True(t, d.Signed().Equal(dec(40)))
	assert.True(t, w.Signed().Equal(dec(-40)))
}

func TestInvalidAmountCarriesValue(t *testing.T) {
	_, err := NewTransaction(Deposit, dec(-7))
	var amountErr *AmountError
	require.True(t, errors.As(err, &amountErr))
	assert.True(t, amountErr.Amount.Equal(dec(-7)))
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("Saque")
	require.NoError(t, err)
	assert.Equal(t, Withdrawal, k)

	_, err = ParseKind("saque")
	assert.ErrorIs(t, err, ErrInvalidKind)
}

func TestHistoryFilters(t *testing.T) {
	day1 := time.Date(2024, 1, 1, 9, 0, 0, 0, time.Local)
	day2 := day1.AddDate(0, 0, 1)
	h := NewHistory(
		Entry{ID: 1, Kind: Deposit, Amount: dec(10), Timestamp: day1},
		Entry{ID: 2, Kind: Withdrawal, Amount: dec(5), Timestamp: day1.Add(time.Hour)},
		Entry{ID: 3, Kind: Deposit, Amount: dec(20), Timestamp: day2},
		Entry{ID: 4, Kind: Withdrawal, Amount: dec(1), Timestamp: day2.Add(23 * time.Hour)},
		Entry{ID: 5, Kind: Deposit, Amount: dec(3), Timestamp: day1.Add(2 * time.Hour)},
	)

	ids := func(seq func(func(Entry) bool)) []int64 {
		var out []int64
		for e := range seq {
			out = append(out, e.ID)
		}
		return out
	}

	assert.Equal(t, []int64{1, 2, 5}, ids(h.EntriesOnDate(day1)))
	assert.Equal(t, []int64{3}, ids(h.EntriesOnDate(day2)), "23:00 on day2 falls on the next day")
	assert.Equal(t, []int64{1, 3, 5}, ids(h.EntriesOfKind(Deposit)))
	assert.Equal(t, []int64{2, 4}, ids(h.EntriesOfKind(Withdrawal)))

	t.Run("sequences are restartable", func(t *testing.T) {
		seq := h.EntriesOfKind(Deposit)
		assert.Equal(t, ids(seq), ids(seq))
	})

	t.Run("early stop", func(t *testing.T) {
		n := 0
		for range h.All() {
			n++
			if n == 2 {
				break
			}
		}
		assert.Equal(t, 2, n)
	})

	assert.Equal(t, 5, h.Count())
	assert.Equal(t, 2, h.CountOfKind(Withdrawal))
	assert.False(t, h.IsEmpty())
	assert.True(t, NewHistory().IsEmpty())
}

func TestDepositRejectsNonPositiveAmounts(t *testing.T) {
	now := fixedNow
	_, a := newTestAccount(t, testRules(&now))

	for _, amount := range []decimal.Decimal{decimal.Zero, dec(-1), decimal.RequireFromString("-0.01")} {
		_, err := a.Deposit(amount)
		assert.ErrorIs(t, err, ErrInvalidAmount)
		assert.True(t, a.Balance().IsZero())
	}
	assert.True(t, a.History().IsEmpty())
}

func TestWithdrawRules(t *testing.T) {
	tests := []struct {
		name    string
		deposit int64
		amount  int64
		wantErr error
	}{
		{"insufficient funds within ceiling", 100, 200, ErrInsufficientFunds},
		{"insufficient funds checked before ceiling", 100, 900, ErrInsufficientFunds},
		{"above ceiling with funds", 1000, 501, ErrWithdrawalLimitExceeded},
		{"at ceiling", 1000, 500, nil},
		{"negative amount", 1000, -10, ErrInvalidAmount},
		{"zero amount", 1000, 0, ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := fixedNow
			_, a := newTestAccount(t, testRules(&now))
			_, err := a.Deposit(dec(tt.deposit))
			require.NoError(t, err)

			_, err = a.Withdraw(dec(tt.amount))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.True(t, a.Balance().Equal(dec(tt.deposit)))
				assert.Equal(t, 1, a.History().Count())
				return
			}
			require.NoError(t, err)
			assert.True(t, a.Balance().Equal(dec(tt.deposit-tt.amount)))
			assertBalanceInvariant(t, a)
		})
	}
}

func TestWithdrawCountIsLifetimeByDefault(t *testing.T) {
	now := fixedNow
	_, a := newTestAccount(t, testRules(&now))
	_, err := a.Deposit(dec(1000))
	require.NoError(t, err)

	for i := 0; i < DefaultMaxWithdrawals; i++ {
		now = now.AddDate(0, 0, 1)
		_, err := a.Withdraw(dec(10))
		require.NoError(t, err)
	}

	now = now.AddDate(0, 0, 1)
	_, err = a.Withdraw(dec(10))
	require.ErrorIs(t, err, ErrWithdrawalCountExceeded)

	var limitErr *LimitError
	require.True(t, errors.As(err, &limitErr))
	assert.Equal(t, DefaultMaxWithdrawals, limitErr.Cap)
	assert.True(t, a.Balance().Equal(dec(970)))
}

func TestWithdrawCountDaily(t *testing.T) {
	now := fixedNow
	rules := testRules(&now)
	rules.WithdrawalCountDaily = true
	_, a := newTestAccount(t, rules)
	_, err := a.Deposit(dec(1000))
	require.NoError(t, err)

	for i := 0; i < DefaultMaxWithdrawals; i++ {
		_, err := a.Withdraw(dec(10))
		require.NoError(t, err)
	}
	_, err = a.Withdraw(dec(10))
	require.ErrorIs(t, err, ErrWithdrawalCountExceeded)

	now = now.AddDate(0, 0, 1)
	_, err = a.Withdraw(dec(10))
	assert.NoError(t, err)
}

func TestWithdrawValidationOrder(t *testing.T) {
	now := fixedNow
	rules := testRules(&now)
	rules.MaxWithdrawals = 0
	_, a := newTestAccount(t, rules)
	_, err := a.Deposit(dec(1000))
	require.NoError(t, err)

	_, err = a.Withdraw(dec(2000))
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	_, err = a.Withdraw(dec(600))
	assert.ErrorIs(t, err, ErrWithdrawalLimitExceeded)

	_, err = a.Withdraw(dec(100))
	assert.ErrorIs(t, err, ErrWithdrawalCountExceeded)

	_, err = a.Withdraw(dec(-1))
	assert.ErrorIs(t, err, ErrWithdrawalCountExceeded, "count is checked before the amount sign")
}

func TestStatement(t *testing.T) {
	now := fixedNow
	_, a := newTestAccount(t, testRules(&now))

	_, err := a.Deposit(dec(1000))
	require.NoError(t, err)
	_, err = a.Withdraw(dec(300))
	require.NoError(t, err)
	_, err = a.Deposit(dec(50))
	require.NoError(t, err)

	st := a.Statement()
	assert.True(t, st.Balance.Equal(dec(750)))
	require.Len(t, st.Entries, 3)

	want := []struct {
		kind   Kind
		amount int64
	}{{Deposit, 1000}, {Withdrawal, 300}, {Deposit, 50}}
	for i, w := range want {
		assert.Equal(t, w.kind, st.Entries[i].Kind)
		assert.True(t, st.Entries[i].Amount.Equal(dec(w.amount)))
		assert.True(t, fixedNow.Equal(st.Entries[i].Timestamp))
	}

	st.Entries[0].Amount = dec(1)
	assert.True(t, a.Statement().Entries[0].Amount.Equal(dec(1000)), "statement is a copy")
	assertBalanceInvariant(t, a)
}

func TestRestoreAccountReplaysHistory(t *testing.T) {
	entries := []Entry{
		{ID: 1, Kind: Deposit, Amount: dec(100), Timestamp: fixedNow},
		{ID: 2, Kind: Withdrawal, Amount: dec(30), Timestamp: fixedNow},
	}
	a := RestoreAccount(9, "4", BranchCode, dec(10), dec(500), 3, entries)
	assert.True(t, a.Balance().Equal(dec(80)))
	assert.Equal(t, 2, a.History().Count())
	assert.NoError(t, a.Verify())
}

func TestIDCodeValidation(t *testing.T) {
	for _, code := range []string{"", "1234567890", "123456789012", "1234567890a", "123.456.789"} {
		_, err := NewCustomer("X", "01-01-2000", code, "Y", DefaultRules())
		assert.ErrorIs(t, err, ErrInvalidIDCode, code)
	}
}

func TestAddAccountRejectsDuplicates(t *testing.T) {
	c, a := newTestAccount(t, DefaultRules())
	assert.Same(t, c, a.Owner())

	err := c.AddAccount(NewAccount("1", DefaultRules()))
	assert.ErrorIs(t, err, ErrDuplicateAccount)
	assert.Len(t, c.Accounts(), 1)

	require.NoError(t, c.AddAccount(NewAccount("2", DefaultRules())))
	assert.Equal(t, "1", c.PrimaryAccount().Number)
	assert.Equal(t, "2", c.Account("2").Number)
	assert.Nil(t, c.Account("3"))
}

func TestApplyTransactionDispatch(t *testing.T) {
	now := fixedNow
	c, a := newTestAccount(t, testRules(&now))

	dep, _ := NewTransaction(Deposit, dec(200))
	e, err := c.ApplyTransaction(a, dep)
	require.NoError(t, err)
	assert.Equal(t, Deposit, e.Kind)

	wd, _ := NewTransaction(Withdrawal, dec(50))
	e, err = c.ApplyTransaction(a, wd)
	require.NoError(t, err)
	assert.Equal(t, Withdrawal, e.Kind)

	assert.Equal(t, 2, a.History().Count(), "entries are recorded once")
	assert.True(t, a.Balance().Equal(dec(150)))
}

func TestApplyTransactionForeignAccount(t *testing.T) {
	c, _ := newTestAccount(t, DefaultRules())
	other := NewAccount("99", DefaultRules())
	dep, _ := NewTransaction(Deposit, dec(1))
	_, err := c.ApplyTransaction(other, dep)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestCustomerDailyCap(t *testing.T) {
	now := fixedNow
	rules := testRules(&now)
	rules.CustomerDailyCap = LegacyCustomerDailyCap
	c, a := newTestAccount(t, rules)
	second := NewAccount("2", rules)
	require.NoError(t, c.AddAccount(second))

	dep, _ := NewTransaction(Deposit, dec(10))
	_, err := c.ApplyTransaction(a, dep)
	require.NoError(t, err)
	_, err = c.ApplyTransaction(second, dep)
	require.NoError(t, err)

	_, err = c.ApplyTransaction(a, dep)
	require.ErrorIs(t, err, ErrTransactionCapExceeded)
	assert.Equal(t, 2, c.DailyTransactionCount())

	now = now.AddDate(0, 0, 1)
	assert.Equal(t, 0, c.DailyTransactionCount())
	_, err = c.ApplyTransaction(a, dep)
	assert.NoError(t, err)
}

func TestAccountDailyCapIsCheckedFirst(t *testing.T) {
	now := fixedNow
	rules := testRules(&now)
	rules.AccountDailyCap = 1
	_, a := newTestAccount(t, rules)

	_, err := a.Deposit(dec(100))
	require.NoError(t, err)

	_, err = a.Deposit(dec(-1))
	assert.ErrorIs(t, err, ErrTransactionCapExceeded)
	_, err = a.Withdraw(dec(5000))
	assert.ErrorIs(t, err, ErrTransactionCapExceeded)
}

func TestErrorKind(t *testing.T) {
	_, err := NewTransaction(Deposit, decimal.Zero)
	assert.Equal(t, "InvalidAmount", ErrorKind(err))
	assert.Equal(t, "CustomerNotFound", ErrorKind(ErrCustomerNotFound))
	assert.Equal(t, "Internal", ErrorKind(errors.New("disk full")))
	assert.Equal(t, "", ErrorKind(nil))
	assert.True(t, IsRejection(err))
	assert.False(t, IsRejection(errors.New("disk full")))
}
