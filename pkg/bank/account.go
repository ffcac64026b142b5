package bank

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a checking account owned by a customer.
type Account struct {
	ID                int64
	Number            string
	Branch            string
	WithdrawalCeiling decimal.Decimal
	MaxWithdrawals    int

	opening decimal.Decimal
	balance decimal.Decimal
	history *History
	owner   *Customer
}

// Statement is a read-only view of an account.
type Statement struct {
	AccountID      int64
	AccountNumber  string
	Branch         string
	OpeningBalance decimal.Decimal
	Balance        decimal.Decimal
	Entries        []Entry
}

// NewAccount opens an empty account with the limits taken from rules.
func NewAccount(number string, rules Rules) *Account {
	return &Account{
		Number:            number,
		Branch:            BranchCode,
		WithdrawalCeiling: rules.WithdrawalCeiling,
		MaxWithdrawals:    rules.MaxWithdrawals,
		opening:           rules.InitialBalance,
		balance:           rules.InitialBalance,
		history:           NewHistory(),
	}
}

// RestoreAccount rebuilds a persisted account by replaying entries on top of
// its opening balance.
func RestoreAccount(id int64, number, branch string, opening, ceiling decimal.Decimal, maxWithdrawals int, entries []Entry) *Account {
	a := &Account{
		ID:                id,
		Number:            number,
		Branch:            branch,
		WithdrawalCeiling: ceiling,
		MaxWithdrawals:    maxWithdrawals,
		opening:           opening,
		balance:           opening,
		history:           NewHistory(),
	}
	for _, e := range entries {
		a.history.Append(e)
		a.balance = a.balance.Add(e.Signed())
	}
	return a
}

func (a *Account) Balance() decimal.Decimal        { return a.balance }
func (a *Account) OpeningBalance() decimal.Decimal { return a.opening }
func (a *Account) History() *History               { return a.history }
func (a *Account) Owner() *Customer                { return a.owner }

// Deposit credits amount to the account.
func (a *Account) Deposit(amount decimal.Decimal) (Entry, error) {
	if err := a.checkDailyCap(); err != nil {
		return Entry{}, err
	}
	if !amount.IsPositive() {
		return Entry{}, &AmountError{Err: ErrInvalidAmount, Amount: amount}
	}
	return a.admit(Deposit, amount), nil
}

// Withdraw debits amount from the account. The checks run in a fixed order:
// daily cap, funds, ceiling, withdrawal count, amount.
func (a *Account) Withdraw(amount decimal.Decimal) (Entry, error) {
	if err := a.checkDailyCap(); err != nil {
		return Entry{}, err
	}
	if amount.GreaterThan(a.balance) {
		return Entry{}, &AmountError{Err: ErrInsufficientFunds, Amount: amount, Bound: a.balance}
	}
	if amount.GreaterThan(a.WithdrawalCeiling) {
		return Entry{}, &AmountError{Err: ErrWithdrawalLimitExceeded, Amount: amount, Bound: a.WithdrawalCeiling}
	}
	if n := a.withdrawalCount(); n >= a.MaxWithdrawals {
		return Entry{}, &LimitError{Err: ErrWithdrawalCountExceeded, Count: n, Cap: a.MaxWithdrawals}
	}
	if !amount.IsPositive() {
		return Entry{}, &AmountError{Err: ErrInvalidAmount, Amount: amount}
	}
	return a.admit(Withdrawal, amount), nil
}

// Statement returns the ordered entries and balances.
func (a *Account) Statement() Statement {
	return Statement{
		AccountID:      a.ID,
		AccountNumber:  a.Number,
		Branch:         a.Branch,
		OpeningBalance: a.opening,
		Balance:        a.balance,
		Entries:        a.history.Entries(),
	}
}

// Verify replays the history and checks it against the current balance.
func (a *Account) Verify() error {
	replayed := a.opening
	for e := range a.history.All() {
		replayed = replayed.Add(e.Signed())
	}
	if !replayed.Equal(a.balance) {
		return &AmountError{Err: ErrBalanceMismatch, Amount: a.balance, Bound: replayed}
	}
	return nil
}

func (a *Account) admit(kind Kind, amount decimal.Decimal) Entry {
	e := Entry{
		AccountID: a.ID,
		Kind:      kind,
		Amount:    amount,
		Timestamp: a.rules().now().Truncate(time.Second),
	}
	a.balance = a.balance.Add(e.Signed())
	a.history.Append(e)
	return e
}

// SetLastEntryID stamps the identifier a store assigned to the most recent
// entry.
func (a *Account) SetLastEntryID(id int64) {
	if n := len(a.history.entries); n > 0 {
		a.history.entries[n-1].ID = id
	}
}

func (a *Account) checkDailyCap() error {
	if a.owner == nil {
		return nil
	}
	limit := a.owner.rules.AccountDailyCap
	if n := a.owner.DailyTransactionCount(); n >= limit {
		return &LimitError{Err: ErrTransactionCapExceeded, Count: n, Cap: limit}
	}
	return nil
}

func (a *Account) withdrawalCount() int {
	if !a.rules().WithdrawalCountDaily {
		return a.history.CountOfKind(Withdrawal)
	}
	today := a.rules().now()
	n := 0
	for e := range a.history.EntriesOfKind(Withdrawal) {
		if SameDay(e.Timestamp, today) {
			n++
		}
	}
	return n
}

func (a *Account) rules() Rules {
	if a.owner != nil {
		return a.owner.rules
	}
	return DefaultRules()
}
