package bank

import (
	"fmt"
	"slices"
)

// IDCodeLength is the length of a national identification code.
const IDCodeLength = 11

// Customer owns accounts and mediates transactions on them.
type Customer struct {
	ID        int64
	Name      string
	BirthDate string
	IDCode    string
	Address   string

	accounts []*Account
	rules    Rules
}

// NewCustomer validates the identification code and returns an unsaved
// customer.
func NewCustomer(name, birthDate, idCode, address string, rules Rules) (*Customer, error) {
	if err := ValidateIDCode(idCode); err != nil {
		return nil, err
	}
	return &Customer{
		Name:      name,
		BirthDate: birthDate,
		IDCode:    idCode,
		Address:   address,
		rules:     rules,
	}, nil
}

// RestoreCustomer rebuilds a persisted customer. Accounts are attached with
// AddAccount.
func RestoreCustomer(id int64, name, birthDate, idCode, address string, rules Rules) *Customer {
	return &Customer{
		ID:        id,
		Name:      name,
		BirthDate: birthDate,
		IDCode:    idCode,
		Address:   address,
		rules:     rules,
	}
}

// ValidateIDCode checks that code has exactly 11 ASCII digits.
func ValidateIDCode(code string) error {
	if len(code) != IDCodeLength {
		return fmt.Errorf("%w: got %q", ErrInvalidIDCode, code)
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return fmt.Errorf("%w: got %q", ErrInvalidIDCode, code)
		}
	}
	return nil
}

// Rules returns the rule set the customer's accounts are governed by.
func (c *Customer) Rules() Rules { return c.rules }

// Accounts returns the customer's accounts in creation order.
func (c *Customer) Accounts() []*Account {
	return slices.Clone(c.accounts)
}

// Account returns the account with the given number, or nil.
func (c *Customer) Account(number string) *Account {
	for _, a := range c.accounts {
		if a.Number == number {
			return a
		}
	}
	return nil
}

// PrimaryAccount returns the first account opened, or nil.
func (c *Customer) PrimaryAccount() *Account {
	if len(c.accounts) == 0 {
		return nil
	}
	return c.accounts[0]
}

// AddAccount attaches a to the customer.
func (c *Customer) AddAccount(a *Account) error {
	if c.Account(a.Number) != nil {
		return fmt.Errorf("%w: %s", ErrDuplicateAccount, a.Number)
	}
	a.owner = c
	c.accounts = append(c.accounts, a)
	return nil
}

// DailyTransactionCount counts today's entries across all accounts.
func (c *Customer) DailyTransactionCount() int {
	today := c.rules.now()
	n := 0
	for _, a := range c.accounts {
		n += countSeq(a.history.EntriesOnDate(today))
	}
	return n
}

// ApplyTransaction admits t on a after checking the customer's daily cap.
// The account appends the entry; the returned entry is the one recorded.
func (c *Customer) ApplyTransaction(a *Account, t Transaction) (Entry, error) {
	if n := c.DailyTransactionCount(); n >= c.rules.CustomerDailyCap {
		return Entry{}, &LimitError{Err: ErrTransactionCapExceeded, Count: n, Cap: c.rules.CustomerDailyCap}
	}
	if a == nil || a.owner != c {
		return Entry{}, ErrAccountNotFound
	}

	switch t.Kind() {
	case Deposit:
		return a.Deposit(t.Amount())
	case Withdrawal:
		return a.Withdraw(t.Amount())
	}
	return Entry{}, fmt.Errorf("%w: %q", ErrInvalidKind, t.Kind())
}
