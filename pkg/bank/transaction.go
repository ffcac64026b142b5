package bank

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Kind is the closed set of transaction kinds. The values are the labels
// stored in the transactions table.
type Kind string

const (
	Deposit    Kind = "Deposito"
	Withdrawal Kind = "Saque"
)

// ParseKind maps a stored label back to a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case Deposit, Withdrawal:
		return Kind(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
}

// Transaction is an immutable request to move money in or out of an account.
type Transaction struct {
	kind   Kind
	amount decimal.Decimal
}

// NewTransaction validates kind and amount. Non-positive amounts are never
// constructed.
func NewTransaction(kind Kind, amount decimal.Decimal) (Transaction, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return Transaction{}, err
	}
	if !amount.IsPositive() {
		return Transaction{}, &AmountError{Err: ErrInvalidAmount, Amount: amount}
	}
	return Transaction{kind: kind, amount: amount}, nil
}

func (t Transaction) Kind() Kind              { return t.kind }
func (t Transaction) Amount() decimal.Decimal { return t.amount }

// Signed returns the amount with the sign it applies to a balance.
func (t Transaction) Signed() decimal.Decimal {
	return signed(t.kind, t.amount)
}

// TimestampLayout is the persisted text form of entry timestamps
// (DD-MM-YYYY HH:MM:SS, local time).
const TimestampLayout = "02-01-2006 15:04:05"

// Entry is an admitted transaction as recorded in an account's history.
type Entry struct {
	ID        int64
	AccountID int64
	Kind      Kind
	Amount    decimal.Decimal
	Timestamp time.Time
}

// Signed returns the entry amount with the sign it applied to the balance.
func (e Entry) Signed() decimal.Decimal {
	return signed(e.Kind, e.Amount)
}

func signed(kind Kind, amount decimal.Decimal) decimal.Decimal {
	if kind == Withdrawal {
		return amount.Neg()
	}
	return amount
}
