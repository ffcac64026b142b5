package bank

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Domain errors. They are returned to the caller as-is (or wrapped) and never
// terminate the process; the caller decides how to present them.
var (
	ErrInvalidAmount           = errors.New("amount must be greater than zero")
	ErrInvalidKind             = errors.New("unknown transaction kind")
	ErrInsufficientFunds       = errors.New("insufficient funds")
	ErrWithdrawalLimitExceeded = errors.New("withdrawal exceeds the per-operation ceiling")
	ErrWithdrawalCountExceeded = errors.New("maximum number of withdrawals reached")
	ErrTransactionCapExceeded  = errors.New("daily transaction cap reached")
	ErrCustomerNotFound        = errors.New("customer not found")
	ErrAccountNotFound         = errors.New("account not found")
	ErrDuplicateCustomer       = errors.New("customer with this identification code already exists")
	ErrDuplicateAccount        = errors.New("account number already registered for customer")
	ErrConstraintViolation     = errors.New("constraint violation")
	ErrInvalidIDCode           = errors.New("identification code must be exactly 11 digits")
	ErrBalanceMismatch         = errors.New("balance does not match transaction history")
)

// AmountError carries the amount that was rejected and, when relevant, the
// bound it was checked against (balance or ceiling).
type AmountError struct {
	Err    error
	Amount decimal.Decimal
	Bound  decimal.Decimal
}

func (e *AmountError) Error() string {
	if e.Bound.IsZero() && errors.Is(e.Err, ErrInvalidAmount) {
		return fmt.Sprintf("%v: %s", e.Err, e.Amount)
	}
	return fmt.Sprintf("%v: amount %s, limit %s", e.Err, e.Amount, e.Bound)
}

func (e *AmountError) Unwrap() error { return e.Err }

// LimitError carries the count that reached a configured cap.
type LimitError struct {
	Err   error
	Count int
	Cap   int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("%v: %d of %d", e.Err, e.Count, e.Cap)
}

func (e *LimitError) Unwrap() error { return e.Err }

var errorKinds = []struct {
	err  error
	name string
}{
	{ErrInvalidAmount, "InvalidAmount"},
	{ErrInvalidKind, "InvalidKind"},
	{ErrInsufficientFunds, "InsufficientFunds"},
	{ErrWithdrawalLimitExceeded, "WithdrawalLimitExceeded"},
	{ErrWithdrawalCountExceeded, "WithdrawalCountExceeded"},
	{ErrTransactionCapExceeded, "TransactionCapExceeded"},
	{ErrCustomerNotFound, "CustomerNotFound"},
	{ErrAccountNotFound, "AccountNotFound"},
	{ErrDuplicateCustomer, "DuplicateCustomer"},
	{ErrDuplicateAccount, "DuplicateAccount"},
	{ErrConstraintViolation, "ConstraintViolation"},
	{ErrInvalidIDCode, "InvalidIDCode"},
	{ErrBalanceMismatch, "BalanceMismatch"},
}

// ErrorKind returns the taxonomy name of a domain error, "" for nil and
// "Internal" for anything outside the taxonomy.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "Internal"
}

// IsRejection reports whether err is a business-rule rejection rather than
// an infrastructure failure.
func IsRejection(err error) bool {
	kind := ErrorKind(err)
	return kind != "" && kind != "Internal" && kind != "BalanceMismatch"
}
