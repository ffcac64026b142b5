// Package bank implements the account transaction engine: transaction values,
// append-only histories, accounts and the customers that own them.
package bank

import (
	"time"

	"github.com/shopspring/decimal"
)

// BranchCode is the fixed branch every account is opened in.
const BranchCode = "0001"

// Default rule values.
const (
	DefaultWithdrawalCeiling = 500
	DefaultMaxWithdrawals    = 3
	DefaultCustomerDailyCap  = 10
	DefaultAccountDailyCap   = 10

	// LegacyCustomerDailyCap is the stricter per-customer cap one revision of
	// the console enforced. Set Rules.CustomerDailyCap to it to reproduce that
	// behaviour.
	LegacyCustomerDailyCap = 2
)

// Rules holds the configurable limits of the engine.
//
// CustomerDailyCap is checked by Customer.ApplyTransaction before it
// delegates; AccountDailyCap is checked by the account itself against its
// owner's count. The two caps come from different revisions of the console.
type Rules struct {
	// InitialBalance is the opening balance of newly opened accounts.
	InitialBalance decimal.Decimal
	// WithdrawalCeiling is the maximum amount of a single withdrawal.
	WithdrawalCeiling decimal.Decimal
	// MaxWithdrawals is the number of withdrawals an account admits.
	MaxWithdrawals int
	// WithdrawalCountDaily limits MaxWithdrawals to withdrawals made today.
	// When false every withdrawal ever recorded counts.
	WithdrawalCountDaily bool
	CustomerDailyCap     int
	AccountDailyCap      int
	// Now returns the current local time. Defaults to time.Now.
	Now func() time.Time
}

// DefaultRules returns the rule set observed in the console.
func DefaultRules() Rules {
	return Rules{
		InitialBalance:    decimal.Zero,
		WithdrawalCeiling: decimal.NewFromInt(DefaultWithdrawalCeiling),
		MaxWithdrawals:    DefaultMaxWithdrawals,
		CustomerDailyCap:  DefaultCustomerDailyCap,
		AccountDailyCap:   DefaultAccountDailyCap,
	}
}

func (r Rules) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}
