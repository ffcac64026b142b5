package beancount

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default ledger account names.
const (
	DefaultCashAccount       = "Assets:Bank:{branch}:{number}"
	DefaultDepositAccount    = "Equity:Deposits"
	DefaultWithdrawalAccount = "Expenses:Withdrawals"
)

// AccountMapping names the ledger accounts a bank entry posts to. The cash
// account may reference {branch} and {number}.
type AccountMapping struct {
	Cash        string `yaml:"cash"`
	Deposits    string `yaml:"deposits"`
	Withdrawals string `yaml:"withdrawals"`
}

// Mapper maps bank accounts and entry kinds to Beancount account names.
type Mapper struct {
	mapping AccountMapping
}

// DefaultMapper returns a Mapper using the default account names.
func DefaultMapper() *Mapper {
	return &Mapper{mapping: AccountMapping{
		Cash:        DefaultCashAccount,
		Deposits:    DefaultDepositAccount,
		Withdrawals: DefaultWithdrawalAccount,
	}}
}

// NewMapper creates a new Mapper from a YAML configuration file. Names missing
// from the file keep their defaults.
func NewMapper(configPath string) (*Mapper, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config struct {
		Accounts AccountMapping `yaml:"accounts"`
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	mapper := DefaultMapper()
	if config.Accounts.Cash != "" {
		mapper.mapping.Cash = config.Accounts.Cash
	}
	if config.Accounts.Deposits != "" {
		mapper.mapping.Deposits = config.Accounts.Deposits
	}
	if config.Accounts.Withdrawals != "" {
		mapper.mapping.Withdrawals = config.Accounts.Withdrawals
	}
	return mapper, nil
}

// CashAccount returns the asset account for a bank account.
func (m *Mapper) CashAccount(branch, number string) string {
	r := strings.NewReplacer("{branch}", branch, "{number}", number)
	return sanitizeAccountName(r.Replace(m.mapping.Cash))
}

// DepositAccount returns the counter account of deposits.
func (m *Mapper) DepositAccount() string {
	return m.mapping.Deposits
}

// WithdrawalAccount returns the counter account of withdrawals.
func (m *Mapper) WithdrawalAccount() string {
	return m.mapping.Withdrawals
}

func sanitizeAccountName(name string) string {
	// Remove spaces for Beancount account names
	return strings.ReplaceAll(name, " ", "")
}
