// Package beancount exports account statements as Beancount plain-text
// ledgers, one file per month.
package beancount

import "github.com/shopspring/decimal"

// Transaction represents a Beancount transaction.
type Transaction struct {
	Date      string            // YYYY-MM-DD
	Narration string            // Transaction description
	Payee     string            // Payee name (optional)
	Tags      []string          // Tags (e.g., ["saque"])
	Links     []string          // Links (optional)
	Metadata  map[string]string // Metadata key-value pairs
	Postings  []Posting         // Transaction postings
}

// Posting represents a posting in a Beancount transaction.
type Posting struct {
	Account  string          // Account name (e.g., "Assets:Bank:0001:7")
	Amount   decimal.Decimal // Amount (positive for debit, negative for credit)
	Currency string          // Currency code (e.g., "BRL")
	Comment  string          // Posting comment (optional)
}
