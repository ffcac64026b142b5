package beancount

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Cleytonsamurai/sistema-bancario/pkg/bank"
)

// DefaultCurrency is used when a Converter is created without one.
const DefaultCurrency = "BRL"

// Converter converts statement entries to Beancount transactions.
type Converter struct {
	mapper   *Mapper
	currency string
}

// NewConverter creates a new Converter.
func NewConverter(mapper *Mapper, currency string) *Converter {
	if mapper == nil {
		mapper = DefaultMapper()
	}
	if currency == "" {
		currency = DefaultCurrency
	}
	return &Converter{
		mapper:   mapper,
		currency: currency,
	}
}

// ConvertEntry converts one history entry of the statement's account.
// The cash account receives the signed amount and the kind's counter account
// balances it.
func (c *Converter) ConvertEntry(st bank.Statement, e bank.Entry) Transaction {
	cash := c.mapper.CashAccount(st.Branch, st.AccountNumber)

	counter := c.mapper.DepositAccount()
	if e.Kind == bank.Withdrawal {
		counter = c.mapper.WithdrawalAccount()
	}

	amount := e.Signed()
	return Transaction{
		Date:      e.Timestamp.Format("2006-01-02"),
		Narration: string(e.Kind),
		Payee:     fmt.Sprintf("Conta %s/%s", st.Branch, st.AccountNumber),
		Tags:      []string{strings.ToLower(string(e.Kind))},
		Metadata: map[string]string{
			"entry_id": strconv.FormatInt(e.ID, 10),
			"time":     e.Timestamp.Format("15:04:05"),
		},
		Postings: []Posting{
			{Account: cash, Amount: amount, Currency: c.currency},
			{Account: counter, Amount: amount.Neg(), Currency: c.currency},
		},
	}
}

// FormatTransaction formats a Beancount transaction as a string.
func (c *Converter) FormatTransaction(txn Transaction) string {
	var sb strings.Builder

	// Transaction header
	sb.WriteString(txn.Date)
	sb.WriteString(" *")
	if txn.Payee != "" {
		sb.WriteString(fmt.Sprintf(" %q", txn.Payee))
	}
	sb.WriteString(fmt.Sprintf(" %q", txn.Narration))
	for _, tag := range txn.Tags {
		sb.WriteString(" #")
		sb.WriteString(tag)
	}
	for _, link := range txn.Links {
		sb.WriteString(" ^")
		sb.WriteString(link)
	}
	sb.WriteString("\n")

	keys := make([]string, 0, len(txn.Metadata))
	for k := range txn.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf("  %s: %q\n", k, txn.Metadata[k]))
	}

	for _, posting := range txn.Postings {
		sb.WriteString("  ")
		sb.WriteString(posting.Account)

		// Right-align amount (typical Beancount style)
		spaces := max(1, 60-len(posting.Account))
		sb.WriteString(strings.Repeat(" ", spaces))

		sb.WriteString(fmt.Sprintf("%s %s", posting.Amount.StringFixed(2), posting.Currency))

		if posting.Comment != "" {
			sb.WriteString(fmt.Sprintf(" ; %s", posting.Comment))
		}

		sb.WriteString("\n")
	}

	return sb.String()
}
