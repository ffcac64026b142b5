// Package teller exposes the caller-facing banking operations. Each operation
// resolves customers through a Gateway, applies the domain rules of package
// bank and records the outcome with one structured log record.
package teller

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Cleytonsamurai/sistema-bancario/pkg/bank"
)

// Gateway is the persistence contract shared by the SQLite and bbolt stores.
type Gateway interface {
	FindCustomerByIdentifier(id int64) (*bank.Customer, error)
	FindCustomerByIDCode(code string) (*bank.Customer, error)
	FindAccountForCustomer(customerID int64) (*bank.Account, error)
	Customers() iter.Seq2[*bank.Customer, error]

	InsertCustomer(c *bank.Customer) error
	InsertAccount(customerID int64, a *bank.Account) error
	InsertTransactionEntry(a *bank.Account, e bank.Entry) (bank.Entry, error)
	NextAccountNumber() (string, error)
	DeleteCustomerCascade(customerID int64) (bool, error)

	Stats() (*bank.Stats, error)
	Metadata(key string) (string, error)
	SetMetadata(key, value string) error
}

// Teller runs banking operations against a Gateway.
type Teller struct {
	gw     Gateway
	rules  bank.Rules
	logger *slog.Logger
}

// New creates a Teller. A nil logger falls back to slog.Default().
func New(gw Gateway, rules bank.Rules, logger *slog.Logger) *Teller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Teller{gw: gw, rules: rules, logger: logger}
}

// CustomerInput carries the fields needed to register a customer.
type CustomerInput struct {
	Name      string
	BirthDate string // DD-MM-YYYY
	IDCode    string
	Address   string
}

// RegisterCustomer validates and stores a new customer.
func (t *Teller) RegisterCustomer(in CustomerInput) (c *bank.Customer, err error) {
	op := t.begin("register_customer")
	defer func() { op.end(err, customerAttr(c)...) }()

	c, err = bank.NewCustomer(in.Name, in.BirthDate, in.IDCode, in.Address, t.rules)
	if err != nil {
		return nil, err
	}

	existing, err := t.gw.FindCustomerByIDCode(in.IDCode)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", bank.ErrDuplicateCustomer, in.IDCode)
	}

	if err := t.gw.InsertCustomer(c); err != nil {
		return nil, err
	}
	return c, nil
}

// OpenAccount opens a new account for an existing customer. The account
// number is taken from the store's sequence.
func (t *Teller) OpenAccount(customerID int64) (a *bank.Account, err error) {
	op := t.begin("open_account", slog.Int64("customer_id", customerID))
	defer func() { op.end(err, accountAttr(a)...) }()

	c, err := t.findCustomer(customerID)
	if err != nil {
		return nil, err
	}

	number, err := t.gw.NextAccountNumber()
	if err != nil {
		return nil, err
	}
	a = bank.NewAccount(number, t.rules)
	if err := c.AddAccount(a); err != nil {
		return nil, err
	}
	if err := t.gw.InsertAccount(c.ID, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Deposit credits amount to the customer's account. An empty number selects
// the customer's primary account.
func (t *Teller) Deposit(customerID int64, number string, amount decimal.Decimal) (bank.Entry, error) {
	return t.transact("deposit", bank.Deposit, customerID, number, amount)
}

// Withdraw debits amount from the customer's account. An empty number selects
// the customer's primary account.
func (t *Teller) Withdraw(customerID int64, number string, amount decimal.Decimal) (bank.Entry, error) {
	return t.transact("withdraw", bank.Withdrawal, customerID, number, amount)
}

func (t *Teller) transact(name string, kind bank.Kind, customerID int64, number string, amount decimal.Decimal) (e bank.Entry, err error) {
	op := t.begin(name,
		slog.Int64("customer_id", customerID),
		slog.String("amount", amount.String()),
	)
	defer func() {
		op.end(err, slog.Int64("entry_id", e.ID))
	}()

	txn, err := bank.NewTransaction(kind, amount)
	if err != nil {
		return bank.Entry{}, err
	}

	c, a, err := t.account(customerID, number)
	if err != nil {
		return bank.Entry{}, err
	}
	op.attrs = append(op.attrs, slog.String("account", a.Number))

	e, err = c.ApplyTransaction(a, txn)
	if err != nil {
		return bank.Entry{}, err
	}
	return t.gw.InsertTransactionEntry(a, e)
}

// Statement returns the account's statement. An empty number selects the
// customer's primary account.
func (t *Teller) Statement(customerID int64, number string) (st bank.Statement, err error) {
	op := t.begin("statement", slog.Int64("customer_id", customerID))
	defer func() { op.end(err, slog.Int("entries", len(st.Entries))) }()

	_, a, err := t.account(customerID, number)
	if err != nil {
		return bank.Statement{}, err
	}
	return a.Statement(), nil
}

// ListAccounts returns the customer's accounts in creation order.
func (t *Teller) ListAccounts(customerID int64) (accounts []*bank.Account, err error) {
	op := t.begin("list_accounts", slog.Int64("customer_id", customerID))
	defer func() { op.end(err, slog.Int("count", len(accounts))) }()

	c, err := t.findCustomer(customerID)
	if err != nil {
		return nil, err
	}
	return c.Accounts(), nil
}

// ListCustomers returns every customer ordered by identifier.
func (t *Teller) ListCustomers() (customers []*bank.Customer, err error) {
	op := t.begin("list_customers")
	defer func() { op.end(err, slog.Int("count", len(customers))) }()

	for c, err := range t.gw.Customers() {
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, nil
}

// DeleteCustomer removes the customer with its accounts and entries.
func (t *Teller) DeleteCustomer(customerID int64) (err error) {
	op := t.begin("delete_customer", slog.Int64("customer_id", customerID))
	defer func() { op.end(err) }()

	deleted, err := t.gw.DeleteCustomerCascade(customerID)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("customer %d: %w", customerID, bank.ErrCustomerNotFound)
	}
	return nil
}

// LookupCustomer finds a customer by national identification code.
func (t *Teller) LookupCustomer(idCode string) (c *bank.Customer, err error) {
	op := t.begin("lookup_customer")
	defer func() { op.end(err, customerAttr(c)...) }()

	if err := bank.ValidateIDCode(idCode); err != nil {
		return nil, err
	}
	c, err = t.gw.FindCustomerByIDCode(idCode)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("id code %s: %w", idCode, bank.ErrCustomerNotFound)
	}
	return c, nil
}

// Customer returns the customer with the given identifier.
func (t *Teller) Customer(id int64) (c *bank.Customer, err error) {
	op := t.begin("get_customer", slog.Int64("customer_id", id))
	defer func() { op.end(err) }()

	return t.findCustomer(id)
}

// Stats returns store-wide counts.
func (t *Teller) Stats() (stats *bank.Stats, err error) {
	op := t.begin("stats")
	defer func() { op.end(err) }()

	return t.gw.Stats()
}

func (t *Teller) findCustomer(id int64) (*bank.Customer, error) {
	c, err := t.gw.FindCustomerByIdentifier(id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("customer %d: %w", id, bank.ErrCustomerNotFound)
	}
	return c, nil
}

func (t *Teller) account(customerID int64, number string) (*bank.Customer, *bank.Account, error) {
	c, err := t.findCustomer(customerID)
	if err != nil {
		return nil, nil, err
	}

	var a *bank.Account
	if number == "" {
		a = c.PrimaryAccount()
	} else {
		a = c.Account(number)
	}
	if a == nil {
		return nil, nil, fmt.Errorf("customer %d account %q: %w", customerID, number, bank.ErrAccountNotFound)
	}
	return c, a, nil
}

// operation tracks one teller call for its closing log record.
type operation struct {
	logger *slog.Logger
	name   string
	id     string
	start  time.Time
	attrs  []slog.Attr
}

func (t *Teller) begin(name string, attrs ...slog.Attr) *operation {
	op := &operation{
		logger: t.logger,
		name:   name,
		id:     uuid.NewString(),
		start:  time.Now(),
		attrs:  attrs,
	}
	op.logger.Debug("Operation started", "operation", name, "op_id", op.id)
	return op
}

func (op *operation) end(err error, extra ...slog.Attr) {
	attrs := []slog.Attr{
		slog.String("operation", op.name),
		slog.String("op_id", op.id),
		slog.Duration("duration", time.Since(op.start)),
	}
	attrs = append(attrs, op.attrs...)

	level := slog.LevelInfo
	switch {
	case err == nil:
		attrs = append(attrs, slog.String("outcome", "ok"))
		attrs = append(attrs, extra...)
	case bank.IsRejection(err):
		attrs = append(attrs,
			slog.String("outcome", "rejected"),
			slog.String("error_kind", bank.ErrorKind(err)),
			slog.String("error", err.Error()),
		)
		attrs = append(attrs, limitAttrs(err)...)
	default:
		level = slog.LevelError
		attrs = append(attrs,
			slog.String("outcome", "failed"),
			slog.String("error_kind", bank.ErrorKind(err)),
			slog.String("error", err.Error()),
		)
	}

	op.logger.LogAttrs(context.Background(), level, "Operation finished", attrs...)
}

func limitAttrs(err error) []slog.Attr {
	var amountErr *bank.AmountError
	if errors.As(err, &amountErr) {
		return []slog.Attr{
			slog.String("rejected_amount", amountErr.Amount.String()),
			slog.String("bound", amountErr.Bound.String()),
		}
	}
	var limitErr *bank.LimitError
	if errors.As(err, &limitErr) {
		return []slog.Attr{
			slog.Int("count", limitErr.Count),
			slog.Int("cap", limitErr.Cap),
		}
	}
	return nil
}

func customerAttr(c *bank.Customer) []slog.Attr {
	if c == nil {
		return nil
	}
	return []slog.Attr{slog.Int64("customer_id", c.ID)}
}

func accountAttr(a *bank.Account) []slog.Attr {
	if a == nil {
		return nil
	}
	return []slog.Attr{slog.String("account", a.Number)}
}
