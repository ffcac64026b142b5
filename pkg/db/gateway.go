package db

import (
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/Cleytonsamurai/sistema-bancario/pkg/bank"
)

// customerPageSize bounds how many customer rows Customers reads per query.
const customerPageSize = 50

// Gateway maps customers, accounts and entries to SQLite rows.
type Gateway struct {
	conn  *Connection
	rules bank.Rules
}

// NewGateway creates a Gateway. Rehydrated customers are governed by rules.
func NewGateway(conn *Connection, rules bank.Rules) *Gateway {
	return &Gateway{conn: conn, rules: rules}
}

type customerRow struct {
	id        int64
	name      string
	birthDate string
	idCode    string
	address   string
}

type accountRow struct {
	id             int64
	number         string
	branch         string
	opening        decimal.Decimal
	balance        decimal.Decimal
	ceiling        decimal.Decimal
	maxWithdrawals int
}

const customerColumns = `id, name, birth_date, id_code, address`

// FindCustomerByIdentifier returns the customer with its accounts and
// histories. Returns nil, nil if no such customer exists.
func (g *Gateway) FindCustomerByIdentifier(id int64) (*bank.Customer, error) {
	return g.findCustomer(`SELECT `+customerColumns+` FROM customers WHERE id = ?`, id)
}

// FindCustomerByIDCode looks a customer up by national identification code.
// Returns nil, nil if no such customer exists.
func (g *Gateway) FindCustomerByIDCode(code string) (*bank.Customer, error) {
	return g.findCustomer(`SELECT `+customerColumns+` FROM customers WHERE id_code = ?`, code)
}

// FindAccountForCustomer returns the customer's first account with its owner
// attached. Returns nil, nil if the customer or the account does not exist.
func (g *Gateway) FindAccountForCustomer(customerID int64) (*bank.Account, error) {
	c, err := g.FindCustomerByIdentifier(customerID)
	if err != nil || c == nil {
		return nil, err
	}
	return c.PrimaryAccount(), nil
}

func (g *Gateway) findCustomer(query string, arg interface{}) (*bank.Customer, error) {
	var row customerRow
	err := g.conn.QueryRow(query, arg).Scan(&row.id, &row.name, &row.birthDate, &row.idCode, &row.address)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return g.hydrate(row)
}

// Customers yields every customer ordered by identifier. Rows are read in
// pages so no result set stays open while the caller consumes a customer.
func (g *Gateway) Customers() iter.Seq2[*bank.Customer, error] {
	return func(yield func(*bank.Customer, error) bool) {
		var after int64
		for {
			page, err := g.customerPage(after)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, row := range page {
				c, err := g.hydrate(row)
				if !yield(c, err) || err != nil {
					return
				}
				after = row.id
			}
			if len(page) < customerPageSize {
				return
			}
		}
	}
}

func (g *Gateway) customerPage(after int64) ([]customerRow, error) {
	rows, err := g.conn.Query(
		`SELECT `+customerColumns+` FROM customers WHERE id > ? ORDER BY id LIMIT ?`,
		after, customerPageSize,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	var page []customerRow
	for rows.Next() {
		var row customerRow
		if err := rows.Scan(&row.id, &row.name, &row.birthDate, &row.idCode, &row.address); err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		page = append(page, row)
	}
	return page, rows.Err()
}

// hydrate attaches accounts and replayed histories to a customer row.
func (g *Gateway) hydrate(row customerRow) (*bank.Customer, error) {
	c := bank.RestoreCustomer(row.id, row.name, row.birthDate, row.idCode, row.address, g.rules)

	accounts, err := g.accountRows(row.id)
	if err != nil {
		return nil, err
	}

	for _, ar := range accounts {
		entries, err := g.entries(ar.id)
		if err != nil {
			return nil, err
		}
		a := bank.RestoreAccount(ar.id, ar.number, ar.branch, ar.opening, ar.ceiling, ar.maxWithdrawals, entries)
		if !a.Balance().Equal(ar.balance) {
			return nil, fmt.Errorf("account %s: stored balance %s, replayed %s: %w",
				ar.number, ar.balance, a.Balance(), bank.ErrBalanceMismatch)
		}
		if err := c.AddAccount(a); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func (g *Gateway) accountRows(customerID int64) ([]accountRow, error) {
	query := `
		SELECT id, number, branch, opening_balance, balance, withdrawal_ceiling, max_withdrawals
		FROM accounts
		WHERE customer_id = ?
		ORDER BY id
	`

	rows, err := g.conn.Query(query, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get accounts: %w", err)
	}
	defer rows.Close()

	var out []accountRow
	for rows.Next() {
		var ar accountRow
		if err := rows.Scan(
			&ar.id,
			&ar.number,
			&ar.branch,
			&ar.opening,
			&ar.balance,
			&ar.ceiling,
			&ar.maxWithdrawals,
		); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		out = append(out, ar)
	}
	return out, rows.Err()
}

func (g *Gateway) entries(accountID int64) ([]bank.Entry, error) {
	query := `
		SELECT id, kind, amount, timestamp
		FROM transactions
		WHERE account_id = ?
		ORDER BY id
	`

	rows, err := g.conn.Query(query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}
	defer rows.Close()

	var out []bank.Entry
	for rows.Next() {
		var (
			e         bank.Entry
			kind      string
			timestamp string
		)
		if err := rows.Scan(&e.ID, &kind, &e.Amount, &timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if e.Kind, err = bank.ParseKind(kind); err != nil {
			return nil, err
		}
		if e.Timestamp, err = time.ParseInLocation(bank.TimestampLayout, timestamp, time.Local); err != nil {
			return nil, fmt.Errorf("failed to parse timestamp %q: %w", timestamp, err)
		}
		e.AccountID = accountID
		out = append(out, e)
	}
	return out, rows.Err()
}

// InsertCustomer stores c and assigns its identifier.
func (g *Gateway) InsertCustomer(c *bank.Customer) error {
	query := `
		INSERT INTO customers (name, birth_date, id_code, address)
		VALUES (?, ?, ?, ?)
	`

	result, err := g.conn.Exec(query, c.Name, c.BirthDate, c.IDCode, c.Address)
	if err != nil {
		return fmt.Errorf("failed to insert customer: %w", mapConstraint(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get customer id: %w", err)
	}
	c.ID = id
	return nil
}

// InsertAccount stores a under the given customer and assigns its identifier.
func (g *Gateway) InsertAccount(customerID int64, a *bank.Account) error {
	query := `
		INSERT INTO accounts (number, branch, opening_balance, balance, withdrawal_ceiling, max_withdrawals, customer_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := g.conn.Exec(query,
		a.Number,
		a.Branch,
		a.OpeningBalance(),
		a.Balance(),
		a.WithdrawalCeiling,
		a.MaxWithdrawals,
		customerID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", mapConstraint(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get account id: %w", err)
	}
	a.ID = id
	return nil
}

// InsertTransactionEntry records e and the account's resulting balance in
// one transaction, then stamps the new identifier on the account's history.
func (g *Gateway) InsertTransactionEntry(a *bank.Account, e bank.Entry) (bank.Entry, error) {
	err := g.conn.Transaction(func(tx *sql.Tx) error {
		result, err := tx.Exec(
			`INSERT INTO transactions (kind, amount, timestamp, account_id) VALUES (?, ?, ?, ?)`,
			string(e.Kind), e.Amount, e.Timestamp.Format(bank.TimestampLayout), a.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert transaction: %w", mapConstraint(err))
		}
		if e.ID, err = result.LastInsertId(); err != nil {
			return fmt.Errorf("failed to get transaction id: %w", err)
		}

		result, err = tx.Exec(`UPDATE accounts SET balance = ? WHERE id = ?`, a.Balance(), a.ID)
		if err != nil {
			return fmt.Errorf("failed to update balance: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if n != 1 {
			return fmt.Errorf("account %d: %w", a.ID, bank.ErrAccountNotFound)
		}
		return nil
	})
	if err != nil {
		return bank.Entry{}, err
	}

	e.AccountID = a.ID
	a.SetLastEntryID(e.ID)
	return e, nil
}

// DeleteCustomerCascade removes the customer's entries, accounts and the
// customer record atomically. It reports whether the customer existed.
func (g *Gateway) DeleteCustomerCascade(customerID int64) (bool, error) {
	var deleted bool
	err := g.conn.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec(
			`DELETE FROM transactions WHERE account_id IN (SELECT id FROM accounts WHERE customer_id = ?)`,
			customerID,
		); err != nil {
			return fmt.Errorf("failed to delete transactions: %w", err)
		}
		if _, err := tx.Exec(`DELETE FROM accounts WHERE customer_id = ?`, customerID); err != nil {
			return fmt.Errorf("failed to delete accounts: %w", err)
		}

		result, err := tx.Exec(`DELETE FROM customers WHERE id = ?`, customerID)
		if err != nil {
			return fmt.Errorf("failed to delete customer: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		deleted = rows > 0
		return nil
	})
	return deleted, err
}

// mapConstraint translates SQLite constraint failures into domain errors.
func mapConstraint(err error) error {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) || sqliteErr.Code != sqlite3.ErrConstraint {
		return err
	}
	if sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique &&
		strings.Contains(sqliteErr.Error(), "customers.id_code") {
		return fmt.Errorf("%w: %v", bank.ErrDuplicateCustomer, err)
	}
	return fmt.Errorf("%w: %v", bank.ErrConstraintViolation, err)
}
