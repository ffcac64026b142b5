package db

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/Cleytonsamurai/sistema-bancario/pkg/bank"
)

// accountNumberKey holds the last account number handed out. Numbers are
// never reused, even after the account is deleted.
const accountNumberKey = "account_number_seq"

// NextAccountNumber advances and returns the account number sequence.
func (g *Gateway) NextAccountNumber() (string, error) {
	var next int64
	err := g.conn.Transaction(func(tx *sql.Tx) error {
		var current string
		err := tx.QueryRow(`SELECT value FROM metadata WHERE key = ?`, accountNumberKey).Scan(&current)
		if err != nil && err != sql.ErrNoRows {
			return fmt.Errorf("failed to read account number sequence: %w", err)
		}
		if current != "" {
			last, err := strconv.ParseInt(current, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid account number sequence %q: %w", current, err)
			}
			next = last
		}
		next++
		return setMetadata(tx, accountNumberKey, strconv.FormatInt(next, 10))
	})
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(next, 10), nil
}

// Metadata retrieves a metadata value. Returns "" if the key is not set.
func (g *Gateway) Metadata(key string) (string, error) {
	query := `SELECT value FROM metadata WHERE key = ?`

	var value string
	err := g.conn.QueryRow(query, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get metadata: %w", err)
	}

	return value, nil
}

// SetMetadata sets a metadata value.
func (g *Gateway) SetMetadata(key, value string) error {
	return g.conn.Transaction(func(tx *sql.Tx) error {
		return setMetadata(tx, key, value)
	})
}

func setMetadata(tx *sql.Tx, key, value string) error {
	query := `
		INSERT INTO metadata (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`

	if _, err := tx.Exec(query, key, value); err != nil {
		return fmt.Errorf("failed to set metadata: %w", err)
	}
	return nil
}

// Stats retrieves store statistics.
func (g *Gateway) Stats() (*bank.Stats, error) {
	var stats bank.Stats

	err := g.conn.QueryRow(`SELECT COUNT(*) FROM customers`).Scan(&stats.TotalCustomers)
	if err != nil {
		return nil, fmt.Errorf("failed to get customer count: %w", err)
	}

	err = g.conn.QueryRow(`SELECT COUNT(*) FROM accounts`).Scan(&stats.TotalAccounts)
	if err != nil {
		return nil, fmt.Errorf("failed to get account count: %w", err)
	}

	err = g.conn.QueryRow(`SELECT COUNT(*) FROM transactions`).Scan(&stats.TotalTransactions)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction count: %w", err)
	}

	var last sql.NullString
	err = g.conn.QueryRow(`SELECT timestamp FROM transactions ORDER BY id DESC LIMIT 1`).Scan(&last)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get last transaction time: %w", err)
	}
	if last.Valid {
		ts, err := time.ParseInLocation(bank.TimestampLayout, last.String, time.Local)
		if err != nil {
			return nil, fmt.Errorf("failed to parse timestamp %q: %w", last.String, err)
		}
		stats.LastTransaction = ts
	}

	return &stats, nil
}
