// Package db provides the SQLite persistence gateway for customers, accounts
// and their transaction entries.
package db

// Schema defines the SQL statements to create database tables.
// Amounts and balances are stored as decimal text.
const Schema = `
-- Customers
CREATE TABLE IF NOT EXISTS customers (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    birth_date TEXT NOT NULL,          -- DD-MM-YYYY, free-form
    id_code TEXT NOT NULL UNIQUE CHECK (length(id_code) = 11),
    address TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- Accounts
CREATE TABLE IF NOT EXISTS accounts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    number TEXT NOT NULL UNIQUE,
    branch TEXT NOT NULL DEFAULT '0001',
    opening_balance TEXT NOT NULL,
    balance TEXT NOT NULL,
    withdrawal_ceiling TEXT NOT NULL,
    max_withdrawals INTEGER NOT NULL,
    customer_id INTEGER NOT NULL REFERENCES customers(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_accounts_customer
    ON accounts(customer_id);

-- Transaction entries, append-only
CREATE TABLE IF NOT EXISTS transactions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    kind TEXT NOT NULL CHECK (kind IN ('Deposito', 'Saque')),
    amount TEXT NOT NULL,
    timestamp TEXT NOT NULL,           -- DD-MM-YYYY HH:MM:SS, local time
    account_id INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_transactions_account
    ON transactions(account_id, id);

-- Key-value metadata (sequences, export watermarks)
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// InitializeSchema initializes the database schema.
// It creates all tables if they don't exist.
func InitializeSchema(conn *Connection) error {
	if _, err := conn.Exec(Schema); err != nil {
		return err
	}
	return nil
}
