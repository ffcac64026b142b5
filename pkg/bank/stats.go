package bank

import "time"

// Stats summarises the contents of a store.
type Stats struct {
	TotalCustomers    int
	TotalAccounts     int
	TotalTransactions int
	// LastTransaction is zero when no transaction was ever recorded.
	LastTransaction time.Time
}
