// Package boltstore is a bbolt-backed persistence gateway. It stores the same
// records as the SQLite gateway as JSON values keyed by big-endian ids.
package boltstore

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/Cleytonsamurai/sistema-bancario/pkg/bank"
	bolt "go.etcd.io/bbolt"
)

// Bucket names.
const (
	BucketCustomers      = "customers"
	BucketCustomerCodes  = "customer_codes"
	BucketAccounts       = "accounts"
	BucketAccountNumbers = "account_numbers"
	// BucketTransactions holds one nested bucket per account id.
	BucketTransactions = "transactions"
	BucketMetadata     = "metadata"
)

var buckets = []string{
	BucketCustomers,
	BucketCustomerCodes,
	BucketAccounts,
	BucketAccountNumbers,
	BucketTransactions,
	BucketMetadata,
}

// Store represents the bbolt database wrapper.
type Store struct {
	db    *bolt.DB
	rules bank.Rules
}

// Open opens (or creates) the database file and initializes buckets.
// Rehydrated customers are governed by rules.
func Open(dbPath string, rules bank.Rules) (*Store, error) {
	db, err := bolt.Open(dbPath, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range buckets {
			if _, err := tx.CreateBucketIfNotExists([]byte(bucket)); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, rules: rules}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.db.Path()
}

func put(b *bolt.Bucket, key int64, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return b.Put(itob(key), data)
}

// get decodes the value stored under key. It reports false when absent.
func get(b *bolt.Bucket, key int64, value interface{}) (bool, error) {
	data := b.Get(itob(key))
	if data == nil {
		return false, nil
	}
	if err := unmarshal(data, value); err != nil {
		return false, err
	}
	return true, nil
}

func unmarshal(data []byte, value interface{}) error {
	if err := json.Unmarshal(data, value); err != nil {
		return fmt.Errorf("failed to unmarshal value: %w", err)
	}
	return nil
}

func nextID(b *bolt.Bucket) (int64, error) {
	seq, err := b.NextSequence()
	if err != nil {
		return 0, fmt.Errorf("failed to generate ID: %w", err)
	}
	return int64(seq), nil
}

// itob converts an int64 to a byte slice for use as a bbolt key.
func itob(v int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}

func btoi(b []byte) int64 {
	return int64(binary.BigEndian.Uint64(b))
}
