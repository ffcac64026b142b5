package boltstore

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/Cleytonsamurai/sistema-bancario/pkg/bank"
)

// Metadata retrieves a metadata value. Returns "" if the key is not set.
func (s *Store) Metadata(key string) (string, error) {
	var value string
	err := s.db.View(func(tx *bolt.Tx) error {
		value = string(tx.Bucket([]byte(BucketMetadata)).Get([]byte(key)))
		return nil
	})
	return value, err
}

// SetMetadata sets a metadata value.
func (s *Store) SetMetadata(key, value string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(BucketMetadata)).Put([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("failed to set metadata: %w", err)
	}
	return nil
}

// Stats retrieves store statistics.
func (s *Store) Stats() (*bank.Stats, error) {
	var stats bank.Stats
	err := s.db.View(func(tx *bolt.Tx) error {
		stats.TotalCustomers = tx.Bucket([]byte(BucketCustomers)).Stats().KeyN
		stats.TotalAccounts = tx.Bucket([]byte(BucketAccounts)).Stats().KeyN

		var lastID int64
		var last entryRecord
		return tx.Bucket([]byte(BucketTransactions)).ForEachBucket(func(k []byte) error {
			b := tx.Bucket([]byte(BucketTransactions)).Bucket(k)
			stats.TotalTransactions += b.Stats().KeyN

			key, v := b.Cursor().Last()
			if key == nil || btoi(key) < lastID {
				return nil
			}
			if err := unmarshal(v, &last); err != nil {
				return err
			}
			lastID = last.ID
			ts, err := time.ParseInLocation(bank.TimestampLayout, last.Timestamp, time.Local)
			if err != nil {
				return fmt.Errorf("failed to parse timestamp %q: %w", last.Timestamp, err)
			}
			stats.LastTransaction = ts
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get statistics: %w", err)
	}
	return &stats, nil
}
