package boltstore

import (
	"fmt"
	"iter"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	bolt "go.etcd.io/bbolt"

	"github.com/Cleytonsamurai/sistema-bancario/pkg/bank"
)

// customerPageSize bounds how many customer ids Customers reads per
// read transaction.
const customerPageSize = 50

type customerRecord struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	BirthDate string `json:"birth_date"`
	IDCode    string `json:"id_code"`
	Address   string `json:"address"`
}

type accountRecord struct {
	ID                int64           `json:"id"`
	Number            string          `json:"number"`
	Branch            string          `json:"branch"`
	OpeningBalance    decimal.Decimal `json:"opening_balance"`
	Balance           decimal.Decimal `json:"balance"`
	WithdrawalCeiling decimal.Decimal `json:"withdrawal_ceiling"`
	MaxWithdrawals    int             `json:"max_withdrawals"`
	CustomerID        int64           `json:"customer_id"`
}

type entryRecord struct {
	ID        int64           `json:"id"`
	Kind      string          `json:"kind"`
	Amount    decimal.Decimal `json:"amount"`
	Timestamp string          `json:"timestamp"` // DD-MM-YYYY HH:MM:SS
	AccountID int64           `json:"account_id"`
}

// FindCustomerByIdentifier returns the customer with its accounts and
// histories. Returns nil, nil if no such customer exists.
func (s *Store) FindCustomerByIdentifier(id int64) (*bank.Customer, error) {
	var c *bank.Customer
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		c, err = s.loadCustomer(tx, id)
		return err
	})
	return c, err
}

// FindCustomerByIDCode looks a customer up by national identification code.
// Returns nil, nil if no such customer exists.
func (s *Store) FindCustomerByIDCode(code string) (*bank.Customer, error) {
	var c *bank.Customer
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket([]byte(BucketCustomerCodes)).Get([]byte(code))
		if raw == nil {
			return nil
		}
		var err error
		c, err = s.loadCustomer(tx, btoi(raw))
		return err
	})
	return c, err
}

// FindAccountForCustomer returns the customer's first account with its owner
// attached. Returns nil, nil if the customer or the account does not exist.
func (s *Store) FindAccountForCustomer(customerID int64) (*bank.Account, error) {
	c, err := s.FindCustomerByIdentifier(customerID)
	if err != nil || c == nil {
		return nil, err
	}
	return c.PrimaryAccount(), nil
}

// Customers yields every customer ordered by identifier. No read transaction
// is held while the caller consumes a customer.
func (s *Store) Customers() iter.Seq2[*bank.Customer, error] {
	return func(yield func(*bank.Customer, error) bool) {
		var after int64
		for {
			var ids []int64
			err := s.db.View(func(tx *bolt.Tx) error {
				cur := tx.Bucket([]byte(BucketCustomers)).Cursor()
				for k, _ := cur.Seek(itob(after + 1)); k != nil && len(ids) < customerPageSize; k, _ = cur.Next() {
					ids = append(ids, btoi(k))
				}
				return nil
			})
			if err != nil {
				yield(nil, fmt.Errorf("failed to list customers: %w", err))
				return
			}

			for _, id := range ids {
				after = id
				c, err := s.FindCustomerByIdentifier(id)
				if err == nil && c == nil {
					// Deleted between pages.
					continue
				}
				if !yield(c, err) || err != nil {
					return
				}
			}
			if len(ids) < customerPageSize {
				return
			}
		}
	}
}

func (s *Store) loadCustomer(tx *bolt.Tx, id int64) (*bank.Customer, error) {
	var rec customerRecord
	ok, err := get(tx.Bucket([]byte(BucketCustomers)), id, &rec)
	if err != nil || !ok {
		return nil, err
	}

	c := bank.RestoreCustomer(rec.ID, rec.Name, rec.BirthDate, rec.IDCode, rec.Address, s.rules)

	accounts, err := customerAccounts(tx, id)
	if err != nil {
		return nil, err
	}
	for _, ar := range accounts {
		entries, err := accountEntries(tx, ar.ID)
		if err != nil {
			return nil, err
		}
		a := bank.RestoreAccount(ar.ID, ar.Number, ar.Branch, ar.OpeningBalance, ar.WithdrawalCeiling, ar.MaxWithdrawals, entries)
		if !a.Balance().Equal(ar.Balance) {
			return nil, fmt.Errorf("account %s: stored balance %s, replayed %s: %w",
				ar.Number, ar.Balance, a.Balance(), bank.ErrBalanceMismatch)
		}
		if err := c.AddAccount(a); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// customerAccounts returns the customer's accounts in id order.
func customerAccounts(tx *bolt.Tx, customerID int64) ([]accountRecord, error) {
	var out []accountRecord
	err := tx.Bucket([]byte(BucketAccounts)).ForEach(func(k, v []byte) error {
		var rec accountRecord
		if err := unmarshal(v, &rec); err != nil {
			return err
		}
		if rec.CustomerID == customerID {
			out = append(out, rec)
		}
		return nil
	})
	return out, err
}

func accountEntries(tx *bolt.Tx, accountID int64) ([]bank.Entry, error) {
	b := tx.Bucket([]byte(BucketTransactions)).Bucket(itob(accountID))
	if b == nil {
		return nil, nil
	}

	var out []bank.Entry
	err := b.ForEach(func(k, v []byte) error {
		var rec entryRecord
		if err := unmarshal(v, &rec); err != nil {
			return err
		}
		kind, err := bank.ParseKind(rec.Kind)
		if err != nil {
			return err
		}
		ts, err := time.ParseInLocation(bank.TimestampLayout, rec.Timestamp, time.Local)
		if err != nil {
			return fmt.Errorf("failed to parse timestamp %q: %w", rec.Timestamp, err)
		}
		out = append(out, bank.Entry{
			ID:        rec.ID,
			AccountID: accountID,
			Kind:      kind,
			Amount:    rec.Amount,
			Timestamp: ts,
		})
		return nil
	})
	return out, err
}

// InsertCustomer stores c and assigns its identifier.
func (s *Store) InsertCustomer(c *bank.Customer) error {
	if err := bank.ValidateIDCode(c.IDCode); err != nil {
		return fmt.Errorf("%w: %v", bank.ErrConstraintViolation, err)
	}

	var id int64
	err := s.db.Update(func(tx *bolt.Tx) error {
		codes := tx.Bucket([]byte(BucketCustomerCodes))
		if codes.Get([]byte(c.IDCode)) != nil {
			return fmt.Errorf("%w: %s", bank.ErrDuplicateCustomer, c.IDCode)
		}

		customers := tx.Bucket([]byte(BucketCustomers))
		var err error
		if id, err = nextID(customers); err != nil {
			return err
		}
		rec := customerRecord{
			ID:        id,
			Name:      c.Name,
			BirthDate: c.BirthDate,
			IDCode:    c.IDCode,
			Address:   c.Address,
		}
		if err := put(customers, id, rec); err != nil {
			return err
		}
		return codes.Put([]byte(c.IDCode), itob(id))
	})
	if err != nil {
		return fmt.Errorf("failed to insert customer: %w", err)
	}

	c.ID = id
	return nil
}

// InsertAccount stores a under the given customer and assigns its identifier.
func (s *Store) InsertAccount(customerID int64, a *bank.Account) error {
	var id int64
	err := s.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket([]byte(BucketCustomers)).Get(itob(customerID)) == nil {
			return fmt.Errorf("%w: customer %d does not exist", bank.ErrConstraintViolation, customerID)
		}
		numbers := tx.Bucket([]byte(BucketAccountNumbers))
		if numbers.Get([]byte(a.Number)) != nil {
			return fmt.Errorf("%w: account number %s already exists", bank.ErrConstraintViolation, a.Number)
		}

		accounts := tx.Bucket([]byte(BucketAccounts))
		var err error
		if id, err = nextID(accounts); err != nil {
			return err
		}
		rec := accountRecord{
			ID:                id,
			Number:            a.Number,
			Branch:            a.Branch,
			OpeningBalance:    a.OpeningBalance(),
			Balance:           a.Balance(),
			WithdrawalCeiling: a.WithdrawalCeiling,
			MaxWithdrawals:    a.MaxWithdrawals,
			CustomerID:        customerID,
		}
		if err := put(accounts, id, rec); err != nil {
			return err
		}
		return numbers.Put([]byte(a.Number), itob(id))
	})
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}

	a.ID = id
	return nil
}

// InsertTransactionEntry records e and the account's resulting balance in
// one update transaction, then stamps the new identifier on the account's
// history.
func (s *Store) InsertTransactionEntry(a *bank.Account, e bank.Entry) (bank.Entry, error) {
	err := s.db.Update(func(tx *bolt.Tx) error {
		accounts := tx.Bucket([]byte(BucketAccounts))
		var rec accountRecord
		ok, err := get(accounts, a.ID, &rec)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("account %d: %w", a.ID, bank.ErrAccountNotFound)
		}

		parent := tx.Bucket([]byte(BucketTransactions))
		if e.ID, err = nextID(parent); err != nil {
			return err
		}
		entries, err := parent.CreateBucketIfNotExists(itob(a.ID))
		if err != nil {
			return fmt.Errorf("failed to create transaction bucket: %w", err)
		}
		if err := put(entries, e.ID, entryRecord{
			ID:        e.ID,
			Kind:      string(e.Kind),
			Amount:    e.Amount,
			Timestamp: e.Timestamp.Format(bank.TimestampLayout),
			AccountID: a.ID,
		}); err != nil {
			return err
		}

		rec.Balance = a.Balance()
		return put(accounts, a.ID, rec)
	})
	if err != nil {
		return bank.Entry{}, fmt.Errorf("failed to insert transaction: %w", err)
	}

	e.AccountID = a.ID
	a.SetLastEntryID(e.ID)
	return e, nil
}

// DeleteCustomerCascade removes the customer's entries, accounts and the
// customer record in one update transaction. It reports whether the customer
// existed.
func (s *Store) DeleteCustomerCascade(customerID int64) (bool, error) {
	var deleted bool
	err := s.db.Update(func(tx *bolt.Tx) error {
		customers := tx.Bucket([]byte(BucketCustomers))
		var rec customerRecord
		ok, err := get(customers, customerID, &rec)
		if err != nil || !ok {
			return err
		}

		accounts, err := customerAccounts(tx, customerID)
		if err != nil {
			return err
		}
		parent := tx.Bucket([]byte(BucketTransactions))
		for _, ar := range accounts {
			if parent.Bucket(itob(ar.ID)) != nil {
				if err := parent.DeleteBucket(itob(ar.ID)); err != nil {
					return fmt.Errorf("failed to delete transactions: %w", err)
				}
			}
			if err := tx.Bucket([]byte(BucketAccounts)).Delete(itob(ar.ID)); err != nil {
				return fmt.Errorf("failed to delete account: %w", err)
			}
			if err := tx.Bucket([]byte(BucketAccountNumbers)).Delete([]byte(ar.Number)); err != nil {
				return fmt.Errorf("failed to delete account number: %w", err)
			}
		}

		if err := tx.Bucket([]byte(BucketCustomerCodes)).Delete([]byte(rec.IDCode)); err != nil {
			return fmt.Errorf("failed to delete customer code: %w", err)
		}
		if err := customers.Delete(itob(customerID)); err != nil {
			return fmt.Errorf("failed to delete customer: %w", err)
		}
		deleted = true
		return nil
	})
	return deleted, err
}

// NextAccountNumber advances and returns the account number sequence.
func (s *Store) NextAccountNumber() (string, error) {
	var next uint64
	err := s.db.Update(func(tx *bolt.Tx) error {
		var err error
		next, err = tx.Bucket([]byte(BucketAccountNumbers)).NextSequence()
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to advance account number sequence: %w", err)
	}
	return strconv.FormatUint(next, 10), nil
}
