package expense

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.etcd.io/bbolt"
)

const (
	expensesBucket    = "expenses"
	preferencesBucket = "preferences"
)

// DB defines the interface for database operations
type DB interface {
	// SaveExpense saves an expense to the database
	SaveExpense(expense *Expense) error

	// GetExpense retrieves an expense by ID
	GetExpense(id string) (*Expense, error)

	// ListExpenses returns a user's expenses, newest date first
	ListExpenses(userID string) ([]*Expense, error)

	// DeleteExpense removes an expense from the database
	DeleteExpense(id string) error

	// GetCurrency returns a user's preferred currency, or "" when unset
	GetCurrency(userID string) (string, error)

	// SaveCurrency stores a user's preferred currency
	SaveCurrency(userID, code string) error

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{expensesBucket, preferencesBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// SaveExpense saves an expense to the database
func (b *BoltDB) SaveExpense(expense *Expense) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(expensesBucket))
		data, err := json.Marshal(expense)
		if err != nil {
			return fmt.Errorf("marshaling expense: %w", err)
		}
		return bucket.Put([]byte(expense.ID), data)
	})
}

// GetExpense retrieves an expense by ID
func (b *BoltDB) GetExpense(id string) (*Expense, error) {
	var expense *Expense
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(expensesBucket))
		data := bucket.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return json.Unmarshal(data, &expense)
	})
	if err != nil {
		return nil, err
	}
	return expense, nil
}

// ListExpenses returns every expense owned by userID, newest date first
func (b *BoltDB) ListExpenses(userID string) ([]*Expense, error) {
	expenses := make([]*Expense, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(expensesBucket))
		return bucket.ForEach(func(k, v []byte) error {
			var expense Expense
			if err := json.Unmarshal(v, &expense); err != nil {
				return fmt.Errorf("unmarshaling expense: %w", err)
			}
			if expense.UserID == userID {
				expenses = append(expenses, &expense)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sortNewestFirst(expenses)
	return expenses, nil
}

// sortNewestFirst orders by date, then creation time, both descending.
// Dates are YYYY-MM-DD so they compare lexically.
func sortNewestFirst(expenses []*Expense) {
	slices.SortStableFunc(expenses, func(a, b *Expense) int {
		if c := strings.Compare(b.Date, a.Date); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

// DeleteExpense removes an expense from the database
func (b *BoltDB) DeleteExpense(id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(expensesBucket))
		return bucket.Delete([]byte(id))
	})
}

// GetCurrency returns the preferred currency for userID
func (b *BoltDB) GetCurrency(userID string) (string, error) {
	var code string
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(preferencesBucket))
		code = string(bucket.Get([]byte(userID)))
		return nil
	})
	if err != nil {
		return "", err
	}
	return code, nil
}

// SaveCurrency stores the preferred currency for userID
func (b *BoltDB) SaveCurrency(userID, code string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(preferencesBucket))
		return bucket.Put([]byte(userID), []byte(code))
	})
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}
