// Package store keeps the emulated Akaunting company in a bbolt file.
package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

// ErrNotFound is returned when a record is not found.
var ErrNotFound = errors.New("record not found")

// Bucket names.
const (
	BucketAccounts     = "accounts"
	BucketItems        = "items"
	BucketCategories   = "categories"
	BucketContacts     = "contacts"
	BucketDocuments    = "documents"
	BucketTransactions = "transactions"
)

var buckets = []string{
	BucketAccounts,
	BucketItems,
	BucketCategories,
	BucketContacts,
	BucketDocuments,
	BucketTransactions,
}

// Store represents the bbolt database wrapper.
type Store struct {
	db        *bolt.DB
	companyID int64
}

// New creates a new Store for one company and initializes buckets.
func New(dbPath string, companyID int64) (*Store, error) {
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Initialize buckets.
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

	return &Store{db: db, companyID: companyID}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CompanyID returns the company the store serves.
func (s *Store) CompanyID() int64 {
	return s.companyID
}

// insert assigns the next id of the bucket to the record and stores it.
// check runs inside the write transaction and may reject the record.
func insert[T any](s *Store, bucketName string, record *T, setID func(*T, int64), check func(tx *bolt.Tx) error) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return fmt.Errorf("bucket %s not found", bucketName)
		}

		if check != nil {
			if err := check(tx); err != nil {
				return err
			}
		}

		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		setID(record, int64(seq))

		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to marshal record: %w", err)
		}

		return b.Put(itob(int64(seq)), data)
	})
}

// get loads the record with the given id.
func get[T any](s *Store, bucketName string, id int64) (*T, error) {
	var record T
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return fmt.Errorf("bucket %s not found", bucketName)
		}

		data := b.Get(itob(id))
		if data == nil {
			return ErrNotFound
		}

		return json.Unmarshal(data, &record)
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// list returns the records of a bucket in id order, filtered by keep.
func list[T any](s *Store, bucketName string, keep func(T) bool) ([]T, error) {
	results := []T{}

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return fmt.Errorf("bucket %s not found", bucketName)
		}

		return forEach(b, func(record T) error {
			if keep == nil || keep(record) {
				results = append(results, record)
			}
			return nil
		})
	})

	return results, err
}

// exists reports whether the bucket holds a record with the given id.
func exists(tx *bolt.Tx, bucketName string, id int64) bool {
	b := tx.Bucket([]byte(bucketName))
	return b != nil && b.Get(itob(id)) != nil
}

// forEach decodes every record of b.
func forEach[T any](b *bolt.Bucket, fn func(T) error) error {
	return b.ForEach(func(k, v []byte) error {
		var record T
		if err := json.Unmarshal(v, &record); err != nil {
			return fmt.Errorf("failed to unmarshal record %d: %w", binary.BigEndian.Uint64(k), err)
		}
		return fn(record)
	})
}

// itob converts an int64 to a byte slice for use as a bbolt key.
func itob(v int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}
