// Package webhook receives PayPal webhook notifications and keeps each event
// once, keyed by its event id, in a local bbolt file.
package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	bolt "go.etcd.io/bbolt"
)

// ErrNotFound is returned when an event is not in the inbox.
var ErrNotFound = errors.New("webhook: event not found")

// BucketPayPalEvents holds PayPal events keyed by event id.
const BucketPayPalEvents = "paypal_events"

// Event is a stored webhook notification.
type Event struct {
	ID           string          `json:"id"`
	EventType    string          `json:"event_type"`
	ResourceType string          `json:"resource_type"`
	ResourceID   string          `json:"resource_id,omitempty"`
	Summary      string          `json:"summary"`
	CreateTime   string          `json:"create_time"`
	ReceivedAt   time.Time       `json:"received_at"`
	Raw          json.RawMessage `json:"raw,omitempty"`
}

// Store represents the bbolt database wrapper.
type Store struct {
	db *bolt.DB
}

// Open opens or creates the inbox at dbPath and initializes buckets.
func Open(dbPath string) (*Store, error) {
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(BucketPayPalEvents)); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", BucketPayPalEvents, err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores event unless an event with the same id is already stored.
// It reports whether the event was new.
func (s *Store) Save(event Event) (bool, error) {
	if event.ID == "" {
		return false, errors.New("webhook: event id is required")
	}

	created := false
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketPayPalEvents))
		if b == nil {
			return fmt.Errorf("bucket %s not found", BucketPayPalEvents)
		}

		if b.Get([]byte(event.ID)) != nil {
			return nil
		}

		data, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to marshal event: %w", err)
		}

		created = true
		return b.Put([]byte(event.ID), data)
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

// Get retrieves one event with its raw body.
func (s *Store) Get(id string) (*Event, error) {
	var event Event
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketPayPalEvents))
		if b == nil {
			return fmt.Errorf("bucket %s not found", BucketPayPalEvents)
		}

		data := b.Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}

		return json.Unmarshal(data, &event)
	})
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// List returns every event, newest first, without raw bodies.
func (s *Store) List() ([]Event, error) {
	events := []Event{}

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketPayPalEvents))
		if b == nil {
			return fmt.Errorf("bucket %s not found", BucketPayPalEvents)
		}

		return b.ForEach(func(k, v []byte) error {
			var event Event
			if err := json.Unmarshal(v, &event); err != nil {
				return fmt.Errorf("failed to unmarshal event %s: %w", k, err)
			}
			event.Raw = nil
			events = append(events, event)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(events, func(a, b Event) int {
		return b.ReceivedAt.Compare(a.ReceivedAt)
	})

	return events, nil
}
