package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("store: document not found")

// Store is a whole-document get/set/TTL service. All durable state of the
// engine lives behind this interface; documents are read, mutated in memory
// and written back whole.
type Store interface {
	// Get unmarshals the document at key into dest. Returns ErrNotFound
	// when the key is absent or expired.
	Get(ctx context.Context, key string, dest interface{}) error
	// Set marshals value and writes it at key. ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	// Del removes the given keys. Missing keys are not an error.
	Del(ctx context.Context, keys ...string) error
	// Scan returns all keys with the given prefix, without the store's
	// namespace prefix.
	Scan(ctx context.Context, prefix string) ([]string, error)
}
