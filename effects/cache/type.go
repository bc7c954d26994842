package cache

import "fmt"

// Payload is a sealed interface for cache operations.
// Only the payload types of this package (LoadPayload, StorePayload, DeletePayload) implement it.
type Payload interface {
	PartitionKey() string
	payload()
}

// LoadPayload is the payload type for reading a key.
type LoadPayload struct {
	Key string
}

func (p LoadPayload) PartitionKey() string { return p.Key }
func (p LoadPayload) payload()             {}

// StorePayload is the payload type for writing a key.
type StorePayload struct {
	Key   string
	Value any
}

func (p StorePayload) PartitionKey() string { return p.Key }
func (p StorePayload) payload()             {}

// DeletePayload is the payload type for removing a key.
type DeletePayload struct {
	Key string
}

func (p DeletePayload) PartitionKey() string { return p.Key }
func (p DeletePayload) payload()             {}

// Store is the key/value backend behind the cache effect.
// Expiry and eviction, if any, are the store's concern.
type Store interface {
	Get(key string) (value any, ok bool, err error)
	Set(key string, value any) error
	Delete(key string) error
}

func describe(p Payload) string {
	return fmt.Sprintf("%T(%s)", p, p.PartitionKey())
}
