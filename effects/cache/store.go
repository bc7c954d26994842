package cache

import (
	"sync"

	ristretto "github.com/dgraph-io/ristretto/v2"
)

type inMemStore struct {
	*sync.Map
}

func (s inMemStore) Get(key string) (any, bool, error) {
	v, ok := s.Map.Load(key)
	return v, ok, nil
}

func (s inMemStore) Set(key string, value any) error {
	s.Map.Store(key, value)
	return nil
}

func (s inMemStore) Delete(key string) error {
	s.Map.Delete(key)
	return nil
}

// NewInMemoryStore returns an unbounded store without expiry.
func NewInMemoryStore() Store {
	return inMemStore{Map: &sync.Map{}}
}

// RistrettoConfig sizes a ristretto-backed store.
type RistrettoConfig struct {
	NumCounters int64 // keys tracked for admission, ~10x the expected item count
	MaxCost     int64
	BufferItems int64
	ItemCost    int64 // cost charged per Set
}

// DefaultRistrettoConfig tracks up to 1M keys within 64MiB.
func DefaultRistrettoConfig() RistrettoConfig {
	return RistrettoConfig{
		NumCounters: 1e6,
		MaxCost:     1 << 26,
		BufferItems: 64,
		ItemCost:    1 << 10,
	}
}

// NewRistrettoStore returns a bounded store. Admission may reject a Set, in
// which case the next Get misses, which the cache contract allows.
func NewRistrettoStore(cfg RistrettoConfig) (Store, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, any]{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
	})
	if err != nil {
		return nil, err
	}
	cost := cfg.ItemCost
	if cost <= 0 {
		cost = 1
	}
	return ristrettoStore{Cache: c, cost: cost}, nil
}

type ristrettoStore struct {
	*ristretto.Cache[string, any]
	cost int64
}

func (r ristrettoStore) Get(key string) (any, bool, error) {
	v, ok := r.Cache.Get(key)
	return v, ok, nil
}

func (r ristrettoStore) Set(key string, value any) error {
	r.Cache.Set(key, value, r.cost)
	// make the write visible to the next Get
	r.Cache.Wait()
	return nil
}

func (r ristrettoStore) Delete(key string) error {
	r.Cache.Del(key)
	return nil
}
