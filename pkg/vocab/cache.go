package vocab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/soundprediction/metalink/pkg/types"
)

const (
	lookupKeyPrefix = "vocab:lookup:"
	conceptsKey     = "vocab:concepts"
)

// Cache wraps a Vocabulary with a Badger-backed lookup cache. The
// knowledge base is read-only reference data, so cached entries only
// expire by TTL.
type Cache struct {
	next Vocabulary
	db   *badger.DB
	ttl  time.Duration
}

// NewCache opens (or creates) a cache at path in front of next.
func NewCache(next Vocabulary, path string, ttl time.Duration) (*Cache, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open vocabulary cache: %w", err)
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Cache{next: next, db: db, ttl: ttl}, nil
}

// Lookup serves from cache when possible, delegating misses.
func (c *Cache) Lookup(ctx context.Context, label string) ([]types.Concept, error) {
	key := []byte(lookupKeyPrefix + Normalize(label))
	if cached, ok := c.read(key); ok {
		return cached, nil
	}
	concepts, err := c.next.Lookup(ctx, label)
	if err != nil {
		return nil, err
	}
	c.write(key, concepts)
	return concepts, nil
}

// Concepts serves the full listing from cache when possible.
func (c *Cache) Concepts(ctx context.Context) ([]types.Concept, error) {
	if cached, ok := c.read([]byte(conceptsKey)); ok {
		return cached, nil
	}
	concepts, err := c.next.Concepts(ctx)
	if err != nil {
		return nil, err
	}
	c.write([]byte(conceptsKey), concepts)
	return concepts, nil
}

func (c *Cache) read(key []byte) ([]types.Concept, bool) {
	var out []types.Concept
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &out)
		})
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			// A corrupt entry is a miss, not a failure.
			_ = c.db.Update(func(txn *badger.Txn) error { return txn.Delete(key) })
		}
		return nil, false
	}
	return out, true
}

func (c *Cache) write(key []byte, concepts []types.Concept) {
	payload, err := json.Marshal(concepts)
	if err != nil {
		return
	}
	_ = c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(key, payload).WithTTL(c.ttl)
		return txn.SetEntry(entry)
	})
}

// Close releases the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}
