package embedding

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
)

const (
	currentKey    = "embedding:current"
	versionPrefix = "embedding:v:"
)

// BadgerStore is a Badger-backed VersionStore. Vectors are written
// under per-version keys first; the current pointer is swapped in a
// final transaction, so readers that resolve the pointer before
// iterating never observe a partially written version.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens (or creates) a version store at path.
func NewBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open embedding store: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// Publish writes every vector for the version and then swaps the
// current pointer.
func (s *BadgerStore) Publish(ctx context.Context, version int64, vectors map[string][]float32) error {
	batch := s.db.NewWriteBatch()
	defer batch.Cancel()
	for nodeID, vector := range vectors {
		payload, err := json.Marshal(vector)
		if err != nil {
			return fmt.Errorf("encode vector for %q: %w", nodeID, err)
		}
		if err := batch.Set(vectorKey(version, nodeID), payload); err != nil {
			return fmt.Errorf("stage vector for %q: %w", nodeID, err)
		}
	}
	if err := batch.Flush(); err != nil {
		return fmt.Errorf("write version %d: %w", version, err)
	}

	// The pointer swap is the publish point.
	pointer := make([]byte, 8)
	binary.BigEndian.PutUint64(pointer, uint64(version))
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(currentKey), pointer)
	})
	if err != nil {
		return fmt.Errorf("publish version %d: %w", version, err)
	}
	return nil
}

// Current returns the published version pointer.
func (s *BadgerStore) Current(ctx context.Context) (int64, error) {
	var version int64
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(currentKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) != 8 {
				return fmt.Errorf("malformed version pointer")
			}
			version = int64(binary.BigEndian.Uint64(val))
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, ErrNoVersion
	}
	if err != nil {
		return 0, err
	}
	return version, nil
}

// Vectors loads the complete vector set for a version.
func (s *BadgerStore) Vectors(ctx context.Context, version int64) (map[string][]float32, error) {
	prefix := []byte(fmt.Sprintf("%s%d:", versionPrefix, version))
	out := make(map[string][]float32)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			nodeID := string(item.Key()[len(prefix):])
			err := item.Value(func(val []byte) error {
				var vector []float32
				if err := json.Unmarshal(val, &vector); err != nil {
					return fmt.Errorf("decode vector for %q: %w", nodeID, err)
				}
				out[nodeID] = vector
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNoVersion
	}
	return out, nil
}

// Close releases the store database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func vectorKey(version int64, nodeID string) []byte {
	return []byte(fmt.Sprintf("%s%d:%s", versionPrefix, version, nodeID))
}
