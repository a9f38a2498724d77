package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// Entity provides generic CRUD operations for a domain type stored under a
// key prefix. Values are JSON documents; each write is one atomic Badger
// transaction.
type Entity[T any] struct {
	store  *Store
	prefix string
}

// NewEntity creates an Entity for type T under the given prefix.
func NewEntity[T any](s *Store, prefix string) *Entity[T] {
	return &Entity[T]{store: s, prefix: prefix}
}

// Create stores a new entity under id.
// Returns ErrAlreadyExists if the id is already taken.
func (e *Entity[T]) Create(ctx context.Context, id string, entity *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("marshal entity: %w", err)
	}

	// Badger retains key slices until commit, so writes use a fresh
	// allocation rather than the pooled read-path buffers.
	key := []byte(e.prefix + id)

	return e.store.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == nil {
			return ErrAlreadyExists
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check existing key: %w", err)
		}
		return txn.Set(key, data)
	})
}

// Put stores an entity under id, overwriting any previous value.
func (e *Entity[T]) Put(ctx context.Context, id string, entity *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("marshal entity: %w", err)
	}

	key := []byte(e.prefix + id)
	return e.store.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}

// Get retrieves an entity by id.
// Returns ErrNotFound if the entity does not exist.
func (e *Entity[T]) Get(ctx context.Context, id string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entity T
	err := e.store.db.View(func(txn *badger.Txn) error {
		key := buildKey(e.prefix, id)
		defer releaseKey(key)

		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get key: %w", err)
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entity)
		})
	})
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

// Delete removes an entity by id. Deleting a missing id is not an error.
func (e *Entity[T]) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := []byte(e.prefix + id)
	return e.store.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

// All returns every entity under the prefix, in key order.
func (e *Entity[T]) All(ctx context.Context) ([]*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []*T
	err := e.store.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(e.prefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var entity T
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entity)
			})
			if err != nil {
				return fmt.Errorf("unmarshal entity %q: %w", it.Item().Key(), err)
			}
			out = append(out, &entity)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of entities under the prefix.
func (e *Entity[T]) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	count := 0
	err := e.store.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(e.prefix)
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
