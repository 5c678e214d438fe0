package storage

import (
	"context"
	"fmt"

	"github.com/jrife/tokenbook/favorites"
	"github.com/jrife/tokenbook/identity"
	"github.com/jrife/tokenbook/storage/kv"
	"github.com/jrife/tokenbook/storage/kv/keys"
	"github.com/jrife/tokenbook/storage/kv/marshaled"
	"github.com/jrife/tokenbook/utils/log"
	"go.uber.org/zap"
)

var _ ReplicaStore = (*replicaStore)(nil)

// replicaStore implements ReplicaStore
type replicaStore struct {
	name      string
	partition kv.Partition
	logger    *zap.Logger
}

// Name implements ReplicaStore.Name
func (replicaStore *replicaStore) Name() string {
	return replicaStore.name
}

// Create implements ReplicaStore.Create
func (replicaStore *replicaStore) Create(ctx context.Context, metadata []byte) error {
	logger := log.WithContext(ctx, replicaStore.logger).With(zap.String("operation", "Create"))
	logger.Debug("start Create()")

	if err := replicaStore.partition.Create(metadata); err != nil {
		err = wrapError("could not create partition", err)

		logger.Debug("error", zap.Error(err))

		return err
	}

	logger.Debug("return from Create()")

	return nil
}

// Delete implements ReplicaStore.Delete
func (replicaStore *replicaStore) Delete(ctx context.Context) error {
	logger := log.WithContext(ctx, replicaStore.logger).With(zap.String("operation", "Delete"))
	logger.Debug("start Delete()")

	if err := replicaStore.partition.Delete(); err != nil {
		err = wrapError("could not delete partition", err)

		logger.Debug("error", zap.Error(err))

		return err
	}

	logger.Debug("return from Delete()")

	return nil
}

// Metadata implements ReplicaStore.Metadata
func (replicaStore *replicaStore) Metadata(ctx context.Context) ([]byte, error) {
	var metadata []byte

	err := replicaStore.view(func(txn kv.Transaction) error {
		var err error

		metadata, err = txn.Metadata()

		return err
	})

	if err != nil {
		return nil, wrapError("could not read metadata", err)
	}

	return metadata, nil
}

// Index implements ReplicaStore.Index
func (replicaStore *replicaStore) Index(ctx context.Context) (uint64, error) {
	var index uint64

	err := replicaStore.view(func(txn kv.Transaction) error {
		var err error

		index, err = replicaStore.updateIndex(kv.Namespace(txn, updateIndexNs))

		return err
	})

	if err != nil {
		return 0, wrapError("could not read update index", err)
	}

	return index, nil
}

// Favorites implements ReplicaStore.Favorites
func (replicaStore *replicaStore) Favorites(ctx context.Context, owner identity.Principal) ([]favorites.Token, error) {
	logger := log.WithContext(ctx, replicaStore.logger).With(zap.String("operation", "Favorites"), zap.String("owner", string(owner)))
	logger.Debug("start Favorites()")

	var tokens []favorites.Token

	err := replicaStore.view(func(txn kv.Transaction) error {
		var err error

		tokens, err = favorites.List(kv.Namespace(txn, favoritesNs), owner)

		return err
	})

	if err != nil {
		err = wrapError("could not list favorites", err)

		logger.Debug("error", zap.Error(err))

		return nil, err
	}

	logger.Debug("return from Favorites()", zap.Int("count", len(tokens)))

	return tokens, nil
}

// Records implements ReplicaStore.Records
func (replicaStore *replicaStore) Records(ctx context.Context) ([]favorites.Record, error) {
	result := []favorites.Record{}

	err := replicaStore.view(func(txn kv.Transaction) error {
		records := marshaled.New[favorites.Record](kv.Namespace(txn, favoritesNs), marshaled.JSON[favorites.Record]{})
		iter, err := records.Keys(keys.All(), kv.SortOrderAsc)

		if err != nil {
			return err
		}

		for iter.Next() {
			result = append(result, iter.Value())
		}

		return iter.Error()
	})

	if err != nil {
		return nil, wrapError("could not list records", err)
	}

	return result, nil
}

// Apply implements ReplicaStore.Apply
func (replicaStore *replicaStore) Apply(index uint64) Update {
	return &update{
		replicaStore: replicaStore,
		index:        index,
		logger:       replicaStore.logger.With(zap.Uint64("update", index)),
	}
}

func (replicaStore *replicaStore) updateIndex(txn kv.Transaction) (uint64, error) {
	raw, err := txn.Get(updateIndexKey)

	if err != nil {
		return 0, fmt.Errorf("could not retrieve update index key: %s", err)
	}

	if raw == nil {
		return 0, nil
	}

	index, ok := keys.KeyToUint64(raw)

	if !ok {
		return 0, fmt.Errorf("update index is corrupt: %x", raw)
	}

	return index, nil
}

// applyUpdate sets the update index and runs fn in one transaction.
// Classified domain failures from fn still commit the new index.
func (replicaStore *replicaStore) applyUpdate(index uint64, fn func(txn kv.Transaction) error) error {
	var domainErr error

	err := replicaStore.update(func(txn kv.Transaction) error {
		if err := replicaStore.compareAndSetUpdateIndex(kv.Namespace(txn, updateIndexNs), index); err != nil {
			return err
		}

		if err := fn(kv.Namespace(txn, favoritesNs)); err != nil {
			if domainError(err) {
				domainErr = err

				return nil
			}

			return fmt.Errorf("could not apply update: %w", err)
		}

		return nil
	})

	if err != nil {
		return err
	}

	return domainErr
}

func (replicaStore *replicaStore) compareAndSetUpdateIndex(txn kv.Transaction, index uint64) error {
	currentUpdateIndex, err := replicaStore.updateIndex(txn)

	if err != nil {
		return err
	}

	if index <= currentUpdateIndex {
		return fmt.Errorf("%w: update index %d is not greater than current update index %d", ErrConsistencyViolation, index, currentUpdateIndex)
	}

	if err := txn.Put(updateIndexKey, keys.Uint64ToKey(index)); err != nil {
		return fmt.Errorf("could not update update index key: %s", err)
	}

	return nil
}

func (replicaStore *replicaStore) view(fn func(txn kv.Transaction) error) error {
	transaction, err := replicaStore.partition.Begin(false)

	if err != nil {
		return err
	}

	defer transaction.Rollback()

	return fn(transaction)
}

func (replicaStore *replicaStore) update(fn func(txn kv.Transaction) error) error {
	transaction, err := replicaStore.partition.Begin(true)

	if err != nil {
		return err
	}

	defer transaction.Rollback()

	if err := fn(transaction); err != nil {
		return err
	}

	if err := transaction.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	return nil
}
