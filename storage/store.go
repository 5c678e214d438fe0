package storage

import (
	"context"
	"fmt"

	"github.com/jrife/tokenbook/storage/kv"
	"github.com/jrife/tokenbook/storage/kv/keys"
	"github.com/jrife/tokenbook/utils/log"
	"go.uber.org/zap"
)

var _ Store = (*store)(nil)

// StoreConfig contains configuration
// for a store
type StoreConfig struct {
	Logger *zap.Logger
	Store  kv.Store
}

// store implements Store. It is the
// top object for accessing storage for
// a tokenbook node
type store struct {
	logger *zap.Logger
	store  kv.Store
}

// New creates an instance of Store backed by a kv store,
// creating the kv store if needed
func New(config StoreConfig) (Store, error) {
	store := &store{logger: config.Logger, store: config.Store}

	if store.logger == nil {
		store.logger = zap.L()
	}

	if err := store.store.Create(); err != nil {
		return nil, wrapError(fmt.Sprintf("could not create kv store %s", store.store.Name()), err)
	}

	return store, nil
}

// ReplicaStores implements Store.ReplicaStores
func (store *store) ReplicaStores(ctx context.Context, start string, limit int) ([]string, error) {
	logger := log.WithContext(ctx, store.logger).With(zap.String("operation", "ReplicaStores"))
	logger.Debug("start ReplicaStores()", zap.String("start", start), zap.Int("limit", limit))

	names := keys.All()

	if start != "" {
		names = names.Gt([]byte(start))
	}

	partitions, err := store.store.Partitions(names, limit)

	if err != nil {
		err = wrapError("could not list partitions from kv store", err)

		logger.Debug("error", zap.Error(err))

		return nil, err
	}

	replicaStores := make([]string, len(partitions))

	for i, partition := range partitions {
		replicaStores[i] = string(partition)
	}

	logger.Debug("return from ReplicaStores()", zap.Strings("return", replicaStores))

	return replicaStores, nil
}

// ReplicaStore implements Store.ReplicaStore
func (store *store) ReplicaStore(name string) ReplicaStore {
	return &replicaStore{
		name:      name,
		partition: store.store.Partition([]byte(name)),
		logger:    store.logger.With(zap.String("replica_store", name)),
	}
}

// Purge implements Store.Purge
func (store *store) Purge() error {
	return wrapError("could not delete kv store", store.store.Delete())
}
