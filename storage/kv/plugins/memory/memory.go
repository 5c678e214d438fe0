// Package memory implements a volatile kv plugin. Every
// partition is a sorted map guarded by a read-write lock.
// Write transactions work on a copy that replaces the
// partition's map on commit.
package memory

import (
	"bytes"
	"sync"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/jrife/tokenbook/storage/kv"
	"github.com/jrife/tokenbook/storage/kv/keys"
)

const (
	// DriverName is the name this plugin is registered under
	DriverName = "memory"
)

// Plugins returns the plugins this package provides
func Plugins() []kv.Plugin {
	return []kv.Plugin{
		&Plugin{},
	}
}

var _ kv.Plugin = (*Plugin)(nil)

// Plugin is the in-memory kv plugin
type Plugin struct {
}

// Name implements kv.Plugin.Name
func (plugin *Plugin) Name() string {
	return DriverName
}

// NewRootStore implements kv.Plugin.NewRootStore. Options are ignored.
func (plugin *Plugin) NewRootStore(options kv.PluginOptions) (kv.RootStore, error) {
	return New(), nil
}

// NewTempRootStore implements kv.Plugin.NewTempRootStore
func (plugin *Plugin) NewTempRootStore() (kv.RootStore, error) {
	return New(), nil
}

func newTree() *treemap.Map {
	return treemap.NewWith(func(a, b interface{}) int {
		return bytes.Compare([]byte(a.(string)), []byte(b.(string)))
	})
}

var _ kv.RootStore = (*RootStore)(nil)

// RootStore holds stores in memory
type RootStore struct {
	mu     sync.RWMutex
	closed bool
	stores *treemap.Map
}

// New creates an empty in-memory root store
func New() *RootStore {
	return &RootStore{stores: newTree()}
}

// Close implements kv.RootStore.Close. It waits for
// open transactions to finish.
func (rootStore *RootStore) Close() error {
	rootStore.mu.Lock()
	defer rootStore.mu.Unlock()

	rootStore.closed = true

	return nil
}

// Delete implements kv.RootStore.Delete
func (rootStore *RootStore) Delete() error {
	rootStore.mu.Lock()
	defer rootStore.mu.Unlock()

	rootStore.closed = true
	rootStore.stores.Clear()

	return nil
}

// Stores implements kv.RootStore.Stores
func (rootStore *RootStore) Stores() ([][]byte, error) {
	rootStore.mu.RLock()
	defer rootStore.mu.RUnlock()

	if rootStore.closed {
		return nil, kv.ErrClosed
	}

	var stores [][]byte

	for _, name := range rootStore.stores.Keys() {
		stores = append(stores, []byte(name.(string)))
	}

	return stores, nil
}

// Store implements kv.RootStore.Store
func (rootStore *RootStore) Store(name []byte) kv.Store {
	return &Store{rootStore: rootStore, name: name}
}

// store returns the partitions tree for a store. The
// caller must hold rootStore.mu.
func (rootStore *RootStore) store(name []byte) (*treemap.Map, error) {
	if rootStore.closed {
		return nil, kv.ErrClosed
	}

	partitions, ok := rootStore.stores.Get(string(name))

	if !ok {
		return nil, kv.ErrNoSuchStore
	}

	return partitions.(*treemap.Map), nil
}

var _ kv.Store = (*Store)(nil)

// Store is a named set of partitions
type Store struct {
	rootStore *RootStore
	name      []byte
}

// Name implements kv.Store.Name
func (store *Store) Name() []byte {
	return store.name
}

// Create implements kv.Store.Create
func (store *Store) Create() error {
	store.rootStore.mu.Lock()
	defer store.rootStore.mu.Unlock()

	if store.rootStore.closed {
		return kv.ErrClosed
	}

	if _, ok := store.rootStore.stores.Get(string(store.name)); !ok {
		store.rootStore.stores.Put(string(store.name), newTree())
	}

	return nil
}

// Delete implements kv.Store.Delete
func (store *Store) Delete() error {
	store.rootStore.mu.Lock()
	defer store.rootStore.mu.Unlock()

	if store.rootStore.closed {
		return kv.ErrClosed
	}

	store.rootStore.stores.Remove(string(store.name))

	return nil
}

// Partitions implements kv.Store.Partitions
func (store *Store) Partitions(names keys.Range, limit int) ([][]byte, error) {
	store.rootStore.mu.RLock()
	defer store.rootStore.mu.RUnlock()

	partitions, err := store.rootStore.store(store.name)

	if err != nil {
		return nil, err
	}

	var result [][]byte

	for _, name := range partitions.Keys() {
		if limit >= 0 && len(result) >= limit {
			break
		}

		if names.Contains([]byte(name.(string))) {
			result = append(result, []byte(name.(string)))
		}
	}

	return result, nil
}

// Partition implements kv.Store.Partition
func (store *Store) Partition(name []byte) kv.Partition {
	return &Partition{store: store, name: name}
}

var _ kv.Partition = (*Partition)(nil)

// Partition is a handle to a named partition
type Partition struct {
	store *Store
	name  []byte
}

type partitionState struct {
	mu       sync.RWMutex
	metadata []byte
	data     *kv.FakeMap
}

// Name implements kv.Partition.Name
func (partition *Partition) Name() []byte {
	return partition.name
}

// Create implements kv.Partition.Create
func (partition *Partition) Create(metadata []byte) error {
	rootStore := partition.store.rootStore

	rootStore.mu.Lock()
	defer rootStore.mu.Unlock()

	partitions, err := rootStore.store(partition.store.name)

	if err != nil {
		return err
	}

	if _, ok := partitions.Get(string(partition.name)); ok {
		return nil
	}

	partitions.Put(string(partition.name), &partitionState{
		metadata: keys.Join(nil, metadata),
		data:     kv.NewFakeMap(),
	})

	return nil
}

// Delete implements kv.Partition.Delete
func (partition *Partition) Delete() error {
	rootStore := partition.store.rootStore

	rootStore.mu.Lock()
	defer rootStore.mu.Unlock()

	partitions, err := rootStore.store(partition.store.name)

	if err != nil {
		return err
	}

	partitions.Remove(string(partition.name))

	return nil
}

// Begin implements kv.Partition.Begin. The root store
// read lock is held until the transaction ends so that
// Close waits for it.
func (partition *Partition) Begin(writable bool) (kv.Transaction, error) {
	rootStore := partition.store.rootStore

	rootStore.mu.RLock()

	partitions, err := rootStore.store(partition.store.name)

	if err != nil {
		rootStore.mu.RUnlock()

		return nil, err
	}

	raw, ok := partitions.Get(string(partition.name))

	if !ok {
		rootStore.mu.RUnlock()

		return nil, kv.ErrNoSuchPartition
	}

	state := raw.(*partitionState)
	txn := &transaction{rootStore: rootStore, state: state, writable: writable}

	if writable {
		state.mu.Lock()
		txn.data = state.data.Clone()
		txn.metadata = keys.Join(nil, state.metadata)
	} else {
		state.mu.RLock()
		txn.data = state.data
		txn.metadata = state.metadata
	}

	return txn, nil
}
