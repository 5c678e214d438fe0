// Package bbolt implements a kv plugin backed by a bbolt database file.
package bbolt

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jrife/tokenbook/storage/kv"
	"github.com/jrife/tokenbook/storage/kv/keys"
	"github.com/jrife/tokenbook/utils/uuid"
	bolt "go.etcd.io/bbolt"
)

const (
	// DriverName is the name this plugin is registered under
	DriverName = "bbolt"
)

var (
	rootBucket     = []byte{0}
	metadataKey    = []byte{0}
	dataBucketName = []byte{1}
)

// Plugins returns the plugins this package provides
func Plugins() []kv.Plugin {
	return []kv.Plugin{
		&Plugin{},
	}
}

var _ kv.Plugin = (*Plugin)(nil)

// Plugin is the bbolt kv plugin
type Plugin struct {
}

// Name implements kv.Plugin.Name
func (plugin *Plugin) Name() string {
	return DriverName
}

// NewRootStore implements kv.Plugin.NewRootStore. It
// requires a "path" option naming the database file.
func (plugin *Plugin) NewRootStore(options kv.PluginOptions) (kv.RootStore, error) {
	var config RootStoreConfig

	if path, ok := options["path"]; !ok {
		return nil, fmt.Errorf("\"path\" is required")
	} else if pathString, ok := path.(string); !ok {
		return nil, fmt.Errorf("\"path\" must be a string")
	} else {
		config.Path = pathString
	}

	return New(config)
}

// NewTempRootStore implements kv.Plugin.NewTempRootStore
func (plugin *Plugin) NewTempRootStore() (kv.RootStore, error) {
	return plugin.NewRootStore(kv.PluginOptions{
		"path": filepath.Join(os.TempDir(), fmt.Sprintf("bbolt-%s", uuid.MustUUID())),
	})
}

// RootStoreConfig configures a bbolt root store
type RootStoreConfig struct {
	Path string
}

var _ kv.RootStore = (*RootStore)(nil)

// RootStore is a kv.RootStore backed by a single bbolt file
type RootStore struct {
	db *bolt.DB
}

// New opens or creates the bbolt file at config.Path
func New(config RootStoreConfig) (*RootStore, error) {
	if dir := filepath.Dir(config.Path); dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("could not create directory %s: %s", dir, err)
		}
	}

	db, err := bolt.Open(config.Path, 0666, nil)

	if err != nil {
		return nil, fmt.Errorf("could not open bbolt store at %s: %s", config.Path, err)
	}

	if err := db.Update(func(txn *bolt.Tx) error {
		_, err := txn.CreateBucketIfNotExists(rootBucket)

		return err
	}); err != nil {
		db.Close()

		return nil, fmt.Errorf("could not ensure root bucket exists: %s", err)
	}

	return &RootStore{db: db}, nil
}

// Close implements kv.RootStore.Close
func (rootStore *RootStore) Close() error {
	return rootStore.db.Close()
}

// Delete implements kv.RootStore.Delete
func (rootStore *RootStore) Delete() error {
	path := rootStore.db.Path()

	if err := rootStore.Close(); err != nil {
		return fmt.Errorf("could not close store: %s", err)
	}

	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("could not remove path %s: %s", path, err)
	}

	return nil
}

// Stores implements kv.RootStore.Stores
func (rootStore *RootStore) Stores() ([][]byte, error) {
	var stores [][]byte

	err := rootStore.view(func(txn *bolt.Tx) error {
		return txn.Bucket(rootBucket).ForEach(func(name, _ []byte) error {
			stores = append(stores, keys.Join(nil, name))

			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	return stores, nil
}

// Store implements kv.RootStore.Store
func (rootStore *RootStore) Store(name []byte) kv.Store {
	return &Store{rootStore: rootStore, name: name}
}

func (rootStore *RootStore) view(fn func(txn *bolt.Tx) error) error {
	return wrapError(rootStore.db.View(fn))
}

func (rootStore *RootStore) update(fn func(txn *bolt.Tx) error) error {
	return wrapError(rootStore.db.Update(fn))
}

func wrapError(err error) error {
	if errors.Is(err, bolt.ErrDatabaseNotOpen) {
		return kv.ErrClosed
	}

	return err
}

var _ kv.Store = (*Store)(nil)

// Store is a bucket nested inside the root bucket
type Store struct {
	rootStore *RootStore
	name      []byte
}

func (store *Store) bucket(txn *bolt.Tx) *bolt.Bucket {
	return txn.Bucket(rootBucket).Bucket(store.name)
}

// Name implements kv.Store.Name
func (store *Store) Name() []byte {
	return store.name
}

// Create implements kv.Store.Create
func (store *Store) Create() error {
	return store.rootStore.update(func(txn *bolt.Tx) error {
		_, err := txn.Bucket(rootBucket).CreateBucketIfNotExists(store.name)

		return err
	})
}

// Delete implements kv.Store.Delete
func (store *Store) Delete() error {
	return store.rootStore.update(func(txn *bolt.Tx) error {
		err := txn.Bucket(rootBucket).DeleteBucket(store.name)

		if errors.Is(err, bolt.ErrBucketNotFound) {
			return nil
		}

		return err
	})
}

// Partitions implements kv.Store.Partitions
func (store *Store) Partitions(names keys.Range, limit int) ([][]byte, error) {
	var partitions [][]byte

	err := store.rootStore.view(func(txn *bolt.Tx) error {
		bucket := store.bucket(txn)

		if bucket == nil {
			return kv.ErrNoSuchStore
		}

		cursor := bucket.Cursor()
		var k []byte

		if names.Min == nil {
			k, _ = cursor.First()
		} else {
			k, _ = cursor.Seek(names.Min)
		}

		for ; k != nil && (limit < 0 || len(partitions) < limit); k, _ = cursor.Next() {
			if names.Max != nil && keys.Compare(k, names.Max) >= 0 {
				break
			}

			partitions = append(partitions, keys.Join(nil, k))
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return partitions, nil
}

// Partition implements kv.Store.Partition
func (store *Store) Partition(name []byte) kv.Partition {
	return &Partition{store: store, name: name}
}

var _ kv.Partition = (*Partition)(nil)

// Partition is a bucket nested inside a store bucket.
// It holds the metadata key and a data bucket.
type Partition struct {
	store *Store
	name  []byte
}

// Name implements kv.Partition.Name
func (partition *Partition) Name() []byte {
	return partition.name
}

// Create implements kv.Partition.Create
func (partition *Partition) Create(metadata []byte) error {
	return partition.store.rootStore.update(func(txn *bolt.Tx) error {
		storeBucket := partition.store.bucket(txn)

		if storeBucket == nil {
			return kv.ErrNoSuchStore
		}

		if storeBucket.Bucket(partition.name) != nil {
			return nil
		}

		bucket, err := storeBucket.CreateBucket(partition.name)

		if err != nil {
			return err
		}

		if err := bucket.Put(metadataKey, keys.Join(nil, metadata)); err != nil {
			return err
		}

		_, err = bucket.CreateBucket(dataBucketName)

		return err
	})
}

// Delete implements kv.Partition.Delete
func (partition *Partition) Delete() error {
	return partition.store.rootStore.update(func(txn *bolt.Tx) error {
		storeBucket := partition.store.bucket(txn)

		if storeBucket == nil {
			return kv.ErrNoSuchStore
		}

		err := storeBucket.DeleteBucket(partition.name)

		if errors.Is(err, bolt.ErrBucketNotFound) {
			return nil
		}

		return err
	})
}

// Begin implements kv.Partition.Begin
func (partition *Partition) Begin(writable bool) (kv.Transaction, error) {
	txn, err := partition.store.rootStore.db.Begin(writable)

	if err != nil {
		return nil, wrapError(err)
	}

	storeBucket := partition.store.bucket(txn)

	if storeBucket == nil {
		txn.Rollback()

		return nil, kv.ErrNoSuchStore
	}

	bucket := storeBucket.Bucket(partition.name)

	if bucket == nil {
		txn.Rollback()

		return nil, kv.ErrNoSuchPartition
	}

	return &transaction{txn: txn, partition: bucket, data: bucket.Bucket(dataBucketName)}, nil
}
