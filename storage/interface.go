// Package storage persists the favorites of every replica hosted
// by a tokenbook node. Each replica store is a partition of one
// kv store and records the index of the last update applied to it
// alongside the favorites records, so both change atomically.
package storage

import (
	"context"
	"errors"

	"github.com/jrife/tokenbook/favorites"
	"github.com/jrife/tokenbook/identity"
)

var (
	// ErrClosed indicates that the store was closed
	ErrClosed = errors.New("store was closed")
	// ErrNoSuchReplicaStore is returned when a replica store
	// is requested that does not exist.
	ErrNoSuchReplicaStore = errors.New("no such replica store")
	// ErrConsistencyViolation is returned when an update index
	// is not greater than the replica store's current index.
	ErrConsistencyViolation = errors.New("consistency violation")
)

var (
	updateIndexNs  = []byte{0}
	favoritesNs    = []byte{1}
	updateIndexKey = []byte{0}
)

// Store describes the storage interface
// for a tokenbook node.
type Store interface {
	// ReplicaStores lets a consumer iterate through
	// all the replica stores for this node. Replica
	// stores are returned in order by their name.
	// Returns a list of ReplicaStores whose name is
	// > start up to the specified limit.
	ReplicaStores(ctx context.Context, start string, limit int) ([]string, error)
	// ReplicaStore returns a handle to the replica
	// store with the given name. Calling methods on
	// the handle will return ErrNoSuchReplicaStore
	// if it hasn't been created.
	ReplicaStore(name string) ReplicaStore
	// Purge deletes all persistent data associated with this store.
	Purge() error
}

// ReplicaStore describes the storage interface for one replica.
type ReplicaStore interface {
	// Name returns the name of this replica store
	Name() string
	// Create initializes this replica store with some metadata.
	// It does nothing if the replica store already exists.
	Create(ctx context.Context, metadata []byte) error
	// Delete deletes this replica store. It does nothing if the
	// replica store doesn't exist.
	Delete(ctx context.Context) error
	// Metadata retrieves the metadata associated with this replica store
	Metadata(ctx context.Context) ([]byte, error)
	// Index returns the latest index applied to this store.
	Index(ctx context.Context) (uint64, error)
	// Apply an update with this update index
	Apply(index uint64) Update
	// Favorites lists the owner's tokens in insertion order
	Favorites(ctx context.Context, owner identity.Principal) ([]favorites.Token, error)
	// Records lists every favorites record ordered by owner
	Records(ctx context.Context) ([]favorites.Record, error)
}

// Update describes an update to a replica store. Every method
// sets the update index in the same transaction as its change.
// An update that fails with a classified domain error still
// consumes its index but changes nothing else.
type Update interface {
	// SaveFavorite appends a token to the owner's favorites
	SaveFavorite(ctx context.Context, owner identity.Principal, token favorites.Token) (string, error)
	// RemoveFavorite removes every token matching symbol from the owner's favorites
	RemoveFavorite(ctx context.Context, owner identity.Principal, symbol string) (string, error)
	// Skip consumes the update index without changing anything else
	Skip(ctx context.Context) error
}
