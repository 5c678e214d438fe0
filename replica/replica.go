// Package replica pairs each replica's store, state machine
// and outcall issuer.
package replica

import (
	"context"
	"fmt"

	"github.com/jrife/tokenbook/favorites"
	"github.com/jrife/tokenbook/identity"
	"github.com/jrife/tokenbook/outcall"
	"github.com/jrife/tokenbook/state_machine"
	"github.com/jrife/tokenbook/storage"
	"go.etcd.io/etcd/raft/v3/raftpb"
)

// Config configures a Replica
type Config struct {
	Store        storage.ReplicaStore
	StateMachine state_machine.StateMachine
	Issuer       outcall.Issuer
}

// Replica is one independent execution instance
type Replica struct {
	store        storage.ReplicaStore
	stateMachine state_machine.StateMachine
	issuer       outcall.Issuer
}

// New creates a replica and binds its state machine to its store
func New(config Config) (*Replica, error) {
	if config.Store == nil || config.StateMachine == nil || config.Issuer == nil {
		return nil, fmt.Errorf("replica requires a store, a state machine and an issuer")
	}

	if err := config.StateMachine.Init(config.Store); err != nil {
		return nil, fmt.Errorf("could not initialize state machine for replica %s: %s", config.Store.Name(), err)
	}

	return &Replica{
		store:        config.Store,
		stateMachine: config.StateMachine,
		issuer:       config.Issuer,
	}, nil
}

// Name returns the replica name
func (replica *Replica) Name() string {
	return replica.store.Name()
}

// Store returns the replica's store
func (replica *Replica) Store() storage.ReplicaStore {
	return replica.store
}

// Issuer returns the replica's outcall issuer
func (replica *Replica) Issuer() outcall.Issuer {
	return replica.issuer
}

// Step applies a committed entry
func (replica *Replica) Step(entry raftpb.Entry) ([]byte, error) {
	return replica.stateMachine.Step(entry)
}

// Index returns the last index applied to this replica
func (replica *Replica) Index(ctx context.Context) (uint64, error) {
	return replica.store.Index(ctx)
}

// Favorites lists the owner's tokens as seen by this replica
func (replica *Replica) Favorites(ctx context.Context, owner identity.Principal) ([]favorites.Token, error) {
	return replica.store.Favorites(ctx, owner)
}
