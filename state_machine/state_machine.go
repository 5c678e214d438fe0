// Package state_machine defines the deterministic state machines
// that replicas run over their replica stores.
package state_machine

import (
	"errors"

	"github.com/jrife/tokenbook/storage"
	"go.etcd.io/etcd/raft/v3/raftpb"
)

// ErrNotInitialized is returned by Step before Init
var ErrNotInitialized = errors.New("state machine is not initialized")

// StateMachine applies committed log entries to a replica store.
// Every replica fed the same entries must return the same
// responses and end up with the same store contents.
type StateMachine interface {
	// Init binds the state machine to its replica store
	Init(store storage.ReplicaStore) error
	// Step applies one committed entry and returns its encoded
	// response. An error means the entry could not be applied
	// at all, for example because its index was already applied.
	Step(entry raftpb.Entry) ([]byte, error)
}
