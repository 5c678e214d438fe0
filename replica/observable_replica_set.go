package replica

import (
	"github.com/jrife/tokenbook/utils/observable_map"
)

// ReplicaSetObserver is an observer callback for an
// ObservableReplicaSet
type ReplicaSetObserver func(replica *Replica)

// ObservableReplicaSet is a set of replicas keyed by name
// that notifies observers as replicas come and go.
type ObservableReplicaSet struct {
	byName *observable_map.ObservableMap[string, *Replica]
}

// NewObservableReplicaSet creates an empty ObservableReplicaSet
func NewObservableReplicaSet() *ObservableReplicaSet {
	return &ObservableReplicaSet{
		byName: observable_map.New[string, *Replica](),
	}
}

// Add adds a replica to the set. Add is idempotent for
// the same replica and panics if a different replica
// with the same name is already present or if replica
// is nil.
func (observableReplicaSet *ObservableReplicaSet) Add(replica *Replica) {
	if replica == nil {
		panic("nil replica")
	}

	if existing, ok := observableReplicaSet.byName.Get(replica.Name()); ok {
		if existing != replica {
			panic("duplicate replica name " + replica.Name())
		}

		return
	}

	observableReplicaSet.byName.Put(replica.Name(), replica)
}

// Delete removes the replica with the given name
func (observableReplicaSet *ObservableReplicaSet) Delete(name string) bool {
	return observableReplicaSet.byName.Delete(name)
}

// Get returns the replica with the given name
func (observableReplicaSet *ObservableReplicaSet) Get(name string) (*Replica, bool) {
	return observableReplicaSet.byName.Get(name)
}

// Len returns the number of replicas
func (observableReplicaSet *ObservableReplicaSet) Len() int {
	return observableReplicaSet.byName.Len()
}

// List returns the replicas ordered by name
func (observableReplicaSet *ObservableReplicaSet) List() []*Replica {
	return observableReplicaSet.byName.Values(func(a, b string) bool { return a < b })
}

// OnAdd registers an observer for added replicas
func (observableReplicaSet *ObservableReplicaSet) OnAdd(cb ReplicaSetObserver) {
	observableReplicaSet.byName.OnAdd(func(name string, replica *Replica) {
		cb(replica)
	})
}

// OnDelete registers an observer for deleted replicas
func (observableReplicaSet *ObservableReplicaSet) OnDelete(cb ReplicaSetObserver) {
	observableReplicaSet.byName.OnDelete(func(name string, replica *Replica) {
		cb(replica)
	})
}
