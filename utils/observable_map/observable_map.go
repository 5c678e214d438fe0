package observable_map

import (
	"sort"
	"sync"
)

// MapObserver is a callback through which observers
// can be notified of map changes.
type MapObserver[K comparable, V any] func(key K, value V)

// ObservableMap is a thread-safe wrapper for go's
// map that allows observers to be notified when
// things are added or deleted. Observers run after
// the map lock is released.
type ObservableMap[K comparable, V any] struct {
	mu              sync.Mutex
	internalMap     map[K]V
	addObservers    []MapObserver[K, V]
	updateObservers []MapObserver[K, V]
	deleteObservers []MapObserver[K, V]
}

// New creates an empty ObservableMap
func New[K comparable, V any]() *ObservableMap[K, V] {
	return &ObservableMap[K, V]{
		internalMap: make(map[K]V),
	}
}

// Put sets a key in the map. It returns true
// if the key already existed in the map and
// false if this call to Put is adding a key
// that didn't exist before.
func (observableMap *ObservableMap[K, V]) Put(key K, value V) bool {
	observableMap.mu.Lock()

	_, ok := observableMap.internalMap[key]
	observableMap.internalMap[key] = value
	observers := observableMap.addObservers

	if ok {
		observers = observableMap.updateObservers
	}

	observableMap.mu.Unlock()

	notifyObservers(observers, key, value)

	return ok
}

// Delete deletes a key from the map. It returns
// true if the key existed in the map and false
// if the key didn't exist.
func (observableMap *ObservableMap[K, V]) Delete(key K) bool {
	observableMap.mu.Lock()

	value, ok := observableMap.internalMap[key]
	observers := observableMap.deleteObservers

	if ok {
		delete(observableMap.internalMap, key)
	}

	observableMap.mu.Unlock()

	// Only notify observers if we actually
	// removed something
	if ok {
		notifyObservers(observers, key, value)
	}

	return ok
}

// Get reads a key from the map. ok is false
// if the key doesn't exist.
func (observableMap *ObservableMap[K, V]) Get(key K) (V, bool) {
	observableMap.mu.Lock()
	defer observableMap.mu.Unlock()

	value, ok := observableMap.internalMap[key]

	return value, ok
}

// Len returns the number of keys
func (observableMap *ObservableMap[K, V]) Len() int {
	observableMap.mu.Lock()
	defer observableMap.mu.Unlock()

	return len(observableMap.internalMap)
}

// Values returns a snapshot of the values ordered by less
// applied to their keys
func (observableMap *ObservableMap[K, V]) Values(less func(a, b K) bool) []V {
	observableMap.mu.Lock()

	keys := make([]K, 0, len(observableMap.internalMap))

	for key := range observableMap.internalMap {
		keys = append(keys, key)
	}

	sort.Slice(keys, func(i, j int) bool { return less(keys[i], keys[j]) })

	values := make([]V, 0, len(keys))

	for _, key := range keys {
		values = append(values, observableMap.internalMap[key])
	}

	observableMap.mu.Unlock()

	return values
}

func notifyObservers[K comparable, V any](observers []MapObserver[K, V], key K, value V) {
	for _, observer := range observers {
		observer(key, value)
	}
}

// OnAdd registers an observer for when a new key is
// added to the map.
func (observableMap *ObservableMap[K, V]) OnAdd(cb MapObserver[K, V]) {
	observableMap.mu.Lock()
	defer observableMap.mu.Unlock()

	observableMap.addObservers = append(observableMap.addObservers, cb)
}

// OnUpdate registers an observer for when an existing
// key is updated.
func (observableMap *ObservableMap[K, V]) OnUpdate(cb MapObserver[K, V]) {
	observableMap.mu.Lock()
	defer observableMap.mu.Unlock()

	observableMap.updateObservers = append(observableMap.updateObservers, cb)
}

// OnDelete registers an observer for map deletes.
func (observableMap *ObservableMap[K, V]) OnDelete(cb MapObserver[K, V]) {
	observableMap.mu.Lock()
	defer observableMap.mu.Unlock()

	observableMap.deleteObservers = append(observableMap.deleteObservers, cb)
}
