package kv

import (
	"bytes"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/jrife/tokenbook/storage/kv/keys"
)

var _ Map = (*FakeMap)(nil)

// FakeMap is an in-memory implementation of the
// Map interface. It is not safe for concurrent use.
type FakeMap struct {
	m *treemap.Map
}

// NewFakeMap creates a new FakeMap
func NewFakeMap() *FakeMap {
	return &FakeMap{m: treemap.NewWith(func(a, b interface{}) int {
		return bytes.Compare(a.([]byte), b.([]byte))
	})}
}

// Clone returns a copy of this map that shares no
// state with the original
func (m *FakeMap) Clone() *FakeMap {
	clone := NewFakeMap()
	iter := m.m.Iterator()

	for iter.Next() {
		clone.m.Put(iter.Key(), iter.Value())
	}

	return clone
}

// Len returns the number of keys in the map
func (m *FakeMap) Len() int {
	return m.m.Size()
}

// Put implements Map.Put
func (m *FakeMap) Put(key, value []byte) error {
	if len(key) == 0 {
		return ErrEmptyKey
	}

	if len(value) == 0 {
		return ErrEmptyValue
	}

	m.m.Put(keys.Join(nil, key), keys.Join(nil, value))

	return nil
}

// Delete implements Map.Delete
func (m *FakeMap) Delete(key []byte) error {
	if len(key) == 0 {
		return ErrEmptyKey
	}

	m.m.Remove(key)

	return nil
}

// Get implements Map.Get
func (m *FakeMap) Get(key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, ErrEmptyKey
	}

	value, ok := m.m.Get(key)

	if !ok {
		return nil, nil
	}

	return value.([]byte), nil
}

// Keys implements Map.Keys
func (m *FakeMap) Keys(keys keys.Range, order SortOrder) (Iterator, error) {
	iter := m.m.Iterator()

	if order == SortOrderDesc {
		iter.End()
	} else {
		iter.Begin()
	}

	return &fakeMapIterator{iter: iter, keys: keys, order: order}, nil
}

type fakeMapIterator struct {
	iter  treemap.Iterator
	keys  keys.Range
	order SortOrder
	done  bool
}

func (iter *fakeMapIterator) advance() bool {
	if iter.order == SortOrderDesc {
		return iter.iter.Prev()
	}

	return iter.iter.Next()
}

func (iter *fakeMapIterator) Next() bool {
	if iter.done {
		return false
	}

	for iter.advance() {
		if iter.keys.Contains(iter.Key()) {
			return true
		}

		// stop once the iterator has passed the far end of the range
		if iter.order == SortOrderDesc && iter.keys.Min != nil && bytes.Compare(iter.Key(), iter.keys.Min) < 0 {
			break
		}

		if iter.order != SortOrderDesc && iter.keys.Max != nil && bytes.Compare(iter.Key(), iter.keys.Max) >= 0 {
			break
		}
	}

	iter.done = true

	return false
}

func (iter *fakeMapIterator) Key() []byte {
	if iter.done {
		return nil
	}

	return iter.iter.Key().([]byte)
}

func (iter *fakeMapIterator) Value() []byte {
	if iter.done {
		return nil
	}

	return iter.iter.Value().([]byte)
}

func (iter *fakeMapIterator) Error() error {
	return nil
}
