// Package marshaled wraps a kv.Map so that values are
// encoded and decoded on the way in and out.
package marshaled

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/jrife/tokenbook/storage/kv"
	"github.com/jrife/tokenbook/storage/kv/keys"
)

// Codec converts values to and from their stored form
type Codec[T any] interface {
	Marshal(value T) ([]byte, error)
	Unmarshal(data []byte) (T, error)
}

// JSON is a Codec that stores values as JSON
type JSON[T any] struct{}

// Marshal implements Codec.Marshal
func (JSON[T]) Marshal(value T) ([]byte, error) {
	return json.Marshal(value)
}

// Unmarshal implements Codec.Unmarshal
func (JSON[T]) Unmarshal(data []byte) (T, error) {
	var value T

	err := json.Unmarshal(data, &value)

	return value, err
}

// Map is like kv.Map except its values are typed
type Map[T any] struct {
	m     kv.Map
	codec Codec[T]
}

// New wraps m so that values are stored with codec
func New[T any](m kv.Map, codec Codec[T]) Map[T] {
	return Map[T]{m: m, codec: codec}
}

// Put is like kv.MapUpdater.Put except it marshals the value
func (m Map[T]) Put(key []byte, value T) error {
	marshaledValue, err := m.codec.Marshal(value)

	if err != nil {
		return fmt.Errorf("could not marshal value for key %x: %s", key, err)
	}

	return m.m.Put(key, marshaledValue)
}

// Delete is like kv.MapUpdater.Delete
func (m Map[T]) Delete(key []byte) error {
	return m.m.Delete(key)
}

// Get is like kv.MapReader.Get except it unmarshals the value.
// ok is false if the key does not exist.
func (m Map[T]) Get(key []byte) (value T, ok bool, err error) {
	raw, err := m.m.Get(key)

	if err != nil || raw == nil {
		return value, false, err
	}

	value, err = m.codec.Unmarshal(raw)

	if err != nil {
		return value, false, fmt.Errorf("could not unmarshal value for key %x: %s", key, err)
	}

	return value, true, nil
}

// Keys is like kv.MapReader.Keys except the returned iterator unmarshals values
func (m Map[T]) Keys(keys keys.Range, order kv.SortOrder) (*Iterator[T], error) {
	iter, err := m.m.Keys(keys, order)

	if err != nil {
		return nil, err
	}

	return &Iterator[T]{Iterator: iter, codec: m.codec}, nil
}

// Iterator is like kv.Iterator except it unmarshals values
type Iterator[T any] struct {
	kv.Iterator
	codec Codec[T]
	value T
	err   error
}

// Next is like kv.Iterator.Next
func (iterator *Iterator[T]) Next() bool {
	var zero T

	if iterator.err != nil {
		return false
	}

	if !iterator.Iterator.Next() {
		iterator.value = zero

		return false
	}

	iterator.value, iterator.err = iterator.codec.Unmarshal(iterator.Iterator.Value())

	return iterator.err == nil
}

// Value returns the unmarshaled value at the current iterator position
func (iterator *Iterator[T]) Value() T {
	return iterator.value
}

// Error returns the first decoding or iteration error
func (iterator *Iterator[T]) Error() error {
	if iterator.err != nil {
		return iterator.err
	}

	return iterator.Iterator.Error()
}
