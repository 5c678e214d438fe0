package bbolt

import (
	"github.com/jrife/tokenbook/storage/kv"
	"github.com/jrife/tokenbook/storage/kv/keys"
	bolt "go.etcd.io/bbolt"
)

var _ kv.Transaction = (*transaction)(nil)

type transaction struct {
	txn       *bolt.Tx
	partition *bolt.Bucket
	data      *bolt.Bucket
}

func (transaction *transaction) Put(key, value []byte) error {
	if len(key) == 0 {
		return kv.ErrEmptyKey
	}

	if len(value) == 0 {
		return kv.ErrEmptyValue
	}

	if !transaction.txn.Writable() {
		return kv.ErrReadOnly
	}

	return transaction.data.Put(key, value)
}

func (transaction *transaction) Delete(key []byte) error {
	if len(key) == 0 {
		return kv.ErrEmptyKey
	}

	if !transaction.txn.Writable() {
		return kv.ErrReadOnly
	}

	return transaction.data.Delete(key)
}

// Get returns a copy since bbolt memory is only valid
// for the life of the transaction
func (transaction *transaction) Get(key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, kv.ErrEmptyKey
	}

	value := transaction.data.Get(key)

	if value == nil {
		return nil, nil
	}

	return keys.Join(nil, value), nil
}

func (transaction *transaction) Keys(keys keys.Range, order kv.SortOrder) (kv.Iterator, error) {
	return &iterator{cursor: transaction.data.Cursor(), keys: keys, order: order}, nil
}

func (transaction *transaction) Metadata() ([]byte, error) {
	return keys.Join(nil, transaction.partition.Get(metadataKey)), nil
}

func (transaction *transaction) SetMetadata(metadata []byte) error {
	if !transaction.txn.Writable() {
		return kv.ErrReadOnly
	}

	return transaction.partition.Put(metadataKey, keys.Join(nil, metadata))
}

func (transaction *transaction) Commit() error {
	if !transaction.txn.Writable() {
		return transaction.Rollback()
	}

	if err := transaction.txn.Commit(); err != nil {
		if err == bolt.ErrTxClosed {
			return kv.ErrTxDone
		}

		return wrapError(err)
	}

	return nil
}

func (transaction *transaction) Rollback() error {
	if err := transaction.txn.Rollback(); err != nil {
		if err == bolt.ErrTxClosed {
			return kv.ErrTxDone
		}

		return wrapError(err)
	}

	return nil
}

var _ kv.Iterator = (*iterator)(nil)

// iterator walks a bbolt cursor within a key range. Keys and
// values are only valid until the transaction ends.
type iterator struct {
	cursor  *bolt.Cursor
	keys    keys.Range
	order   kv.SortOrder
	started bool
	done    bool
	key     []byte
	value   []byte
}

func (iter *iterator) first() ([]byte, []byte) {
	if iter.order == kv.SortOrderDesc {
		if iter.keys.Max == nil {
			return iter.cursor.Last()
		}

		// Max is exclusive so step back from the first key >= Max
		if k, _ := iter.cursor.Seek(iter.keys.Max); k == nil {
			return iter.cursor.Last()
		}

		return iter.cursor.Prev()
	}

	if iter.keys.Min == nil {
		return iter.cursor.First()
	}

	return iter.cursor.Seek(iter.keys.Min)
}

func (iter *iterator) Next() bool {
	if iter.done {
		return false
	}

	var k, v []byte

	if !iter.started {
		iter.started = true
		k, v = iter.first()
	} else if iter.order == kv.SortOrderDesc {
		k, v = iter.cursor.Prev()
	} else {
		k, v = iter.cursor.Next()
	}

	if k == nil || !iter.keys.Contains(k) {
		iter.done = true
		iter.key = nil
		iter.value = nil

		return false
	}

	iter.key = k
	iter.value = v

	return true
}

func (iter *iterator) Key() []byte {
	return iter.key
}

func (iter *iterator) Value() []byte {
	return iter.value
}

func (iter *iterator) Error() error {
	return nil
}
