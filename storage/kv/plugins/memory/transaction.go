package memory

import (
	"github.com/jrife/tokenbook/storage/kv"
	"github.com/jrife/tokenbook/storage/kv/keys"
)

var _ kv.Transaction = (*transaction)(nil)

type transaction struct {
	rootStore *RootStore
	state     *partitionState
	writable  bool
	done      bool
	metadata  []byte
	data      *kv.FakeMap
}

func (txn *transaction) check(write bool) error {
	if txn.done {
		return kv.ErrTxDone
	}

	if write && !txn.writable {
		return kv.ErrReadOnly
	}

	return nil
}

func (txn *transaction) Put(key, value []byte) error {
	if err := txn.check(true); err != nil {
		return err
	}

	return txn.data.Put(key, value)
}

func (txn *transaction) Delete(key []byte) error {
	if err := txn.check(true); err != nil {
		return err
	}

	return txn.data.Delete(key)
}

func (txn *transaction) Get(key []byte) ([]byte, error) {
	if err := txn.check(false); err != nil {
		return nil, err
	}

	return txn.data.Get(key)
}

func (txn *transaction) Keys(keys keys.Range, order kv.SortOrder) (kv.Iterator, error) {
	if err := txn.check(false); err != nil {
		return nil, err
	}

	return txn.data.Keys(keys, order)
}

func (txn *transaction) Metadata() ([]byte, error) {
	if err := txn.check(false); err != nil {
		return nil, err
	}

	return keys.Join(nil, txn.metadata), nil
}

func (txn *transaction) SetMetadata(metadata []byte) error {
	if err := txn.check(true); err != nil {
		return err
	}

	txn.metadata = keys.Join(nil, metadata)

	return nil
}

func (txn *transaction) Commit() error {
	if txn.done {
		return kv.ErrTxDone
	}

	if txn.writable {
		txn.state.data = txn.data
		txn.state.metadata = txn.metadata
	}

	txn.release()

	return nil
}

func (txn *transaction) Rollback() error {
	if txn.done {
		return kv.ErrTxDone
	}

	txn.release()

	return nil
}

func (txn *transaction) release() {
	txn.done = true

	if txn.writable {
		txn.state.mu.Unlock()
	} else {
		txn.state.mu.RUnlock()
	}

	txn.rootStore.mu.RUnlock()
}
