package raft

import (
	"fmt"
	"math"
	"sync"

	"github.com/jrife/tokenbook/storage/kv"
	"github.com/jrife/tokenbook/storage/kv/keys"
	"github.com/jrife/tokenbook/storage/kv/marshaled"
	etcd_raft "go.etcd.io/etcd/raft/v3"
	"go.etcd.io/etcd/raft/v3/raftpb"
	"go.uber.org/zap"
)

// NoLimit disables the maxSize limit of Entries
const NoLimit = math.MaxUint64

// entryCodec stores entries in their protobuf encoding
type entryCodec struct{}

func (entryCodec) Marshal(entry raftpb.Entry) ([]byte, error) {
	return entry.Marshal()
}

func (entryCodec) Unmarshal(data []byte) (raftpb.Entry, error) {
	var entry raftpb.Entry

	err := entry.Unmarshal(data)

	return entry, err
}

// KVLogConfig configures a KVLog
type KVLogConfig struct {
	Logger    *zap.Logger
	Partition kv.Partition
}

var _ Log = (*KVLog)(nil)

// KVLog is a Log stored in a kv partition. Entries are keyed
// by their big-endian index and the partition metadata holds
// the first index.
type KVLog struct {
	mu        sync.Mutex
	logger    *zap.Logger
	partition kv.Partition
}

// NewKVLog creates the partition if needed and returns a log
// backed by it
func NewKVLog(config KVLogConfig) (*KVLog, error) {
	log := &KVLog{logger: config.Logger, partition: config.Partition}

	if log.logger == nil {
		log.logger = zap.L()
	}

	if err := log.partition.Create(keys.Uint64ToKey(1)); err != nil {
		return nil, fmt.Errorf("could not create log partition: %w", err)
	}

	return log, nil
}

// FirstIndex implements Log.FirstIndex
func (log *KVLog) FirstIndex() (uint64, error) {
	var first uint64

	err := log.view(func(txn kv.Transaction) error {
		var err error

		first, err = firstIndex(txn)

		return err
	})

	return first, err
}

// LastIndex implements Log.LastIndex
func (log *KVLog) LastIndex() (uint64, error) {
	var last uint64

	err := log.view(func(txn kv.Transaction) error {
		var err error

		last, err = lastIndex(txn)

		return err
	})

	return last, err
}

// Append implements Log.Append
func (log *KVLog) Append(entries ...raftpb.Entry) error {
	log.mu.Lock()
	defer log.mu.Unlock()

	return log.update(func(txn kv.Transaction) error {
		last, err := lastIndex(txn)

		if err != nil {
			return err
		}

		m := marshaled.New[raftpb.Entry](txn, entryCodec{})

		for _, entry := range entries {
			if entry.Index != last+1 {
				return fmt.Errorf("%w: entry %d does not follow %d", ErrNotContiguous, entry.Index, last)
			}

			if err := m.Put(keys.Uint64ToKey(entry.Index), entry); err != nil {
				return fmt.Errorf("could not put entry %d: %w", entry.Index, err)
			}

			last = entry.Index
		}

		log.logger.Debug("appended entries", zap.Int("count", len(entries)), zap.Uint64("last", last))

		return nil
	})
}

// Entries implements Log.Entries
func (log *KVLog) Entries(lo, hi, maxSize uint64) ([]raftpb.Entry, error) {
	if hi < lo {
		return nil, fmt.Errorf("invalid range [%d,%d)", lo, hi)
	}

	var result []raftpb.Entry

	err := log.view(func(txn kv.Transaction) error {
		first, err := firstIndex(txn)

		if err != nil {
			return err
		}

		last, err := lastIndex(txn)

		if err != nil {
			return err
		}

		if lo < first {
			return etcd_raft.ErrCompacted
		}

		if hi > last+1 {
			return etcd_raft.ErrUnavailable
		}

		iter, err := marshaled.New[raftpb.Entry](txn, entryCodec{}).Keys(keys.All().Gte(keys.Uint64ToKey(lo)).Lt(keys.Uint64ToKey(hi)), kv.SortOrderAsc)

		if err != nil {
			return err
		}

		var size uint64
		expected := lo

		for iter.Next() {
			entry := iter.Value()

			if entry.Index != expected {
				return fmt.Errorf("log is missing entry %d", expected)
			}

			size += uint64(entry.Size())

			if len(result) > 0 && size > maxSize {
				break
			}

			result = append(result, entry)
			expected++
		}

		return iter.Error()
	})

	if err != nil {
		return nil, err
	}

	return result, nil
}

// Compact implements Log.Compact
func (log *KVLog) Compact(index uint64) error {
	log.mu.Lock()
	defer log.mu.Unlock()

	return log.update(func(txn kv.Transaction) error {
		first, err := firstIndex(txn)

		if err != nil {
			return err
		}

		last, err := lastIndex(txn)

		if err != nil {
			return err
		}

		if index < first {
			return etcd_raft.ErrCompacted
		}

		if index > last {
			return etcd_raft.ErrUnavailable
		}

		iter, err := txn.Keys(keys.All().Lte(keys.Uint64ToKey(index)), kv.SortOrderAsc)

		if err != nil {
			return err
		}

		var compacted [][]byte

		for iter.Next() {
			compacted = append(compacted, append([]byte{}, iter.Key()...))
		}

		if err := iter.Error(); err != nil {
			return err
		}

		for _, key := range compacted {
			if err := txn.Delete(key); err != nil {
				return fmt.Errorf("could not delete entry %x: %w", key, err)
			}
		}

		return txn.SetMetadata(keys.Uint64ToKey(index + 1))
	})
}

func firstIndex(txn kv.Transaction) (uint64, error) {
	metadata, err := txn.Metadata()

	if err != nil {
		return 0, fmt.Errorf("could not read log metadata: %w", err)
	}

	first, ok := keys.KeyToUint64(metadata)

	if !ok {
		return 0, fmt.Errorf("log metadata is corrupt: %x", metadata)
	}

	return first, nil
}

func lastIndex(txn kv.Transaction) (uint64, error) {
	iter, err := txn.Keys(keys.All(), kv.SortOrderDesc)

	if err != nil {
		return 0, err
	}

	if iter.Next() {
		last, ok := keys.KeyToUint64(iter.Key())

		if !ok {
			return 0, fmt.Errorf("log key is corrupt: %x", iter.Key())
		}

		return last, nil
	}

	if err := iter.Error(); err != nil {
		return 0, err
	}

	first, err := firstIndex(txn)

	if err != nil {
		return 0, err
	}

	return first - 1, nil
}

func (log *KVLog) view(fn func(txn kv.Transaction) error) error {
	transaction, err := log.partition.Begin(false)

	if err != nil {
		return err
	}

	defer transaction.Rollback()

	return fn(transaction)
}

func (log *KVLog) update(fn func(txn kv.Transaction) error) error {
	transaction, err := log.partition.Begin(true)

	if err != nil {
		return err
	}

	defer transaction.Rollback()

	if err := fn(transaction); err != nil {
		return err
	}

	if err := transaction.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	return nil
}
