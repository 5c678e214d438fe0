// Package raft persists the log of committed entries that a host
// fans out to its replicas. An entry is appended before any replica
// applies it and compacted once every replica has, so a host that
// stops mid fan-out can bring lagging replicas up to date on restart.
package raft

import (
	"errors"

	"go.etcd.io/etcd/raft/v3/raftpb"
)

// ErrNotContiguous is returned when appended entries do not
// immediately follow the last entry in the log
var ErrNotContiguous = errors.New("entries are not contiguous with the log")

// Log is a durable sequence of entries with consecutive indexes
type Log interface {
	// FirstIndex returns the index of the first entry that has
	// not been compacted. It may be LastIndex()+1 if the log
	// holds no entries.
	FirstIndex() (uint64, error)
	// LastIndex returns the index of the last entry ever appended
	LastIndex() (uint64, error)
	// Append adds entries to the end of the log. The first entry's
	// index must be LastIndex()+1 and indexes must be consecutive.
	Append(entries ...raftpb.Entry) error
	// Entries returns the entries in [lo,hi). maxSize limits the total
	// size of the returned entries but at least one entry is returned
	// if the range is not empty. It returns etcd raft's ErrCompacted if
	// lo precedes FirstIndex() and ErrUnavailable if hi is past
	// LastIndex()+1.
	Entries(lo, hi, maxSize uint64) ([]raftpb.Entry, error)
	// Compact discards every entry up to and including index
	Compact(index uint64) error
}
