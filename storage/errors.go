package storage

import (
	"errors"
	"fmt"

	"github.com/jrife/tokenbook/errs"
	"github.com/jrife/tokenbook/storage/kv"
)

func wrapError(wrap string, err error) error {
	var classified *errs.Error

	switch {
	case err == nil:
		return nil
	case errors.Is(err, kv.ErrClosed):
		return ErrClosed
	case errors.Is(err, kv.ErrNoSuchPartition), errors.Is(err, kv.ErrNoSuchStore):
		return ErrNoSuchReplicaStore
	case errors.Is(err, ErrConsistencyViolation), errors.As(err, &classified):
		return err
	}

	return fmt.Errorf("%s: %w", wrap, err)
}

// domainError returns true if err is a classified failure
// that replicas agree on deterministically
func domainError(err error) bool {
	switch errs.KindOf(err) {
	case errs.KindInvalidInput, errs.KindNotFound:
		return true
	}

	return false
}
