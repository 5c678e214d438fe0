// Package favorites implements the state machine that applies
// favorites commands to a replica store.
package favorites

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/jrife/tokenbook/errs"
	"github.com/jrife/tokenbook/state_machine"
	"github.com/jrife/tokenbook/storage"
	"github.com/jrife/tokenbook/utils/log"
	"go.etcd.io/etcd/raft/v3/raftpb"
	"go.uber.org/zap"
)

var _ state_machine.StateMachine = (*StateMachine)(nil)

// StateMachine applies Commands to a replica store
type StateMachine struct {
	logger *zap.Logger
	store  storage.ReplicaStore
}

// New creates a favorites state machine
func New(logger *zap.Logger) *StateMachine {
	if logger == nil {
		logger = zap.L()
	}

	return &StateMachine{logger: logger}
}

// Init implements StateMachine.Init
func (sm *StateMachine) Init(store storage.ReplicaStore) error {
	if store == nil {
		return fmt.Errorf("replica store is required")
	}

	sm.store = store
	sm.logger = sm.logger.With(zap.String("replica", store.Name()))

	return nil
}

// Step implements StateMachine.Step. Entries that carry no
// command, such as the empty entries appended on leader change,
// are skipped without consuming their index.
func (sm *StateMachine) Step(entry raftpb.Entry) ([]byte, error) {
	if sm.store == nil {
		return nil, state_machine.ErrNotInitialized
	}

	if entry.Type != raftpb.EntryNormal || len(entry.Data) == 0 {
		return nil, nil
	}

	ctx := log.WithFields(context.Background(), zap.Uint64("index", entry.Index))
	logger := log.WithContext(ctx, sm.logger).With(zap.String("operation", "Step"))
	logger.Debug("start Step()")

	update := sm.store.Apply(entry.Index)
	message, err := sm.apply(ctx, update, entry.Data)

	if err != nil && !domainError(err) {
		logger.Error("could not apply entry", zap.Error(err))

		return nil, err
	}

	if err != nil {
		logger.Debug("return from Step()", zap.String("kind", string(errs.KindOf(err))))

		return encode(Result{Error: &ResultError{Kind: errs.KindOf(err), Message: errs.Message(err)}})
	}

	logger.Debug("return from Step()")

	return encode(Result{Message: message})
}

// apply runs the command in data as update. Commands that are
// rejected before reaching the store still consume the index so
// that every replica's index follows the log.
func (sm *StateMachine) apply(ctx context.Context, update storage.Update, data []byte) (string, error) {
	command, err := UnmarshalCommand(data)

	if err != nil {
		return "", sm.reject(ctx, update, errs.InvalidInput("malformed command", errs.WithCause(err)))
	}

	switch command.Op {
	case OpSave:
		if command.Token == nil {
			return "", sm.reject(ctx, update, errs.InvalidInput("token is required"))
		}

		return update.SaveFavorite(ctx, command.Owner, *command.Token)
	case OpRemove:
		return update.RemoveFavorite(ctx, command.Owner, command.Symbol)
	}

	return "", sm.reject(ctx, update, errs.InvalidInput(fmt.Sprintf("unknown command %q", command.Op)))
}

func (sm *StateMachine) reject(ctx context.Context, update storage.Update, reason error) error {
	if err := update.Skip(ctx); err != nil {
		return err
	}

	return reason
}

func domainError(err error) bool {
	var classified *errs.Error

	if !errors.As(err, &classified) {
		return false
	}

	return classified.Kind == errs.KindInvalidInput || classified.Kind == errs.KindNotFound
}

func encode(result Result) ([]byte, error) {
	data, err := json.Marshal(result)

	if err != nil {
		return nil, fmt.Errorf("could not encode result: %s", err)
	}

	return data, nil
}
