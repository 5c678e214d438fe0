// Package host runs a fixed set of replicas of the favorites state
// machine on one node. Updates are appended to a durable log and
// applied to every replica by a single writer. Queries read from a
// single replica. Outcalls are issued by every replica and must agree.
package host

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jrife/tokenbook/errs"
	"github.com/jrife/tokenbook/favorites"
	"github.com/jrife/tokenbook/identity"
	"github.com/jrife/tokenbook/metrics"
	"github.com/jrife/tokenbook/outcall"
	"github.com/jrife/tokenbook/replica"
	sm_favorites "github.com/jrife/tokenbook/state_machine/favorites"
	"github.com/jrife/tokenbook/storage"
	"github.com/jrife/tokenbook/storage/raft"
	"github.com/jrife/tokenbook/utils/log"
	"github.com/sourcegraph/conc/pool"
	"go.etcd.io/etcd/raft/v3/raftpb"
	"go.uber.org/zap"
)

// ErrDiverged indicates that replicas produced different
// responses or indexes for the same log
var ErrDiverged = errors.New("replicas diverged")

// MessageRestartRequired is reported once an entry reached the log
// but not every replica. The entry is applied by recovery when the
// host restarts.
const MessageRestartRequired = "update was logged but not applied to every replica; it takes effect when the host restarts"

// term is the term of every entry this host appends. A single
// host never changes leadership.
const term = 1

// IssuerFactory builds the outcall issuer for a replica
type IssuerFactory func(replicaName string) outcall.Issuer

// Config configures a Host
type Config struct {
	Logger *zap.Logger
	// Store holds the replica stores
	Store storage.Store
	// Log holds entries that have not reached every replica
	Log raft.Log
	// Replicas is the number of replicas. Defaults to 1.
	Replicas int
	// NewIssuer builds each replica's outcall issuer
	NewIssuer IssuerFactory
	// Agreement runs replicated outcalls
	Agreement *outcall.Agreement
	Metrics   *metrics.Metrics
}

// Host owns the replicas of one node
type Host struct {
	mu        sync.Mutex
	logger    *zap.Logger
	log       raft.Log
	replicas  *replica.ObservableReplicaSet
	agreement *outcall.Agreement
	metrics   *metrics.Metrics
	lastIndex uint64
	// failed is set when an entry could not be applied to every
	// replica. Updates are refused until the host is restarted and
	// recovery replays the entry.
	failed error
}

// ReplicaName returns the name of the i'th replica
func ReplicaName(i int) string {
	return fmt.Sprintf("replica-%d", i)
}

// New creates the replicas, replays any log entries that did not
// reach every replica and returns a host ready for updates
func New(ctx context.Context, config Config) (*Host, error) {
	host := &Host{
		logger:    config.Logger,
		log:       config.Log,
		replicas:  replica.NewObservableReplicaSet(),
		agreement: config.Agreement,
		metrics:   config.Metrics,
	}

	if host.logger == nil {
		host.logger = zap.L()
	}

	if config.Store == nil || config.Log == nil || config.NewIssuer == nil {
		return nil, fmt.Errorf("host requires a store, a log and an issuer factory")
	}

	if host.agreement == nil {
		host.agreement = outcall.NewAgreement(outcall.AgreementConfig{Logger: host.logger, Metrics: host.metrics})
	}

	count := config.Replicas

	if count <= 0 {
		count = 1
	}

	host.replicas.OnAdd(func(r *replica.Replica) {
		host.logger.Info("replica added", zap.String("replica", r.Name()))
	})

	for i := 0; i < count; i++ {
		name := ReplicaName(i)
		replicaStore := config.Store.ReplicaStore(name)

		if err := replicaStore.Create(ctx, []byte(name)); err != nil {
			return nil, fmt.Errorf("could not create replica store %s: %w", name, err)
		}

		r, err := replica.New(replica.Config{
			Store:        replicaStore,
			StateMachine: sm_favorites.New(host.logger),
			Issuer:       config.NewIssuer(name),
		})

		if err != nil {
			return nil, err
		}

		host.replicas.Add(r)
	}

	if err := host.recover(ctx); err != nil {
		return nil, err
	}

	return host, nil
}

// recover brings every replica up to the end of the log
func (host *Host) recover(ctx context.Context) error {
	logger := log.WithContext(ctx, host.logger).With(zap.String("operation", "recover"))

	first, err := host.log.FirstIndex()

	if err != nil {
		return fmt.Errorf("could not read first log index: %w", err)
	}

	last, err := host.log.LastIndex()

	if err != nil {
		return fmt.Errorf("could not read last log index: %w", err)
	}

	for _, r := range host.replicas.List() {
		index, err := r.Index(ctx)

		if err != nil {
			return fmt.Errorf("could not read index of replica %s: %w", r.Name(), err)
		}

		if index >= last {
			continue
		}

		if index+1 < first {
			return fmt.Errorf("%w: replica %s is at %d but the log starts at %d", ErrDiverged, r.Name(), index, first)
		}

		entries, err := host.log.Entries(index+1, last+1, raft.NoLimit)

		if err != nil {
			return fmt.Errorf("could not read log entries: %w", err)
		}

		for _, entry := range entries {
			if _, err := r.Step(entry); err != nil {
				return fmt.Errorf("could not replay entry %d on replica %s: %w", entry.Index, r.Name(), err)
			}
		}

		logger.Info("replayed log entries", zap.String("replica", r.Name()), zap.Int("count", len(entries)))
	}

	var indexes []uint64

	for _, r := range host.replicas.List() {
		index, err := r.Index(ctx)

		if err != nil {
			return fmt.Errorf("could not read index of replica %s: %w", r.Name(), err)
		}

		indexes = append(indexes, index)
	}

	for _, index := range indexes[1:] {
		if index != indexes[0] {
			return fmt.Errorf("%w: replica indexes %v", ErrDiverged, indexes)
		}
	}

	if indexes[0] > last {
		return fmt.Errorf("%w: replicas are at %d but the log ends at %d", ErrDiverged, indexes[0], last)
	}

	host.lastIndex = last

	if first <= last {
		if err := host.log.Compact(last); err != nil {
			return fmt.Errorf("could not compact log: %w", err)
		}
	}

	logger.Info("recovered", zap.Uint64("index", host.lastIndex))

	return nil
}

// Index returns the index of the last applied update
func (host *Host) Index() uint64 {
	host.mu.Lock()
	defer host.mu.Unlock()

	return host.lastIndex
}

// Replicas returns the replicas ordered by name
func (host *Host) Replicas() []*replica.Replica {
	return host.replicas.List()
}

// Update appends command to the log and applies it to every
// replica. It returns the agreed confirmation message or the
// agreed domain failure.
func (host *Host) Update(ctx context.Context, command sm_favorites.Command) (string, error) {
	logger := log.WithContext(ctx, host.logger).With(zap.String("operation", "Update"), zap.String("command", string(command.Op)))
	logger.Debug("start Update()")

	data, err := command.Marshal()

	if err != nil {
		return "", errs.Internal("could not encode command", errs.WithCause(err))
	}

	host.mu.Lock()
	defer host.mu.Unlock()

	if host.failed != nil {
		return "", errs.Internal(MessageRestartRequired, errs.WithCause(host.failed))
	}

	entry := raftpb.Entry{Term: term, Index: host.lastIndex + 1, Type: raftpb.EntryNormal, Data: data}

	if err := host.log.Append(entry); err != nil {
		host.metrics.ObserveUpdate(string(command.Op), "error")
		logger.Error("could not append entry", zap.Error(err))

		return "", errs.Internal("could not append entry", errs.WithCause(err))
	}

	host.lastIndex = entry.Index

	response, err := host.step(ctx, entry)

	if err != nil {
		host.failed = err
		host.metrics.ObserveUpdate(string(command.Op), "error")
		logger.Error("could not apply entry", zap.Uint64("index", entry.Index), zap.Error(err))

		return "", errs.Internal(MessageRestartRequired, errs.WithCause(err))
	}

	if err := host.log.Compact(entry.Index); err != nil {
		logger.Warn("could not compact log", zap.Uint64("index", entry.Index), zap.Error(err))
	}

	result, err := sm_favorites.UnmarshalResult(response)

	if err != nil {
		host.metrics.ObserveUpdate(string(command.Op), "error")

		return "", errs.Internal("could not decode response", errs.WithCause(err))
	}

	if err := result.Err(); err != nil {
		host.metrics.ObserveUpdate(string(command.Op), string(errs.KindOf(err)))
		logger.Debug("return from Update()", zap.Error(err))

		return "", err
	}

	host.metrics.ObserveUpdate(string(command.Op), "ok")
	logger.Debug("return from Update()", zap.Uint64("index", entry.Index))

	return result.Message, nil
}

// step applies entry to every replica concurrently and requires
// every replica to return the same response
func (host *Host) step(ctx context.Context, entry raftpb.Entry) ([]byte, error) {
	replicas := host.replicas.List()
	p := pool.NewWithResults[[]byte]().WithErrors()

	for _, r := range replicas {
		r := r

		p.Go(func() ([]byte, error) {
			response, err := r.Step(entry)

			if err != nil {
				return nil, fmt.Errorf("replica %s: %w", r.Name(), err)
			}

			return response, nil
		})
	}

	responses, err := p.Wait()

	if err != nil {
		return nil, err
	}

	if len(responses) != len(replicas) {
		return nil, fmt.Errorf("%d of %d replicas responded", len(responses), len(replicas))
	}

	for _, response := range responses[1:] {
		if !bytes.Equal(response, responses[0]) {
			log.WithContext(ctx, host.logger).Error("replicas returned different responses", zap.Uint64("index", entry.Index))

			return nil, ErrDiverged
		}
	}

	return responses[0], nil
}

// List returns the owner's favorites as seen by the first replica.
// It refuses to read once replicas may have diverged.
func (host *Host) List(ctx context.Context, owner identity.Principal) ([]favorites.Token, error) {
	host.mu.Lock()
	failed := host.failed
	host.mu.Unlock()

	if failed != nil {
		return nil, errs.Internal(MessageRestartRequired, errs.WithCause(failed))
	}

	replicas := host.replicas.List()

	if len(replicas) == 0 {
		return nil, errs.Internal("no replicas")
	}

	tokens, err := replicas[0].Favorites(ctx, owner)

	if err != nil {
		var classified *errs.Error

		if errors.As(err, &classified) {
			return nil, err
		}

		return nil, errs.Internal("could not list favorites", errs.WithCause(err))
	}

	return tokens, nil
}

// Outcall issues request from every replica and returns the agreed
// transformed response
func (host *Host) Outcall(ctx context.Context, request outcall.Request) (outcall.Response, error) {
	replicas := host.replicas.List()
	issuers := make([]outcall.Issuer, 0, len(replicas))

	for _, r := range replicas {
		issuers = append(issuers, r.Issuer())
	}

	return host.agreement.Call(ctx, request, issuers)
}
