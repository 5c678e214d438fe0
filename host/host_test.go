package host_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jrife/tokenbook/errs"
	"github.com/jrife/tokenbook/favorites"
	"github.com/jrife/tokenbook/host"
	"github.com/jrife/tokenbook/metrics"
	"github.com/jrife/tokenbook/outcall"
	sm_favorites "github.com/jrife/tokenbook/state_machine/favorites"
	"github.com/jrife/tokenbook/storage"
	"github.com/jrife/tokenbook/storage/kv"
	"github.com/jrife/tokenbook/storage/kv/plugins"
	"github.com/jrife/tokenbook/storage/raft"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.etcd.io/etcd/raft/v3/raftpb"
	"go.uber.org/zap"
)

type node struct {
	rootStore kv.RootStore
	store     storage.Store
	log       *raft.KVLog
}

func newNode(t *testing.T) *node {
	rootStore, err := plugins.Plugin("memory").NewTempRootStore()

	if err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	store, err := storage.New(storage.StoreConfig{Logger: zap.NewNop(), Store: rootStore.Store([]byte("replicas"))})

	if err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	logStore := rootStore.Store([]byte("log"))

	if err := logStore.Create(); err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	log, err := raft.NewKVLog(raft.KVLogConfig{Logger: zap.NewNop(), Partition: logStore.Partition([]byte("host"))})

	if err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	return &node{rootStore: rootStore, store: store, log: log}
}

func staticIssuer(body string) host.IssuerFactory {
	return func(name string) outcall.Issuer {
		return outcall.IssuerFunc(func(ctx context.Context, request outcall.Request) (outcall.Response, error) {
			return outcall.Response{
				Status:  200,
				Headers: []outcall.Header{{Name: "X-Replica", Value: name}},
				Body:    []byte(body),
			}, nil
		})
	}
}

func (n *node) host(t *testing.T, m *metrics.Metrics) *host.Host {
	h, err := host.New(context.Background(), host.Config{
		Logger:    zap.NewNop(),
		Store:     n.store,
		Log:       n.log,
		Replicas:  3,
		NewIssuer: staticIssuer(`{"bitcoin":{"usd":1}}`),
		Metrics:   m,
	})

	if err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	return h
}

func assertReplicasAgree(t *testing.T, h *host.Host) {
	var expected []favorites.Record

	for i, r := range h.Replicas() {
		records, err := r.Store().Records(context.Background())

		if err != nil {
			t.Fatalf("expected err to be nil, got %#v", err)
		}

		if i == 0 {
			expected = records

			continue
		}

		if diff := cmp.Diff(expected, records); diff != "" {
			t.Fatalf("replica %s differs from the first replica: %s", r.Name(), diff)
		}
	}
}

func TestUpdate(t *testing.T) {
	n := newNode(t)
	defer n.rootStore.Delete()

	m := metrics.New(nil)
	h := n.host(t, m)
	ctx := context.Background()

	if _, err := h.List(ctx, "alice"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before any save, got %#v", err)
	}

	steps := []struct {
		command sm_favorites.Command
		message string
		kind    errs.Kind
	}{
		{command: sm_favorites.Save("alice", favorites.Token{Name: "Bitcoin", Symbol: "BTC"}), message: "Token Bitcoin added to favorites"},
		{command: sm_favorites.Save("alice", favorites.Token{Name: "Ether", Symbol: "ETH"}), message: "Token Ether added to favorites"},
		{command: sm_favorites.Save("alice", favorites.Token{Name: "Bitcoin Cash", Symbol: "btc"}), message: "Token Bitcoin Cash added to favorites"},
		{command: sm_favorites.Remove("alice", "DOGE"), kind: errs.KindNotFound},
		{command: sm_favorites.Save("alice", favorites.Token{Symbol: "X"}), kind: errs.KindInvalidInput},
		{command: sm_favorites.Remove("alice", "BTC"), message: "Token Bitcoin removed from favorites"},
		{command: sm_favorites.Remove("bob", "BTC"), kind: errs.KindNotFound},
	}

	for i, step := range steps {
		message, err := h.Update(ctx, step.command)

		if step.kind != "" {
			if kind := errs.KindOf(err); err == nil || kind != step.kind {
				t.Fatalf("step %d: expected kind %s, got %#v", i, step.kind, err)
			}

			continue
		}

		if err != nil {
			t.Fatalf("step %d: expected err to be nil, got %#v", i, err)
		}

		if message != step.message {
			t.Fatalf("step %d: expected %q, got %q", i, step.message, message)
		}
	}

	tokens, err := h.List(ctx, "alice")

	if err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	if diff := cmp.Diff([]favorites.Token{{Name: "Ether", Symbol: "ETH"}}, tokens); diff != "" {
		t.Fatal(diff)
	}

	if h.Index() != uint64(len(steps)) {
		t.Fatalf("expected index %d, got %d", len(steps), h.Index())
	}

	for _, r := range h.Replicas() {
		if index, err := r.Index(ctx); err != nil || index != uint64(len(steps)) {
			t.Fatalf("expected replica %s at %d, got %d (%v)", r.Name(), len(steps), index, err)
		}
	}

	assertReplicasAgree(t, h)

	if v := testutil.ToFloat64(m.UpdateCounter("save", "ok")); v != 3 {
		t.Fatalf("expected 3 successful saves, got %f", v)
	}

	if v := testutil.ToFloat64(m.UpdateCounter("remove", string(errs.KindNotFound))); v != 2 {
		t.Fatalf("expected 2 failed removes, got %f", v)
	}

	// every applied entry has been compacted
	if first, err := n.log.FirstIndex(); err != nil || first != uint64(len(steps))+1 {
		t.Fatalf("expected the log to start at %d, got %d (%v)", len(steps)+1, first, err)
	}
}

func TestRecovery(t *testing.T) {
	n := newNode(t)
	defer n.rootStore.Delete()

	ctx := context.Background()
	h := n.host(t, nil)

	if _, err := h.Update(ctx, sm_favorites.Save("alice", favorites.Token{Name: "Bitcoin", Symbol: "BTC"})); err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	// Simulate a host that stopped after applying entry 2 to the
	// first replica only.
	data, err := sm_favorites.Save("alice", favorites.Token{Name: "Ether", Symbol: "ETH"}).Marshal()

	if err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	entry := raftpb.Entry{Term: 1, Index: 2, Type: raftpb.EntryNormal, Data: data}

	if err := n.log.Append(entry); err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	if _, err := h.Replicas()[0].Step(entry); err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	restarted := n.host(t, nil)

	if restarted.Index() != 2 {
		t.Fatalf("expected index 2, got %d", restarted.Index())
	}

	for _, r := range restarted.Replicas() {
		tokens, err := r.Favorites(ctx, "alice")

		if err != nil {
			t.Fatalf("expected err to be nil, got %#v", err)
		}

		if diff := cmp.Diff([]favorites.Token{{Name: "Bitcoin", Symbol: "BTC"}, {Name: "Ether", Symbol: "ETH"}}, tokens); diff != "" {
			t.Fatalf("replica %s: %s", r.Name(), diff)
		}
	}

	if message, err := restarted.Update(ctx, sm_favorites.Remove("alice", "eth")); err != nil || message != "Token Ether removed from favorites" {
		t.Fatalf("unexpected result %q (%v)", message, err)
	}

	assertReplicasAgree(t, restarted)
}

func TestUpdateRefusedAfterReplicaFailure(t *testing.T) {
	n := newNode(t)
	defer n.rootStore.Delete()

	ctx := context.Background()
	h := n.host(t, nil)

	// Move one replica ahead so that it rejects the next entry
	if err := h.Replicas()[1].Store().Apply(5).Skip(ctx); err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	if _, err := h.Update(ctx, sm_favorites.Save("alice", favorites.Token{Name: "Bitcoin", Symbol: "BTC"})); !errors.Is(err, errs.ErrInternal) || errs.Message(err) != host.MessageRestartRequired {
		t.Fatalf("expected an internal error, got %#v", err)
	}

	// The entry reached replica-0 but must not be visible
	if _, err := h.List(ctx, "alice"); !errors.Is(err, errs.ErrInternal) || errs.Message(err) != host.MessageRestartRequired {
		t.Fatalf("expected listing to be refused, got %#v", err)
	}

	if _, err := h.Update(ctx, sm_favorites.Save("alice", favorites.Token{Name: "Ether", Symbol: "ETH"})); !errors.Is(err, errs.ErrInternal) {
		t.Fatalf("expected updates to be refused, got %#v", err)
	}

	if _, err := host.New(ctx, host.Config{
		Logger:    zap.NewNop(),
		Store:     n.store,
		Log:       n.log,
		Replicas:  3,
		NewIssuer: staticIssuer(`{}`),
	}); !errors.Is(err, host.ErrDiverged) {
		t.Fatalf("expected ErrDiverged, got %#v", err)
	}
}

func TestOutcall(t *testing.T) {
	n := newNode(t)
	defer n.rootStore.Delete()

	h := n.host(t, nil)

	response, err := h.Outcall(context.Background(), outcall.Request{
		URL:       "https://example.com",
		Transform: &outcall.TransformRef{Function: outcall.TransformHTTPResponse},
	})

	if err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	expected := outcall.Response{Status: 200, Headers: []outcall.Header{}, Body: []byte(`{"bitcoin":{"usd":1}}`)}

	if diff := cmp.Diff(expected, response); diff != "" {
		t.Fatal(diff)
	}

	if _, err := h.Outcall(context.Background(), outcall.Request{URL: "https://example.com"}); !errors.Is(err, outcall.ErrNoTransform) {
		t.Fatalf("expected ErrNoTransform, got %#v", err)
	}
}
