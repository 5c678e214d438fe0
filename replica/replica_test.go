package replica_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jrife/tokenbook/favorites"
	"github.com/jrife/tokenbook/outcall"
	"github.com/jrife/tokenbook/replica"
	sm_favorites "github.com/jrife/tokenbook/state_machine/favorites"
	"github.com/jrife/tokenbook/storage"
	"github.com/jrife/tokenbook/storage/kv/plugins"
	"go.etcd.io/etcd/raft/v3/raftpb"
	"go.uber.org/zap"
)

var nopIssuer = outcall.IssuerFunc(func(ctx context.Context, request outcall.Request) (outcall.Response, error) {
	return outcall.Response{Status: 200}, nil
})

func newReplica(t *testing.T, store storage.Store, name string) *replica.Replica {
	replicaStore := store.ReplicaStore(name)

	if err := replicaStore.Create(context.Background(), []byte(name)); err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	r, err := replica.New(replica.Config{
		Store:        replicaStore,
		StateMachine: sm_favorites.New(zap.NewNop()),
		Issuer:       nopIssuer,
	})

	if err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	return r
}

func newStore(t *testing.T) storage.Store {
	rootStore, err := plugins.Plugin("memory").NewTempRootStore()

	if err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	store, err := storage.New(storage.StoreConfig{Logger: zap.NewNop(), Store: rootStore.Store([]byte("replicas"))})

	if err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	return store
}

func TestReplicaStep(t *testing.T) {
	ctx := context.Background()
	r := newReplica(t, newStore(t), "replica-0")
	data, err := sm_favorites.Save("alice", favorites.Token{Name: "Bitcoin", Symbol: "BTC"}).Marshal()

	if err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	if _, err := r.Step(raftpb.Entry{Term: 1, Index: 1, Type: raftpb.EntryNormal, Data: data}); err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	index, err := r.Index(ctx)

	if err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	if index != 1 {
		t.Fatalf("expected index 1, got %d", index)
	}

	tokens, err := r.Favorites(ctx, "alice")

	if err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	if diff := cmp.Diff([]favorites.Token{{Name: "Bitcoin", Symbol: "BTC"}}, tokens); diff != "" {
		t.Fatal(diff)
	}
}

func TestObservableReplicaSet(t *testing.T) {
	store := newStore(t)
	set := replica.NewObservableReplicaSet()
	added := []string{}
	deleted := []string{}

	set.OnAdd(func(r *replica.Replica) { added = append(added, r.Name()) })
	set.OnDelete(func(r *replica.Replica) { deleted = append(deleted, r.Name()) })

	b := newReplica(t, store, "replica-b")
	a := newReplica(t, store, "replica-a")

	set.Add(b)
	set.Add(a)
	set.Add(a)

	if set.Len() != 2 {
		t.Fatalf("expected 2 replicas, got %d", set.Len())
	}

	names := []string{}

	for _, r := range set.List() {
		names = append(names, r.Name())
	}

	if diff := cmp.Diff([]string{"replica-a", "replica-b"}, names); diff != "" {
		t.Fatal(diff)
	}

	if got, ok := set.Get("replica-b"); !ok || got != b {
		t.Fatalf("expected to find replica-b")
	}

	if !set.Delete("replica-b") {
		t.Fatalf("expected replica-b to be deleted")
	}

	if set.Delete("replica-b") {
		t.Fatalf("expected a second delete to report false")
	}

	if diff := cmp.Diff([]string{"replica-b", "replica-a"}, added); diff != "" {
		t.Fatal(diff)
	}

	if diff := cmp.Diff([]string{"replica-b"}, deleted); diff != "" {
		t.Fatal(diff)
	}
}

func TestObservableReplicaSetDuplicateName(t *testing.T) {
	set := replica.NewObservableReplicaSet()
	set.Add(newReplica(t, newStore(t), "replica-0"))

	defer func() {
		if recover() == nil {
			t.Fatalf("expected a panic for a duplicate name")
		}
	}()

	set.Add(newReplica(t, newStore(t), "replica-0"))
}
