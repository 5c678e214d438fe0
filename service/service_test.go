package service_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jrife/tokenbook/errs"
	"github.com/jrife/tokenbook/favorites"
	"github.com/jrife/tokenbook/host"
	"github.com/jrife/tokenbook/outcall"
	"github.com/jrife/tokenbook/price"
	"github.com/jrife/tokenbook/service"
	"github.com/jrife/tokenbook/storage"
	"github.com/jrife/tokenbook/storage/kv/plugins"
	"github.com/jrife/tokenbook/storage/raft"
	"go.uber.org/zap"
)

func newService(t *testing.T, upstream string) (*service.Service, func()) {
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

	h, err := host.New(context.Background(), host.Config{
		Logger:   zap.NewNop(),
		Store:    store,
		Log:      log,
		Replicas: 3,
		NewIssuer: func(name string) outcall.Issuer {
			return outcall.NewHTTPIssuer(outcall.HTTPIssuerConfig{Logger: zap.NewNop()})
		},
		Agreement: outcall.NewAgreement(outcall.AgreementConfig{Logger: zap.NewNop(), Budget: outcall.NewBudget(1_000_000_000)}),
	})

	if err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	fetcher, err := price.New(price.Config{Logger: zap.NewNop(), Outcaller: h, Endpoint: upstream})

	if err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	s, err := service.New(service.Config{Logger: zap.NewNop(), Host: h, Prices: fetcher})

	if err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	return s, func() { rootStore.Delete() }
}

func TestFavorites(t *testing.T) {
	s, cleanup := newService(t, "http://127.0.0.1:1")
	defer cleanup()

	ctx := context.Background()

	if _, err := s.ListFavorites(ctx, "alice"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %#v", err)
	}

	if _, err := s.SaveFavorite(ctx, "alice", favorites.Token{Name: " ", Symbol: "BTC"}); !errors.Is(err, errs.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %#v", err)
	}

	if _, err := s.SaveFavorite(ctx, "", favorites.Token{Name: "Bitcoin", Symbol: "BTC"}); !errors.Is(err, errs.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for an empty caller, got %#v", err)
	}

	for _, token := range []favorites.Token{{Name: "Bitcoin", Symbol: "BTC"}, {Name: "Ether", Symbol: "ETH"}} {
		if _, err := s.SaveFavorite(ctx, "alice", token); err != nil {
			t.Fatalf("expected err to be nil, got %#v", err)
		}
	}

	if _, err := s.SaveFavorite(ctx, "bob", favorites.Token{Name: "Dogecoin", Symbol: "DOGE"}); err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	message, err := s.RemoveFavorite(ctx, "alice", "eth")

	if err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	if message != "Token Ether removed from favorites" {
		t.Fatalf("unexpected message %q", message)
	}

	if _, err := s.RemoveFavorite(ctx, "alice", "DOGE"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %#v", err)
	}

	tokens, err := s.ListFavorites(ctx, "alice")

	if err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	if diff := cmp.Diff([]favorites.Token{{Name: "Bitcoin", Symbol: "BTC"}}, tokens); diff != "" {
		t.Fatal(diff)
	}

	if _, err := s.RemoveFavorite(ctx, "alice", "btc"); err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	// the emptied record is kept
	tokens, err = s.ListFavorites(ctx, "alice")

	if err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	if diff := cmp.Diff([]favorites.Token{}, tokens); diff != "" {
		t.Fatal(diff)
	}
}

func TestGetPrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("ids") {
		case "bitcoin":
			w.Write([]byte(`{"bitcoin":{"usd":43210.5}}`))
		case "gone":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.Write([]byte(`{}`))
		}
	}))
	defer server.Close()

	s, cleanup := newService(t, server.URL)
	defer cleanup()

	message, err := s.GetPrice(context.Background(), "bitcoin")

	if err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	if message != "The price of bitcoin is $43210.5" {
		t.Fatalf("unexpected message %q", message)
	}

	if _, err := s.GetPrice(context.Background(), "gone"); !errors.Is(err, errs.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %#v", err)
	}

	if _, err := s.GetPrice(context.Background(), "notacoin"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %#v", err)
	}
}
