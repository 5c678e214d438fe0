package marshaled_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jrife/tokenbook/storage/kv"
	"github.com/jrife/tokenbook/storage/kv/keys"
	"github.com/jrife/tokenbook/storage/kv/marshaled"
)

type point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func TestMap(t *testing.T) {
	m := marshaled.New[point](kv.NewFakeMap(), marshaled.JSON[point]{})

	if err := m.Put([]byte("a"), point{X: 1, Y: 2}); err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	if err := m.Put([]byte("b"), point{X: 3, Y: 4}); err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	p, ok, err := m.Get([]byte("a"))

	if err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	if !ok {
		t.Fatalf("expected key a to exist")
	}

	if diff := cmp.Diff(point{X: 1, Y: 2}, p); diff != "" {
		t.Fatal(diff)
	}

	if _, ok, _ := m.Get([]byte("c")); ok {
		t.Fatalf("expected key c to be absent")
	}

	iter, err := m.Keys(keys.All(), kv.SortOrderDesc)

	if err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	var points []point

	for iter.Next() {
		points = append(points, iter.Value())
	}

	if iter.Error() != nil {
		t.Fatalf("expected err to be nil, got %#v", iter.Error())
	}

	if diff := cmp.Diff([]point{{X: 3, Y: 4}, {X: 1, Y: 2}}, points); diff != "" {
		t.Fatal(diff)
	}
}

func TestMapCorruptValue(t *testing.T) {
	raw := kv.NewFakeMap()

	if err := raw.Put([]byte("a"), []byte("{not json")); err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	m := marshaled.New[point](raw, marshaled.JSON[point]{})

	if _, _, err := m.Get([]byte("a")); err == nil {
		t.Fatalf("expected an unmarshal error")
	}

	iter, _ := m.Keys(keys.All(), kv.SortOrderAsc)

	if iter.Next() {
		t.Fatalf("expected iteration to stop at the corrupt value")
	}

	if iter.Error() == nil {
		t.Fatalf("expected iterator error")
	}
}
