package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestGetOrLoad(t *testing.T) {
	ctx := context.Background()
	c := New(nil)

	var calls atomic.Int32
	release := make(chan struct{})
	load := func(ctx context.Context) (any, error) {
		calls.Add(1)
		<-release
		return map[string]any{"name": "ann"}, nil
	}

	first := c.GetOrLoad(ctx, "user:1", load)
	second := c.GetOrLoad(ctx, "user:1", load)
	if first != second {
		t.Error("concurrent loads of one key should share a pending value")
	}
	close(release)

	v, err := first.Wait(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if v.(map[string]any)["name"] != "ann" {
		t.Errorf("value = %v", v)
	}

	third := c.GetOrLoad(ctx, "user:1", load)
	if !third.Settled() {
		t.Error("stored entry should resolve immediately")
	}
	if calls.Load() != 1 {
		t.Errorf("loader called %d times, want 1", calls.Load())
	}
}

func TestGetOrLoadRejection(t *testing.T) {
	ctx := context.Background()
	c := New(nil)
	boom := errors.New("boom")

	p := c.GetOrLoad(ctx, "k", func(context.Context) (any, error) { return nil, boom })
	waitCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if _, err := p.Wait(waitCtx); !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Error("failed load should not be stored")
	}
}

func TestSnapshotRestore(t *testing.T) {
	ctx := context.Background()
	shared := NewMemoryBackend()
	server := New(shared)

	if err := shared.Set(ctx, "untouched", []byte(`1`)); err != nil {
		t.Fatal(err)
	}
	if err := server.Set(ctx, "posts", []any{"a", "b"}); err != nil {
		t.Fatal(err)
	}

	snap, err := server.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if string(snap) != `{"posts":["a","b"]}` {
		t.Errorf("snapshot = %s", snap)
	}

	client := New(nil)
	if err := client.Restore(ctx, snap); err != nil {
		t.Fatal(err)
	}
	v, ok, err := client.Get(ctx, "posts")
	if err != nil || !ok {
		t.Fatalf("Get = %v %v", ok, err)
	}
	if len(v.([]any)) != 2 {
		t.Errorf("restored %v", v)
	}
	if err := client.Restore(ctx, nil); err != nil {
		t.Errorf("empty restore: %v", err)
	}
}

func TestSessionIsolatesSnapshot(t *testing.T) {
	ctx := context.Background()
	root := New(nil)
	a, b := root.Session(), root.Session()

	if err := a.Set(ctx, "x", 1); err != nil {
		t.Fatal(err)
	}
	if b.Len() != 0 {
		t.Error("sessions should record touched entries separately")
	}
	if _, ok, _ := b.Get(ctx, "x"); !ok {
		t.Error("sessions should share the backend")
	}
	if b.Len() != 1 {
		t.Error("reading through a session should record the entry")
	}
}
