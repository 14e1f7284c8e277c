package pending

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/vango-dev/isopage/internal/errors"
)

func TestValueSettlesOnce(t *testing.T) {
	p := New()
	if p.Settled() {
		t.Fatal("new value should not be settled")
	}
	if !p.Resolve(1) {
		t.Fatal("first Resolve should settle")
	}
	if p.Resolve(2) || p.Reject(stderrors.New("x")) {
		t.Fatal("second settle should be ignored")
	}

	v, err := p.Wait(context.Background())
	if err != nil || v != 1 {
		t.Fatalf("Wait = %v, %v", v, err)
	}
}

func TestWaitContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Wait(ctx)
	if !stderrors.Is(err, context.Canceled) {
		t.Fatalf("Wait error = %v", err)
	}
}

func TestGoAndThen(t *testing.T) {
	p := Go(context.Background(), func(ctx context.Context) (any, error) {
		return "ok", nil
	})

	got := make(chan any, 1)
	p.Then(func(v any, err error) { got <- v })

	select {
	case v := <-got:
		if v != "ok" {
			t.Errorf("Then value = %v", v)
		}
	case <-time.After(time.Second):
		t.Fatal("Then callback not called")
	}
}

func TestSplit(t *testing.T) {
	p := New()
	values, deferred := Split(map[string]any{"x": "sync", "y": p, "z": nil})

	if len(values) != 2 || values["x"] != "sync" {
		t.Errorf("values = %v", values)
	}
	if _, ok := values["z"]; !ok {
		t.Error("nil values are resolved values")
	}
	if len(deferred) != 1 || deferred["y"] != p {
		t.Errorf("deferred = %v", deferred)
	}
}

func TestAwaitAllPreservesKeys(t *testing.T) {
	late := New()
	go func() {
		time.Sleep(5 * time.Millisecond)
		late.Resolve("async")
	}()

	got, err := AwaitAll(context.Background(), map[string]any{
		"x": "sync",
		"y": late,
		"z": Resolved(3),
	})
	if err != nil {
		t.Fatalf("AwaitAll: %v", err)
	}
	if got["x"] != "sync" || got["y"] != "async" || got["z"] != 3 {
		t.Errorf("got %v", got)
	}
}

func TestAwaitAllRejection(t *testing.T) {
	cause := stderrors.New("backend down")
	_, err := AwaitAll(context.Background(), map[string]any{
		"ok":   Resolved(1),
		"bad":  Rejected(cause),
		"slow": New(),
	})
	if !errors.Is(err, errors.ErrResourceLoad) {
		t.Fatalf("error = %v, want resource error", err)
	}
	if !stderrors.Is(err, cause) {
		t.Error("cause should be wrapped")
	}
}

func TestWaitSettled(t *testing.T) {
	deferred := map[string]*Value{"a": Rejected(stderrors.New("x")), "b": Resolved(1)}
	if err := WaitSettled(context.Background(), deferred); err != nil {
		t.Fatalf("WaitSettled: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	if err := WaitSettled(ctx, map[string]*Value{"never": New()}); err == nil {
		t.Fatal("expected context error")
	}
}
