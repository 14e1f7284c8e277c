package page

import (
	"reflect"
	"testing"

	"github.com/vango-dev/isopage/internal/errors"
	"github.com/vango-dev/isopage/pkg/meta"
)

func TestMergeControllerWins(t *testing.T) {
	got := Merge(Resources{"a": 1}, Resources{"a": 2, "b": 3})
	want := Resources{"a": 1, "b": 3}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Merge = %v, want %v", got, want)
	}
}

func TestMergeExtensionOrder(t *testing.T) {
	got := Merge(nil, Resources{"x": "first"}, Resources{"x": "second"})
	if got["x"] != "second" {
		t.Errorf("x = %v, want later extension to win", got["x"])
	}
	if got := Merge(nil); len(got) != 0 {
		t.Errorf("Merge() = %v, want empty", got)
	}
}

func TestStateStoreSetPublishes(t *testing.T) {
	s := NewStateStore(nil)
	var published []State
	s.Subscribe(func(st State) { published = append(published, st) })

	s.Set(State{"a": 1})
	s.Set(State{"b": 2})
	s.Set(nil)

	if len(published) != 2 {
		t.Fatalf("published %d times, want 2", len(published))
	}
	if !reflect.DeepEqual(published[1], State{"a": 1, "b": 2}) {
		t.Errorf("last publish = %v", published[1])
	}
}

func TestStateStoreTransactionPublishesOnce(t *testing.T) {
	s := NewStateStore(nil)
	count := 0
	unsubscribe := s.Subscribe(func(State) { count++ })

	s.Begin()
	s.Set(State{"a": 1})
	s.Set(State{"a": 2, "b": 1})
	if count != 0 {
		t.Fatalf("published during transaction")
	}
	if _, ok := s.Get()["a"]; ok {
		t.Fatalf("queued patch visible before commit")
	}
	s.Commit()

	if count != 1 {
		t.Errorf("published %d times, want 1", count)
	}
	if !reflect.DeepEqual(s.Get(), State{"a": 2, "b": 1}) {
		t.Errorf("state = %v", s.Get())
	}

	s.Commit()
	if count != 1 {
		t.Errorf("commit without transaction published")
	}

	unsubscribe()
	s.Set(State{"c": 1})
	if count != 1 {
		t.Errorf("published after unsubscribe")
	}
}

func TestStateStoreCancelAndClear(t *testing.T) {
	s := NewStateStore(nil)
	s.Set(State{"a": 1})

	s.Begin()
	s.Set(State{"a": 2})
	s.Cancel()
	if s.InTransaction() {
		t.Error("transaction still open after Cancel")
	}
	if s.Get()["a"] != 1 {
		t.Errorf("a = %v, want 1", s.Get()["a"])
	}

	s.Begin()
	s.Clear()
	if s.InTransaction() || len(s.Get()) != 0 {
		t.Error("Clear should empty state and drop the transaction")
	}
}

func TestScopedState(t *testing.T) {
	s := NewStateStore(nil)
	s.Set(State{"user": "ann", "secret": "x"})

	scoped := s.Scoped([]string{"user", "theme"})
	if got := scoped.Get(); !reflect.DeepEqual(got, State{"user": "ann"}) {
		t.Errorf("Get = %v", got)
	}

	err := scoped.Set(State{"theme": "dark", "secret": "y", "admin": true})
	if !errors.Is(err, errors.ErrStateKeyDenied) {
		t.Fatalf("err = %v, want state key error", err)
	}
	if got := s.Get(); got["theme"] != "dark" || got["secret"] != "x" || got["admin"] != nil {
		t.Errorf("state = %v", got)
	}
	if !scoped.Allows("user") || scoped.Allows("secret") {
		t.Error("Allows mismatch")
	}
	if err := scoped.Set(State{"user": "bob"}); err != nil {
		t.Errorf("allowed Set: %v", err)
	}
}

func TestBaseExtensionWithoutAccessor(t *testing.T) {
	ext := &BaseExtension{AllowedKeys: []string{"a"}}
	if err := ext.SetState(State{"a": 1}); err != nil {
		t.Errorf("SetState = %v", err)
	}
	if len(ext.State()) != 0 {
		t.Error("unbound extension state should be empty")
	}

	store := NewStateStore(nil)
	ext.SetStateAccessor(store.Scoped(ext.AllowedStateKeys()))
	if err := ext.SetState(State{"a": 1}); err != nil {
		t.Fatal(err)
	}
	if ext.State()["a"] != 1 {
		t.Errorf("a = %v", ext.State()["a"])
	}
}

type testController struct {
	BaseController
}

func (c *testController) SetMetaParams(state State, m *meta.Manager) {
	m.SetTitle(state["title"].(string))
}

func TestBaseControllerDefaults(t *testing.T) {
	c := &testController{}
	if c.HTTPStatus() != 200 {
		t.Errorf("HTTPStatus = %d", c.HTTPStatus())
	}
	c.SetHTTPStatus(404)
	if c.HTTPStatus() != 404 {
		t.Errorf("HTTPStatus = %d", c.HTTPStatus())
	}

	params := Params{"id": "1"}
	c.SetRouteParams(params)
	params["id"] = "2"
	if c.RouteParams()["id"] != "1" {
		t.Error("route params should be copied")
	}

	c.AddExtension(&BaseExtension{})
	if len(c.Extensions()) != 1 {
		t.Error("extension not attached")
	}

	c.BeginStateTransaction()
	c.SetState(State{"a": 1})
	c.CommitStateTransaction()
	if c.State()["a"] != 1 {
		t.Errorf("state = %v", c.State())
	}
}

func TestDecoratedControllerMeta(t *testing.T) {
	m := meta.NewManager()
	m.SetMetaName("stale", "x")

	d := Decorate(&testController{}, m)
	d.SetMetaParams(State{"title": "Hello"})

	if d.MetaManager().Title() != "Hello" {
		t.Errorf("Title = %q", d.MetaManager().Title())
	}
	if d.MetaManager().MetaName("stale") != "" {
		t.Error("registry should be cleared before SetMetaParams")
	}
}

func TestDecode(t *testing.T) {
	var out struct {
		Title string   `state:"title"`
		Count int      `state:"count"`
		Tags  []string `state:"tags"`
	}
	err := Decode(State{"title": "T", "count": 3, "tags": []string{"a"}, "extra": 1}, &out)
	if err != nil {
		t.Fatal(err)
	}
	if out.Title != "T" || out.Count != 3 || len(out.Tags) != 1 {
		t.Errorf("out = %+v", out)
	}
}
