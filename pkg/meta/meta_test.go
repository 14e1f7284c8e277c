package meta

import (
	"reflect"
	"testing"
)

func TestManager(t *testing.T) {
	m := NewManager().
		SetTitle("Home").
		SetMetaName("description", "A").
		SetMetaName("description", "B").
		SetMetaName("author", "me").
		SetMetaProperty("og:title", "Home").
		SetLink("canonical", "https://example.com/")

	if m.Title() != "Home" {
		t.Errorf("Title = %q", m.Title())
	}
	if m.MetaName("description") != "B" {
		t.Errorf("description = %q, want last write", m.MetaName("description"))
	}
	if got := m.MetaNames(); !reflect.DeepEqual(got, []string{"author", "description"}) {
		t.Errorf("MetaNames = %v", got)
	}
	if m.MetaProperty("og:title") != "Home" || len(m.MetaProperties()) != 1 {
		t.Error("unexpected properties")
	}
	if m.Link("canonical") != "https://example.com/" || len(m.Links()) != 1 {
		t.Error("unexpected links")
	}

	m.Clear()
	if m.Title() != "" || len(m.MetaNames()) != 0 || len(m.Links()) != 0 {
		t.Error("Clear should empty the registry")
	}
}
