package document

import (
	"testing"

	"github.com/vango-dev/isopage/pkg/vdom"
)

const serverMarkup = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>Home</title>
  <meta name="description" content="A" data-isopage-meta>
</head>
<body>
<div id="page"><main data-hid="h1"><h1 data-hid="h2">Hello</h1></main></div>
<div id="modal"></div>
<script id="isopage-revival" type="application/json">{"language":"en"}</script>
</body>
</html>`

func TestParse(t *testing.T) {
	d, err := Parse(serverMarkup)
	if err != nil {
		t.Fatal(err)
	}

	if d.Title() != "Home" {
		t.Errorf("Title = %q", d.Title())
	}
	if d.Revival() != `{"language":"en"}` {
		t.Errorf("Revival = %q", d.Revival())
	}

	var metas int
	for _, n := range d.Head() {
		if n.Tag == "meta" && n.HasAttr("data-isopage-meta") {
			metas++
		}
	}
	if metas != 1 {
		t.Errorf("marked meta tags = %d, want 1", metas)
	}

	page, ok := d.Container("page")
	if !ok {
		t.Fatal("page container missing")
	}
	if page.IsEmpty() {
		t.Fatal("page container should hold prerendered content")
	}
	main := page.Children()[0]
	if main.Tag != "main" || main.HID != "h1" || main.Children[0].HID != "h2" {
		t.Errorf("unexpected container tree: %+v", main)
	}

	modal, ok := d.Container("modal")
	if !ok || !modal.IsEmpty() {
		t.Error("modal container should exist and be empty")
	}
}

func TestRemoveHead(t *testing.T) {
	d := New()
	d.AppendHead(vdom.Meta(vdom.Name("a"), vdom.Data("isopage-meta", "")))
	d.AppendHead(vdom.Meta(vdom.Name("b")))
	d.AppendHead(vdom.Link(vdom.Rel("canonical"), vdom.Data("isopage-meta", "")))

	n := d.RemoveHead(func(v *vdom.VNode) bool { return v.HasAttr("data-isopage-meta") })
	if n != 2 || len(d.Head()) != 1 || d.Head()[0].Attr("name") != "b" {
		t.Errorf("removed %d, head %v", n, d.Head())
	}
}

func TestEvents(t *testing.T) {
	d := New()
	var got []string
	off := d.On(EventUnmounted, func(ev Event) { got = append(got, ev.Target) })
	d.Dispatch(Event{Type: EventUnmounted, Target: "page"})
	d.Dispatch(Event{Type: EventError, Target: "page"})
	off()
	d.Dispatch(Event{Type: EventUnmounted, Target: "page"})

	if len(got) != 1 || got[0] != "page" {
		t.Errorf("got %v", got)
	}
}

func TestScroll(t *testing.T) {
	d := New()
	scrolled := 0
	d.On(EventScroll, func(Event) { scrolled++ })
	d.ScrollTo(0, 120)
	if x, y := d.ScrollPosition(); x != 0 || y != 120 || scrolled != 1 {
		t.Errorf("position (%d,%d), events %d", x, y, scrolled)
	}

	d.RecordScroll(5, 6)
	if x, y := d.ScrollPosition(); x != 5 || y != 6 || scrolled != 1 {
		t.Errorf("recorded (%d,%d), events %d", x, y, scrolled)
	}

	var _ Scroller = d
}

func TestContainerWhitespaceIsEmpty(t *testing.T) {
	d := New()
	c := d.AddContainer("page")
	c.SetChildren(vdom.Text("\n  "))
	if !c.IsEmpty() {
		t.Error("whitespace-only container should be empty")
	}
	c.SetChildren(vdom.Div())
	if c.IsEmpty() {
		t.Error("container with element should not be empty")
	}
	c.Clear()
	if !c.IsEmpty() || d.AddContainer("page") != c {
		t.Error("Clear or AddContainer mismatch")
	}
}
