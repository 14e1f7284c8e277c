package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/vango-dev/isopage/pkg/vdom"
)

func TestRenderText(t *testing.T) {
	renderer := NewRenderer(RendererConfig{})

	html, err := renderer.RenderToString(vdom.Text("<script>alert('xss')</script>"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(html, "<script>") {
		t.Errorf("HTML should be escaped, got %q", html)
	}
	if !strings.Contains(html, "&lt;script&gt;") {
		t.Errorf("should contain escaped script tag, got %q", html)
	}
}

func TestRenderElementAssignsHIDs(t *testing.T) {
	renderer := NewRenderer(RendererConfig{})

	node := vdom.Div(vdom.Class("container"),
		vdom.H1(vdom.Text("Title")),
		vdom.Img(vdom.Src("/a.png")),
	)
	html, err := renderer.RenderToString(node)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := `<div class="container" data-hid="h1"><h1 data-hid="h2">Title</h1><img src="/a.png" data-hid="h3"></div>`
	if html != want {
		t.Errorf("got %q, want %q", html, want)
	}
	if node.Children[1].HID != "h3" {
		t.Errorf("HID not recorded on node: %q", node.Children[1].HID)
	}
}

func TestRenderSkipHIDs(t *testing.T) {
	renderer := NewRenderer(RendererConfig{SkipHIDs: true})

	html, err := renderer.RenderToString(vdom.P(vdom.Prop("hidden", true), vdom.Prop("disabled", false), "x"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if html != `<p hidden>x</p>` {
		t.Errorf("got %q", html)
	}
}

func TestRenderComponentAndFragment(t *testing.T) {
	renderer := NewRenderer(RendererConfig{SkipHIDs: true})

	comp := vdom.Func(func() *vdom.VNode {
		return vdom.Fragment(vdom.Span("a"), vdom.Raw("<b>raw</b>"))
	})
	html, err := renderer.RenderToString(vdom.Div(comp))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if html != `<div><span>a</span><b>raw</b></div>` {
		t.Errorf("got %q", html)
	}
}

// The client adopts server markup by parsing it back; the shapes must agree.
func TestRenderRoundTripsThroughParser(t *testing.T) {
	renderer := NewRenderer(RendererConfig{})

	server := vdom.Section(vdom.H1("T & C"), vdom.Ul(vdom.Li("1"), vdom.Li("2")))
	html, err := renderer.RenderToString(server)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	parsed, err := vdom.ParseHTML(html)
	if err != nil {
		t.Fatalf("ParseHTML: %v", err)
	}

	client := vdom.Section(vdom.H1("T & C"), vdom.Ul(vdom.Li("1"), vdom.Li("2")))
	if !vdom.CopyHIDs(parsed[0], client) {
		t.Fatal("server markup should hydrate onto an identical client tree")
	}
	if client.Children[1].Children[1].HID != server.Children[1].Children[1].HID {
		t.Error("HIDs should match between server and hydrated client trees")
	}
}

func TestRenderPage(t *testing.T) {
	renderer := NewRenderer(RendererConfig{})

	var buf bytes.Buffer
	err := renderer.RenderPage(&buf, PageData{
		Body:        vdom.P("Hello"),
		ContainerID: "page",
		Title:       "A <Title>",
		Lang:        "cs",
		Meta:        []MetaTag{{Name: "description", Content: "d"}, {Property: "og:title", Content: "t"}},
		Links:       []LinkTag{{Rel: "canonical", Href: "https://example.com/"}},
		Revival: &Revival{
			Environment: "prod",
			Language:    "cs",
			Cache:       json.RawMessage(`{"k":"</script>"}`),
		},
		ClientScript: "/_isopage/client.js",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	html := buf.String()

	for _, want := range []string{
		"<!DOCTYPE html>",
		`<html lang="cs">`,
		"<title>A &lt;Title&gt;</title>",
		`<meta name="description" content="d" data-isopage-meta>`,
		`<meta property="og:title" content="t" data-isopage-meta>`,
		`<link rel="canonical" href="https://example.com/" data-isopage-meta>`,
		`<div id="page"><p data-hid="h1">Hello</p></div>`,
		`<script id="isopage-revival" type="application/json">`,
		`<script src="/_isopage/client.js" defer></script>`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("page missing %q:\n%s", want, html)
		}
	}
	if strings.Contains(html, `"</script>"`) {
		t.Error("revival payload must not be able to close its script element")
	}
}

func TestDecodeRevival(t *testing.T) {
	rev, err := DecodeRevival(`{"environment":"dev","debug":true,"language":"en","root":"/app"}`)
	if err != nil {
		t.Fatalf("DecodeRevival: %v", err)
	}
	if rev.Environment != "dev" || !rev.Debug || rev.Root != "/app" {
		t.Errorf("unexpected revival %+v", rev)
	}
	if _, err := DecodeRevival("{"); err == nil {
		t.Error("expected error for malformed payload")
	}
}

func TestRenderKeepHIDs(t *testing.T) {
	renderer := NewRenderer(RendererConfig{KeepHIDs: true, HIDPrefix: "c"})

	node := vdom.Ul(vdom.Li("a"), vdom.Li("b"))
	node.HID = "h7"
	html, err := renderer.RenderToString(node)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := `<ul data-hid="h7"><li data-hid="c1">a</li><li data-hid="c2">b</li></ul>`
	if html != want {
		t.Errorf("got %q, want %q", html, want)
	}
}
