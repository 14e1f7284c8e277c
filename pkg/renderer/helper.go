package renderer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vango-dev/isopage/internal/errors"
	"github.com/vango-dev/isopage/pkg/document"
	"github.com/vango-dev/isopage/pkg/meta"
	"github.com/vango-dev/isopage/pkg/page"
	"github.com/vango-dev/isopage/pkg/pending"
	"github.com/vango-dev/isopage/pkg/render"
	"github.com/vango-dev/isopage/pkg/vdom"
)

// Helper holds the steps both renderers share.
type Helper struct {
	logger *slog.Logger
	debug  bool
}

// NewHelper creates a Helper. A nil logger uses slog.Default().
func NewHelper(logger *slog.Logger, debug bool) *Helper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Helper{logger: logger, debug: debug}
}

// Split separates resolved resources from pending ones.
func (h *Helper) Split(resources page.Resources) (page.State, map[string]*pending.Value) {
	values, deferred := pending.Split(resources)
	return page.State(values), deferred
}

// AwaitAll waits for every pending resource and returns the resolved map
// with the same keys.
func (h *Helper) AwaitAll(ctx context.Context, resources page.Resources) (page.State, error) {
	values, err := pending.AwaitAll(ctx, resources)
	if err != nil {
		return nil, err
	}
	return page.State(values), nil
}

// Render calls view.Render and converts a panic into a render error.
func (h *Helper) Render(view page.View, state page.State) (node *vdom.VNode, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errors.CodeRender).WithDetail(fmt.Sprint(r))
		}
	}()
	return view.Render(state), nil
}

// HandleError gives err the code unless it already carries one, and logs it
// in debug mode.
func (h *Helper) HandleError(err error, code string) error {
	if err == nil {
		return nil
	}
	pe := errors.FromError(err, code)
	if h.debug {
		h.logger.Error("page render failed", "code", pe.Code, "error", pe)
	}
	return pe
}

// SyncMeta replaces the registry-owned head elements of doc with the current
// contents of m. Elements without the marker are left alone.
func (h *Helper) SyncMeta(doc *document.Document, m *meta.Manager) {
	doc.SetTitle(m.Title())

	doc.RemoveHead(func(n *vdom.VNode) bool {
		return n.HasAttr(render.MetaMarker)
	})

	for _, name := range m.MetaNames() {
		doc.AppendHead(vdom.Meta(vdom.Name(name), vdom.Content(m.MetaName(name)), vdom.Prop(render.MetaMarker, "")))
	}
	for _, property := range m.MetaProperties() {
		doc.AppendHead(vdom.Meta(vdom.Property(property), vdom.Content(m.MetaProperty(property)), vdom.Prop(render.MetaMarker, "")))
	}
	for _, rel := range m.Links() {
		doc.AppendHead(vdom.Link(vdom.Rel(rel), vdom.Href(m.Link(rel)), vdom.Prop(render.MetaMarker, "")))
	}

	doc.Dispatch(document.Event{Type: document.EventHead})
}

// pageMeta converts the registry into head tags for the server template.
func pageMeta(m *meta.Manager) ([]render.MetaTag, []render.LinkTag) {
	var tags []render.MetaTag
	for _, name := range m.MetaNames() {
		tags = append(tags, render.MetaTag{Name: name, Content: m.MetaName(name)})
	}
	for _, property := range m.MetaProperties() {
		tags = append(tags, render.MetaTag{Property: property, Content: m.MetaProperty(property)})
	}

	var links []render.LinkTag
	for _, rel := range m.Links() {
		links = append(links, render.LinkTag{Rel: rel, Href: m.Link(rel)})
	}
	return tags, links
}
