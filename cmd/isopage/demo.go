package main

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/vango-dev/isopage"
	"github.com/vango-dev/isopage/pkg/meta"
	"github.com/vango-dev/isopage/pkg/page"
	"github.com/vango-dev/isopage/pkg/vdom"
)

var articles = map[string]map[string]any{
	"1": {"id": "1", "title": "Rendering twice", "body": "The same view renders on the server and again in the live session."},
	"2": {"id": "2", "title": "Hydration", "body": "The live session adopts the server markup instead of replacing it."},
	"3": {"id": "3", "title": "Batched state", "body": "Resources that resolve together are committed in one render."},
}

// loadDelay stands in for a slow data source.
const loadDelay = 20 * time.Millisecond

func registerDemo(app *isopage.App) {
	app.Page("/",
		page.ControllerFactory{ID: "home", New: func() page.Controller { return newHomeController() }},
		page.ViewFactory{ID: "home", New: func() page.View { return page.ViewFunc(homeView) }},
	)
	app.Page("/articles/{id}",
		page.ControllerFactory{ID: "article", New: func() page.Controller { return newArticleController() }},
		page.ViewFactory{ID: "article", New: func() page.View { return page.ViewFunc(articleView) }},
		isopage.OnlyUpdate(),
	)
	app.Page("/posts/{id}",
		page.ControllerFactory{ID: "legacy", New: func() page.Controller { return &legacyController{} }},
		page.ViewFactory{ID: "legacy", New: func() page.View { return page.ViewFunc(homeView) }},
	)
}

// =============================================================================
// Breadcrumb extension
// =============================================================================

type breadcrumbExtension struct {
	page.BaseExtension
	trail []string
}

func newBreadcrumb(trail ...string) *breadcrumbExtension {
	return &breadcrumbExtension{
		BaseExtension: page.BaseExtension{AllowedKeys: []string{"breadcrumb"}},
		trail:         trail,
	}
}

func (e *breadcrumbExtension) Load(ctx context.Context) (page.Resources, error) {
	return page.Resources{"breadcrumb": e.trail}, nil
}

// =============================================================================
// Home
// =============================================================================

type homeController struct {
	page.BaseController
}

func newHomeController() *homeController {
	c := &homeController{}
	c.AddExtension(newBreadcrumb("Home"))
	return c
}

func (c *homeController) Load(ctx context.Context) (page.Resources, error) {
	ids := make([]string, 0, len(articles))
	for id := range articles {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	list := make([]any, 0, len(ids))
	for _, id := range ids {
		list = append(list, map[string]any{"id": id, "title": articles[id]["title"]})
	}
	return page.Resources{"title": "Articles", "articles": list}, nil
}

func (c *homeController) SetMetaParams(state page.State, m *meta.Manager) {
	m.SetTitle("Articles")
	m.SetMetaName("description", "Demo articles")
}

type homeState struct {
	Breadcrumb []string `state:"breadcrumb"`
	Articles   []struct {
		ID    string `state:"id"`
		Title string `state:"title"`
	} `state:"articles"`
}

// decodeState decodes state into out. Fields that fail to decode keep their
// zero value so the view still renders; the failure is logged.
func decodeState(state page.State, out any) bool {
	if err := page.Decode(state, out); err != nil {
		slog.Default().Warn("decode page state", "error", err)
		return false
	}
	return true
}

func homeView(state page.State) *vdom.VNode {
	var s homeState
	decodeState(state, &s)

	items := make([]any, 0, len(s.Articles))
	for _, a := range s.Articles {
		items = append(items, vdom.Li(vdom.A(vdom.Href("/articles/"+a.ID), vdom.Text(a.Title))))
	}
	return vdom.Main(
		breadcrumbView(s.Breadcrumb),
		vdom.H1(vdom.Text("Articles")),
		vdom.Ul(items...),
	)
}

// =============================================================================
// Article
// =============================================================================

type articleController struct {
	page.BaseController
}

func newArticleController() *articleController {
	c := &articleController{}
	c.AddExtension(newBreadcrumb("Home", "Article"))
	return c
}

func (c *articleController) Load(ctx context.Context) (page.Resources, error) {
	return c.resources(ctx), nil
}

func (c *articleController) Update(ctx context.Context, prevParams page.Params) (page.Resources, error) {
	return c.resources(ctx), nil
}

func (c *articleController) resources(ctx context.Context) page.Resources {
	id := c.RouteParams()["id"]
	found, ok := articles[id]
	if !ok {
		c.SetHTTPStatus(http.StatusNotFound)
		return page.Resources{"title": "Not found", "article": nil}
	}
	c.SetHTTPStatus(http.StatusOK)

	article := isopage.CacheFrom(ctx).GetOrLoad(ctx, "article:"+id, func(ctx context.Context) (any, error) {
		select {
		case <-time.After(loadDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return found, nil
	})
	return page.Resources{"title": found["title"], "article": article}
}

func (c *articleController) SetMetaParams(state page.State, m *meta.Manager) {
	var s articleState
	decodeState(state, &s)
	m.SetTitle(s.Title)
	if s.Article.Body != "" {
		m.SetMetaName("description", s.Article.Body)
	}
}

type articleState struct {
	Title      string   `state:"title"`
	Breadcrumb []string `state:"breadcrumb"`
	Article    struct {
		Body string `state:"body"`
	} `state:"article"`
}

func articleView(state page.State) *vdom.VNode {
	var s articleState
	decodeState(state, &s)

	body := "Loading…"
	if s.Article.Body != "" {
		body = s.Article.Body
	}
	return vdom.Main(
		breadcrumbView(s.Breadcrumb),
		vdom.Article(
			vdom.H1(vdom.Text(s.Title)),
			vdom.P(vdom.Text(body)),
		),
	)
}

// =============================================================================
// Legacy redirect
// =============================================================================

// legacyController redirects old /posts/{id} URLs.
type legacyController struct {
	page.BaseController
}

func (c *legacyController) Load(ctx context.Context) (page.Resources, error) {
	return page.Resources{}, isopage.Redirect(ctx, "/articles/"+c.RouteParams()["id"])
}

func breadcrumbView(trail []string) *vdom.VNode {
	items := make([]any, 0, len(trail))
	for _, label := range trail {
		items = append(items, vdom.Li(vdom.Text(label)))
	}
	return vdom.Nav(vdom.Ul(items...))
}
