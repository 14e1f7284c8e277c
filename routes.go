package isopage

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vango-dev/isopage/pkg/lifecycle"
	"github.com/vango-dev/isopage/pkg/livesync"
	"github.com/vango-dev/isopage/pkg/page"
	"github.com/vango-dev/isopage/pkg/render"
	"github.com/vango-dev/isopage/pkg/renderer"
	"github.com/vango-dev/isopage/pkg/response"
)

// Route binds a URL pattern to a controller and a view.
type Route struct {
	// Pattern is a chi pattern, e.g. "/articles/{id}".
	Pattern    string
	Controller page.ControllerFactory
	View       page.ViewFactory

	onlyUpdate     bool
	onlyUpdateFunc func(prevController page.ControllerFactory, prevView page.ViewFactory) bool
}

// RouteOption configures a Route.
type RouteOption func(*Route)

// OnlyUpdate keeps the mounted page and updates it in place when a live
// navigation stays on the same controller and view.
func OnlyUpdate() RouteOption {
	return func(r *Route) { r.onlyUpdate = true }
}

// OnlyUpdateWhen decides per navigation whether the mounted page is updated
// in place. fn receives the factories of the mounted page.
func OnlyUpdateWhen(fn func(prevController page.ControllerFactory, prevView page.ViewFactory) bool) RouteOption {
	return func(r *Route) { r.onlyUpdateFunc = fn }
}

// Page registers a page route. Factories without an ID are identified by
// the pattern.
func (a *App) Page(pattern string, controller page.ControllerFactory, view page.ViewFactory, opts ...RouteOption) *Route {
	if controller.ID == "" {
		controller.ID = pattern
	}
	if view.ID == "" {
		view.ID = pattern
	}
	route := &Route{Pattern: pattern, Controller: controller, View: view}
	for _, opt := range opts {
		opt(route)
	}

	a.mu.Lock()
	a.routes = append(a.routes, route)
	a.mu.Unlock()
	return route
}

// Routes returns the registered routes.
func (a *App) Routes() []*Route {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*Route(nil), a.routes...)
}

func (a *App) pageHandler(route *Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lang, langPath, ok := a.negotiate(r)
		if !ok {
			http.NotFound(w, r)
			return
		}

		scope := &requestScope{language: lang, languagePath: langPath}
		opts := lifecycle.Options{
			URL:            r.URL.RequestURI(),
			OnlyUpdate:     route.onlyUpdate,
			OnlyUpdateFunc: route.onlyUpdateFunc,
		}
		params := routeParams(r)

		if sess, nav, live := livesync.FromContext(r.Context()); live {
			opts.Action = nav.Action
			opts.AutoScroll = nav.AutoScroll
			opts.RestoreScroll = nav.RestoreScroll
			scope.cache = sess.Cache()
			a.serveLive(w, r, sess, route, opts, params, scope)
			return
		}
		a.serveDocument(w, r, route, opts, params, scope)
	}
}

// serveDocument renders the page into a complete document.
func (a *App) serveDocument(w http.ResponseWriter, r *http.Request, route *Route, opts lifecycle.Options, params page.Params, scope *requestScope) {
	res := response.New(w, r)
	scope.response = res
	scope.cache = a.cache.Session()
	ctx := withScope(r.Context(), scope)

	server := renderer.NewServer(renderer.ServerConfig{
		Response:     res,
		Cache:        scope.cache,
		Revival:      a.revival(r, scope),
		ContainerID:  a.config.ContainerID,
		ClientScript: a.config.ClientScript,
		Lang:         scope.language,
		Logger:       a.logger,
		Debug:        a.config.Debug,
	})
	manager := lifecycle.NewManager(lifecycle.Config{
		Renderer: server,
		Variant:  "server",
		Metrics:  a.metrics,
		Tracer:   a.tracer,
		Logger:   a.logger,
	})
	defer manager.Destroy()

	if _, err := manager.Manage(ctx, route.Controller, route.View, opts, params); err != nil {
		a.logger.Error("page render failed", "url", opts.URL, "error", err)
		if !res.IsSent() {
			a.writeError(w, err)
		}
	}
}

// serveLive mounts the page into the session's document. The status written
// here is reported back to the browser.
func (a *App) serveLive(w http.ResponseWriter, r *http.Request, sess *livesync.Session, route *Route, opts lifecycle.Options, params page.Params, scope *requestScope) {
	manager := sess.Manager()
	if manager == nil {
		http.Error(w, "session not attached", http.StatusConflict)
		return
	}

	ctx := withScope(r.Context(), scope)
	result, err := manager.Manage(ctx, route.Controller, route.View, opts, params)

	if location := scope.redirectLocation(); location != "" {
		w.Header().Set("Location", location)
		w.WriteHeader(http.StatusFound)
		return
	}
	if err != nil {
		sess.ReportError(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(result.Status)
}

func (a *App) writeError(w http.ResponseWriter, err error) {
	msg := http.StatusText(http.StatusInternalServerError)
	if a.config.Debug {
		msg = err.Error()
	}
	http.Error(w, msg, http.StatusInternalServerError)
}

func (a *App) revival(r *http.Request, scope *requestScope) render.Revival {
	protocol := a.config.Protocol
	if protocol == "" {
		protocol = "http:"
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			protocol = "https:"
		}
	}
	host := a.config.Host
	if host == "" {
		host = r.Host
	}

	return render.Revival{
		Environment:      a.config.Environment,
		Debug:            a.config.Debug,
		Version:          a.config.Version,
		Language:         scope.language,
		LanguagePartPath: scope.languagePath,
		Protocol:         protocol,
		Host:             host,
		Root:             a.config.Root,
		Path:             r.URL.RequestURI(),
		Config: map[string]any{
			"livePath":       LivePath,
			"containerId":    a.config.ContainerID,
			"tickIntervalMs": a.config.TickIntervalMS,
		},
	}
}

// routeParams merges query values and URL params. URL params win.
func routeParams(r *http.Request) page.Params {
	params := make(page.Params)
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		for i, key := range rctx.URLParams.Keys {
			if key == langParam || key == "*" {
				continue
			}
			params[key] = rctx.URLParams.Values[i]
		}
	}
	return params
}
