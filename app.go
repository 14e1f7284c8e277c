package isopage

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/text/language"

	"github.com/vango-dev/isopage/internal/config"
	"github.com/vango-dev/isopage/internal/errors"
	"github.com/vango-dev/isopage/pkg/cache"
	"github.com/vango-dev/isopage/pkg/livesync"
	"github.com/vango-dev/isopage/pkg/telemetry"
)

// LivePath is the WebSocket endpoint of live sessions.
const LivePath = "/_isopage/live"

// =============================================================================
// App Type
// =============================================================================

// App serves registered pages. Plain requests are rendered on the server;
// navigations arriving over a live session are mounted into that session's
// document and streamed to the browser as patches.
//
//	app, err := isopage.New(cfg)
//	app.Page("/", homeController, homeView)
//	app.Page("/articles/{id}", articleController, articleView, isopage.OnlyUpdate())
//	http.ListenAndServe(cfg.Listen, app)
type App struct {
	config *config.Config
	logger *slog.Logger

	backend  cache.Backend
	cache    *cache.Cache
	live     *livesync.Server
	registry *prometheus.Registry
	metrics  *telemetry.Metrics
	tracer   *telemetry.Tracer

	languages []language.Tag
	matcher   language.Matcher

	mu      sync.Mutex
	routes  []*Route
	handler http.Handler
}

// Option configures an App.
type Option func(*App)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) { a.logger = logger }
}

// WithCacheBackend overrides the cache backend chosen from configuration.
func WithCacheBackend(backend cache.Backend) Option {
	return func(a *App) { a.backend = backend }
}

// WithTracer enables tracing of page navigations.
func WithTracer(tracer *telemetry.Tracer) Option {
	return func(a *App) { a.tracer = tracer }
}

// New creates an App. A nil cfg uses config.New().
func New(cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		cfg = config.New()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{config: cfg}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}

	if a.backend == nil && cfg.Cache.RedisAddr != "" {
		var ropts []cache.RedisOption
		if cfg.Cache.Prefix != "" {
			ropts = append(ropts, cache.WithPrefix(cfg.Cache.Prefix))
		}
		if ttl := cfg.CacheTTL(); ttl > 0 {
			ropts = append(ropts, cache.WithTTL(ttl))
		}
		a.backend = cache.NewRedisBackend(cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB, ropts...)
		a.logger.Info("using redis cache", "addr", cfg.Cache.RedisAddr)
	}
	a.cache = cache.New(a.backend, cache.WithLogger(a.logger))

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(collectors.NewGoCollector())
	a.metrics = telemetry.NewMetrics(telemetry.WithRegistry(a.registry))

	tags, err := parseLanguages(cfg.Languages)
	if err != nil {
		return nil, err
	}
	a.languages = tags
	a.matcher = language.NewMatcher(tags)

	a.live = livesync.NewServer(livesync.Config{
		ContainerID:  cfg.ContainerID,
		TickInterval: cfg.TickInterval(),
		Cache:        a.cache,
		Metrics:      a.metrics,
		Tracer:       a.tracer,
		Logger:       a.logger,
		Debug:        cfg.Debug,
	})

	return a, nil
}

// Config returns the app configuration.
func (a *App) Config() *config.Config { return a.config }

// Cache returns the shared resource cache.
func (a *App) Cache() *cache.Cache { return a.cache }

// Live returns the live session server.
func (a *App) Live() *livesync.Server { return a.live }

// Registry returns the Prometheus registry app metrics are registered in.
func (a *App) Registry() *prometheus.Registry { return a.registry }

// =============================================================================
// http.Handler Implementation
// =============================================================================

// Handler returns the app's HTTP handler. Pages registered after the first
// call are not served.
func (a *App) Handler() http.Handler {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.handler == nil {
		a.handler = a.buildRouter()
		a.live.SetHandler(a.handler)
	}
	return a.handler
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.Handler().ServeHTTP(w, r)
}

func (a *App) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	if a.config.Metrics.Enabled {
		r.Handle(a.config.Metrics.Path, promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	}
	r.Handle(LivePath, a.live)
	if a.config.Static.Dir != "" {
		r.Handle(a.config.Static.Prefix+"*", a.staticHandler())
	}

	for _, route := range a.routes {
		h := a.pageHandler(route)
		r.Get(route.Pattern, h)
		if a.config.LanguagePrefix {
			r.Get(prefixedPattern(route.Pattern), h)
		}
	}
	return r
}

// Render renders target the way a plain GET request would and returns the
// status and markup.
func (a *App) Render(ctx context.Context, target string) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, "", errors.New(errors.CodeDeniedOperation).Wrap(err).WithDetailf("bad target %q", target)
	}
	w := newBufferWriter()
	a.Handler().ServeHTTP(w, req)
	return w.statusCode(), w.body.String(), nil
}

// Close closes live sessions and the cache backend.
func (a *App) Close() error {
	a.live.Close()
	if closer, ok := a.backend.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
