package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/vango-dev/isopage/pkg/meta"
	"github.com/vango-dev/isopage/pkg/page"
	"github.com/vango-dev/isopage/pkg/renderer"
	"github.com/vango-dev/isopage/pkg/telemetry"
)

// Config configures a Manager.
type Config struct {
	// Renderer renders every managed page. Required.
	Renderer renderer.Renderer

	// Handlers run around every navigation, in order.
	Handlers []Handler

	// Variant labels render metrics, usually "server" or "client".
	Variant string

	Metrics *telemetry.Metrics
	Tracer  *telemetry.Tracer
	Logger  *slog.Logger
}

// Manager sequences page lifecycles.
type Manager struct {
	config Config
	logger *slog.Logger

	mu      sync.Mutex
	current *ManagedPage
	epoch   uint64
}

// NewManager creates a Manager.
func NewManager(config Config) *Manager {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Variant == "" {
		config.Variant = "unknown"
	}
	return &Manager{
		config: config,
		logger: config.Logger,
	}
}

// Current returns the managed page, or nil.
func (m *Manager) Current() *ManagedPage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Manage runs one navigation and returns the render result. Renderer errors
// are returned unchanged and lifecycle steps already taken are not rolled
// back.
func (m *Manager) Manage(ctx context.Context, controller page.ControllerFactory, view page.ViewFactory, opts Options, params page.Params) (result *renderer.Result, err error) {
	start := time.Now()
	outcome := telemetry.OutcomeMount

	ctx, span := m.config.Tracer.Start(ctx, "lifecycle.Manage",
		attribute.String("page.url", opts.URL),
		attribute.String("page.controller", controller.ID),
	)
	defer func() {
		if err != nil {
			outcome = telemetry.OutcomeError
		}
		span.SetAttributes(attribute.String("page.outcome", outcome))
		telemetry.End(span, err)
		m.config.Metrics.ObserveManage(opts.URL, outcome, time.Since(start))
	}()

	prev := m.Current()
	next := &ManagedPage{
		Controller: controller,
		View:       view,
		Options:    opts,
		Params:     params.Clone(),
	}

	if err := m.preManage(ctx, prev, next, opts.Action); err != nil {
		return nil, err
	}

	if m.onlyUpdate(prev, controller, view, opts) {
		outcome = telemetry.OutcomeUpdate
		m.logger.Debug("updating page in place", "controller", controller.ID, "url", opts.URL)
		return m.update(ctx, prev, opts, params)
	}

	m.logger.Debug("mounting page", "controller", controller.ID, "view", view.ID, "url", opts.URL)
	return m.remount(ctx, prev, next)
}

// Destroy tears down the managed page.
func (m *Manager) Destroy() {
	m.tearDown(m.Current())
}

func (m *Manager) onlyUpdate(prev *ManagedPage, controller page.ControllerFactory, view page.ViewFactory, opts Options) bool {
	m.mu.Lock()
	mounted := prev.mounted()
	m.mu.Unlock()
	if !mounted {
		return false
	}
	if opts.OnlyUpdateFunc != nil {
		return opts.OnlyUpdateFunc(prev.Controller, prev.View)
	}
	return opts.OnlyUpdate &&
		controller.ID != "" && prev.Controller.ID == controller.ID &&
		view.ID != "" && prev.View.ID == view.ID
}

func (m *Manager) update(ctx context.Context, current *ManagedPage, opts Options, params page.Params) (*renderer.Result, error) {
	m.mu.Lock()
	prevParams := current.Params
	current.Params = params.Clone()
	current.Options = opts
	m.mu.Unlock()

	ctrl := current.ControllerInstance
	ctrl.SetRouteParams(params)
	resources, err := ctrl.Update(ctx, prevParams)
	if err != nil {
		return nil, fmt.Errorf("update controller %q: %w", current.Controller.ID, err)
	}

	var extResources []page.Resources
	for _, ext := range current.extensions() {
		ext.SetRouteParams(params)
		r, err := ext.Update(ctx, prevParams)
		if err != nil {
			return nil, fmt.Errorf("update extension of %q: %w", current.Controller.ID, err)
		}
		extResources = append(extResources, r)
	}

	merged := page.Merge(resources, extResources...)

	ctx = renderer.WithEpoch(ctx, current.Epoch)
	spanCtx, span := m.config.Tracer.Start(ctx, "renderer.Update")
	result, err := m.config.Renderer.Update(spanCtx, current.Decorated, current.ViewInstance, merged)
	telemetry.End(span, err)
	m.config.Metrics.ObserveRender(m.config.Variant, "update", err)
	if err != nil {
		return nil, err
	}

	m.activate(current)
	if err := m.postManage(ctx, current, current, opts.Action); err != nil {
		return nil, err
	}
	return result, nil
}

func (m *Manager) remount(ctx context.Context, prev, next *ManagedPage) (*renderer.Result, error) {
	m.tearDown(prev)

	ctrl := next.Controller.New()
	decorated := page.Decorate(ctrl, meta.NewManager())
	store := page.NewStateStore(m.logger)
	ctrl.SetStateStore(store)
	for _, ext := range ctrl.Extensions() {
		ext.SetStateAccessor(store.Scoped(ext.AllowedStateKeys()))
	}

	m.mu.Lock()
	m.epoch++
	next.Epoch = m.epoch
	next.ControllerInstance = ctrl
	next.Decorated = decorated
	next.ViewInstance = next.View.New()
	next.State = StateCreated
	m.current = next
	m.mu.Unlock()

	if err := m.initPage(ctx, next); err != nil {
		return nil, err
	}

	resources, err := m.loadPage(ctx, next)
	if err != nil {
		return nil, err
	}

	ctx = renderer.WithEpoch(ctx, next.Epoch)
	spanCtx, span := m.config.Tracer.Start(ctx, "renderer.Mount")
	result, err := m.config.Renderer.Mount(spanCtx, decorated, next.ViewInstance, resources, renderer.RouteOptions{
		URL:        next.Options.URL,
		Params:     next.Params.Clone(),
		AutoScroll: next.Options.AutoScroll,
	})
	telemetry.End(span, err)
	m.config.Metrics.ObserveRender(m.config.Variant, "mount", err)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	stale := m.current != next
	if !stale {
		next.State = StateMounted
	}
	m.mu.Unlock()
	if stale {
		m.logger.Debug("page replaced during mount, skipping activation", "controller", next.Controller.ID)
		return result, nil
	}

	m.activate(next)
	if err := m.postManage(ctx, prev, next, next.Options.Action); err != nil {
		return nil, err
	}
	return result, nil
}

func (m *Manager) initPage(ctx context.Context, p *ManagedPage) error {
	ctrl := p.ControllerInstance
	ctrl.SetRouteParams(p.Params)
	if err := ctrl.Init(ctx); err != nil {
		return fmt.Errorf("init controller %q: %w", p.Controller.ID, err)
	}
	for _, ext := range p.extensions() {
		ext.SetRouteParams(p.Params)
		if err := ext.Init(ctx); err != nil {
			return fmt.Errorf("init extension of %q: %w", p.Controller.ID, err)
		}
	}
	m.setState(p, StateInitialized)
	return nil
}

func (m *Manager) loadPage(ctx context.Context, p *ManagedPage) (page.Resources, error) {
	resources, err := p.ControllerInstance.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load controller %q: %w", p.Controller.ID, err)
	}

	var extResources []page.Resources
	for _, ext := range p.extensions() {
		r, err := ext.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load extension of %q: %w", p.Controller.ID, err)
		}
		extResources = append(extResources, r)
	}
	m.setState(p, StateLoaded)
	return page.Merge(resources, extResources...), nil
}

// activate activates the controller and then its extensions, unless the page
// is already active.
func (m *Manager) activate(p *ManagedPage) {
	m.mu.Lock()
	if p.Activated {
		m.mu.Unlock()
		return
	}
	p.Activated = true
	p.State = StateActivated
	m.mu.Unlock()

	p.ControllerInstance.Activate()
	for _, ext := range p.extensions() {
		ext.Activate()
	}
}

func (m *Manager) deactivate(p *ManagedPage) {
	m.mu.Lock()
	if !p.Activated {
		m.mu.Unlock()
		return
	}
	p.Activated = false
	p.State = StateDeactivated
	m.mu.Unlock()

	p.ControllerInstance.Deactivate()
	for _, ext := range p.extensions() {
		ext.Deactivate()
	}
}

// tearDown deactivates and destroys p, clears its state, unmounts the
// renderer and forgets p.
func (m *Manager) tearDown(p *ManagedPage) {
	if p == nil || p.ControllerInstance == nil {
		return
	}
	m.deactivate(p)

	p.ControllerInstance.Destroy()
	for _, ext := range p.extensions() {
		ext.Destroy()
	}
	p.ControllerInstance.StateStore().Clear()
	m.config.Renderer.Unmount()

	m.mu.Lock()
	p.State = StateDestroyed
	if m.current == p {
		m.current = nil
	}
	m.mu.Unlock()
}

func (m *Manager) setState(p *ManagedPage, s PageState) {
	m.mu.Lock()
	p.State = s
	m.mu.Unlock()
}

func (m *Manager) preManage(ctx context.Context, prev, next *ManagedPage, action Action) error {
	t := Transition{Previous: prev, Next: next, Action: action}
	for _, h := range m.config.Handlers {
		if err := h.PreManage(ctx, t); err != nil {
			return fmt.Errorf("page handler: %w", err)
		}
	}
	return nil
}

func (m *Manager) postManage(ctx context.Context, prev, next *ManagedPage, action Action) error {
	t := Transition{Previous: prev, Next: next, Action: action}
	for _, h := range m.config.Handlers {
		if err := h.PostManage(ctx, t); err != nil {
			return fmt.Errorf("page handler: %w", err)
		}
	}
	return nil
}
