package page

import (
	"context"
	"net/http"
	"sync"

	"github.com/vango-dev/isopage/pkg/meta"
)

// BaseController provides default implementations of every Controller
// method. Embed it and override the hooks you need.
type BaseController struct {
	mu         sync.RWMutex
	store      *StateStore
	params     Params
	extensions []Extension
	status     int
}

func (c *BaseController) Init(ctx context.Context) error { return nil }

func (c *BaseController) Load(ctx context.Context) (Resources, error) {
	return Resources{}, nil
}

func (c *BaseController) Update(ctx context.Context, prevParams Params) (Resources, error) {
	return Resources{}, nil
}

func (c *BaseController) Activate() {}

func (c *BaseController) Deactivate() {}

func (c *BaseController) Destroy() {}

// SetRouteParams stores the route params.
func (c *BaseController) SetRouteParams(params Params) {
	c.mu.Lock()
	c.params = params.Clone()
	c.mu.Unlock()
}

// RouteParams returns the route params.
func (c *BaseController) RouteParams() Params {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.params.Clone()
}

// AddExtension attaches an extension. Call it from the controller
// constructor, before the page is initialized.
func (c *BaseController) AddExtension(ext Extension) {
	c.mu.Lock()
	c.extensions = append(c.extensions, ext)
	c.mu.Unlock()
}

// Extensions returns the attached extensions in order.
func (c *BaseController) Extensions() []Extension {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Extension, len(c.extensions))
	copy(out, c.extensions)
	return out
}

// SetStateStore binds the page state store.
func (c *BaseController) SetStateStore(store *StateStore) {
	c.mu.Lock()
	c.store = store
	c.mu.Unlock()
}

// StateStore returns the bound store, creating a private one if none is bound.
func (c *BaseController) StateStore() *StateStore {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = NewStateStore(nil)
	}
	return c.store
}

func (c *BaseController) State() State { return c.StateStore().Get() }

func (c *BaseController) SetState(patch State) { c.StateStore().Set(patch) }

func (c *BaseController) BeginStateTransaction() { c.StateStore().Begin() }

func (c *BaseController) CommitStateTransaction() { c.StateStore().Commit() }

func (c *BaseController) CancelStateTransaction() { c.StateStore().Cancel() }

// HTTPStatus returns the page status code, 200 unless set.
func (c *BaseController) HTTPStatus() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.status == 0 {
		return http.StatusOK
	}
	return c.status
}

// SetHTTPStatus sets the page status code.
func (c *BaseController) SetHTTPStatus(code int) {
	c.mu.Lock()
	c.status = code
	c.mu.Unlock()
}

func (c *BaseController) SetMetaParams(state State, m *meta.Manager) {}

// BaseExtension provides default implementations of every Extension method.
// Set AllowedKeys to the state keys the extension owns.
type BaseExtension struct {
	AllowedKeys []string

	mu       sync.RWMutex
	accessor *ScopedState
	params   Params
}

func (e *BaseExtension) Init(ctx context.Context) error { return nil }

func (e *BaseExtension) Load(ctx context.Context) (Resources, error) {
	return Resources{}, nil
}

func (e *BaseExtension) Update(ctx context.Context, prevParams Params) (Resources, error) {
	return Resources{}, nil
}

func (e *BaseExtension) Activate() {}

func (e *BaseExtension) Deactivate() {}

func (e *BaseExtension) Destroy() {}

func (e *BaseExtension) SetRouteParams(params Params) {
	e.mu.Lock()
	e.params = params.Clone()
	e.mu.Unlock()
}

func (e *BaseExtension) RouteParams() Params {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.params.Clone()
}

func (e *BaseExtension) AllowedStateKeys() []string {
	return e.AllowedKeys
}

func (e *BaseExtension) SetStateAccessor(accessor *ScopedState) {
	e.mu.Lock()
	e.accessor = accessor
	e.mu.Unlock()
}

// State returns the extension's slice of the page state.
func (e *BaseExtension) State() State {
	e.mu.RLock()
	a := e.accessor
	e.mu.RUnlock()
	if a == nil {
		return State{}
	}
	return a.Get()
}

// SetState writes the allowed keys of patch. It returns a state-key error
// for keys outside AllowedKeys, and does nothing before the page binds an
// accessor.
func (e *BaseExtension) SetState(patch State) error {
	e.mu.RLock()
	a := e.accessor
	e.mu.RUnlock()
	if a == nil {
		return nil
	}
	return a.Set(patch)
}

// Renderable is what renderers need from a controller.
type Renderable interface {
	State() State
	SetState(patch State)
	StateStore() *StateStore
	HTTPStatus() int
	SetMetaParams(state State)
	MetaManager() *meta.Manager
	BeginStateTransaction()
	CommitStateTransaction()
}

// DecoratedController binds a controller to the page meta registry.
type DecoratedController struct {
	Controller
	meta *meta.Manager
}

// Decorate wraps c with the meta registry m.
func Decorate(c Controller, m *meta.Manager) *DecoratedController {
	return &DecoratedController{Controller: c, meta: m}
}

// MetaManager returns the page meta registry.
func (d *DecoratedController) MetaManager() *meta.Manager {
	return d.meta
}

// SetMetaParams clears the registry and lets the controller fill it.
func (d *DecoratedController) SetMetaParams(state State) {
	d.meta.Clear()
	d.Controller.SetMetaParams(state, d.meta)
}

var _ Renderable = (*DecoratedController)(nil)
