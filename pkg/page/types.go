package page

import (
	"context"

	"github.com/mitchellh/mapstructure"

	"github.com/vango-dev/isopage/pkg/meta"
	"github.com/vango-dev/isopage/pkg/vdom"
)

// State is the page state: a flat key/value map.
type State map[string]any

// Params are route parameters supplied by the router.
type Params map[string]string

// Resources maps resource names to resolved values or *pending.Value.
type Resources map[string]any

// Clone returns a shallow copy of the state.
func (s State) Clone() State {
	out := make(State, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Clone returns a copy of the params.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Lifecycle is the surface shared by controllers and extensions.
type Lifecycle interface {
	// Init is called once after route params are set.
	Init(ctx context.Context) error

	// Load returns the resources of a freshly mounted page.
	Load(ctx context.Context) (Resources, error)

	// Update returns the resources to apply when the page is updated in
	// place for new route params.
	Update(ctx context.Context, prevParams Params) (Resources, error)

	// Activate is called once the page is rendered. It is never called
	// twice without an intervening Deactivate.
	Activate()

	// Deactivate is called before the page is torn down.
	Deactivate()

	// Destroy releases everything the unit holds.
	Destroy()

	SetRouteParams(params Params)
	RouteParams() Params
}

// Controller is the business-logic unit bound to a route.
type Controller interface {
	Lifecycle

	// Extensions returns the attached extensions in order.
	Extensions() []Extension

	// SetStateStore binds the store the controller owns for this page.
	SetStateStore(store *StateStore)
	StateStore() *StateStore

	State() State
	SetState(patch State)
	BeginStateTransaction()
	CommitStateTransaction()
	CancelStateTransaction()

	// HTTPStatus is the status code of the rendered page.
	HTTPStatus() int

	// SetMetaParams fills the meta registry from the loaded state.
	SetMetaParams(state State, m *meta.Manager)
}

// Extension is a secondary logic unit with restricted state access.
type Extension interface {
	Lifecycle

	// AllowedStateKeys lists the state keys the extension may read and write.
	AllowedStateKeys() []string

	// SetStateAccessor binds the scoped accessor for this page.
	SetStateAccessor(accessor *ScopedState)

	State() State
	SetState(patch State) error
}

// View renders page state into a node tree.
type View interface {
	Render(state State) *vdom.VNode
}

// ViewFunc adapts a function to View.
type ViewFunc func(state State) *vdom.VNode

// Render implements View.
func (f ViewFunc) Render(state State) *vdom.VNode {
	return f(state)
}

// ControllerFactory constructs controllers for a route. ID identifies the
// factory when deciding whether a navigation can update in place.
type ControllerFactory struct {
	ID  string
	New func() Controller
}

// ViewFactory constructs views for a route.
type ViewFactory struct {
	ID  string
	New func() View
}

// Merge combines loaded resources. Extension resources are applied first in
// order, then the controller's, so the controller wins on key collisions.
func Merge(controller Resources, extensions ...Resources) Resources {
	out := make(Resources)
	for _, ext := range extensions {
		for k, v := range ext {
			out[k] = v
		}
	}
	for k, v := range controller {
		out[k] = v
	}
	return out
}

// Decode copies state entries into the struct pointed to by out, using
// `state:"..."` field tags.
func Decode(state State, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "state",
		Result:  out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(map[string]any(state))
}
