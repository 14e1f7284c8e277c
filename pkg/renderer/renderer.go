package renderer

import (
	"context"

	"github.com/vango-dev/isopage/pkg/page"
)

// Result is the outcome of a mount or update.
type Result struct {
	Status    int        `json:"status"`
	PageState page.State `json:"pageState"`

	// Content is the rendered document. Only the server sets it.
	Content string `json:"-"`
}

// RouteOptions describe the navigation a mount belongs to.
type RouteOptions struct {
	URL        string
	Params     page.Params
	AutoScroll bool
}

// Renderer renders page state either to markup or into a live document.
type Renderer interface {
	// Mount renders a freshly initialized page.
	Mount(ctx context.Context, ctrl page.Renderable, view page.View, resources page.Resources, opts RouteOptions) (*Result, error)

	// Update applies resources to an already mounted page.
	Update(ctx context.Context, ctrl page.Renderable, view page.View, resources page.Resources) (*Result, error)

	// Unmount detaches the mounted view. It is a no-op when nothing is mounted.
	Unmount()

	// SetState re-renders the mounted view with state.
	SetState(ctx context.Context, state page.State) error
}

type epochKey struct{}

// WithEpoch returns a context carrying the epoch of the page being rendered.
func WithEpoch(ctx context.Context, epoch uint64) context.Context {
	return context.WithValue(ctx, epochKey{}, epoch)
}

// EpochFrom returns the epoch carried by ctx.
func EpochFrom(ctx context.Context) (uint64, bool) {
	e, ok := ctx.Value(epochKey{}).(uint64)
	return e, ok
}
