package renderer

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/vango-dev/isopage/internal/errors"
	"github.com/vango-dev/isopage/pkg/document"
	"github.com/vango-dev/isopage/pkg/page"
	"github.com/vango-dev/isopage/pkg/pending"
	"github.com/vango-dev/isopage/pkg/render"
	"github.com/vango-dev/isopage/pkg/vdom"
)

// ContainerState is what the client renderer knows about its container.
type ContainerState uint8

const (
	// ContainerEmpty holds nothing; the next mount renders fresh.
	ContainerEmpty ContainerState = iota
	// ContainerPrerendered holds markup from the server; the next mount hydrates.
	ContainerPrerendered
	// ContainerClientMounted holds a view this renderer mounted; the next
	// mount diffs against it.
	ContainerClientMounted
)

func (s ContainerState) String() string {
	switch s {
	case ContainerEmpty:
		return "Empty"
	case ContainerPrerendered:
		return "PrerenderedByServer"
	case ContainerClientMounted:
		return "ClientMounted"
	default:
		return "Unknown"
	}
}

// ClientConfig configures a Client renderer.
type ClientConfig struct {
	Document    *document.Document
	ContainerID string

	// Scheduler drives the pre-hydration yield and batched commits.
	// The default is a TickScheduler with DefaultTickInterval.
	Scheduler Scheduler

	Logger *slog.Logger
	Debug  bool
}

// Client mounts views into a document container.
type Client struct {
	config ClientConfig
	helper *Helper
	logger *slog.Logger
	html   *render.Renderer

	mu          sync.Mutex
	state       ContainerState
	known       bool
	epoch       uint64
	lastEpoch   uint64
	ctrl        page.Renderable
	view        page.View
	tree        *vdom.VNode
	unsubscribe func()

	// renderMu serializes view renders and the container updates they cause.
	renderMu sync.Mutex
}

// NewClient creates a Client renderer.
func NewClient(config ClientConfig) *Client {
	if config.ContainerID == "" {
		config.ContainerID = "page"
	}
	if config.Scheduler == nil {
		config.Scheduler = NewTickScheduler(DefaultTickInterval)
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Client{
		config: config,
		helper: NewHelper(config.Logger, config.Debug),
		logger: config.Logger,
		html:   render.NewRenderer(render.RendererConfig{KeepHIDs: true, HIDPrefix: "c"}),
	}
}

// ContainerState returns the current container state.
func (c *Client) ContainerState() ContainerState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Mount renders a freshly initialized page into the container. Prerendered
// markup is hydrated once every resource has resolved. Otherwise the view
// is rendered with the resolved resources first and pending ones are
// patched into state as they arrive.
func (c *Client) Mount(ctx context.Context, ctrl page.Renderable, view page.View, resources page.Resources, opts RouteOptions) (*Result, error) {
	container, err := c.container()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if !c.known {
		c.known = true
		if container.IsEmpty() {
			c.state = ContainerEmpty
		} else {
			c.state = ContainerPrerendered
		}
	}
	mode := c.state
	epoch := c.nextEpochLocked(ctx)
	c.ctrl, c.view = ctrl, view
	c.mu.Unlock()

	c.logger.Debug("mounting page", "container", c.config.ContainerID, "state", mode.String(), "epoch", epoch)

	defaults, deferred := c.helper.Split(resources)

	switch mode {
	case ContainerPrerendered:
		state, err := c.helper.AwaitAll(ctx, resources)
		if err != nil {
			return nil, c.helper.HandleError(err, errors.CodeResourceLoad)
		}
		ctrl.SetState(state)
		if err := c.yield(ctx); err != nil {
			return nil, err
		}
		if err := c.hydrate(container, view, ctrl.State()); err != nil {
			return nil, c.helper.HandleError(err, errors.CodeRender)
		}
		deferred = nil

	case ContainerEmpty:
		ctrl.SetState(defaults)
		if err := c.renderFresh(container, view, ctrl.State()); err != nil {
			return nil, c.helper.HandleError(err, errors.CodeRender)
		}

	case ContainerClientMounted:
		ctrl.SetState(defaults)
		if err := c.rerender(container, view, ctrl.State()); err != nil {
			return nil, c.helper.HandleError(err, errors.CodeRender)
		}
	}

	c.mu.Lock()
	if c.epoch == epoch {
		c.state = ContainerClientMounted
	}
	c.mu.Unlock()
	c.subscribe(epoch, ctrl)

	return c.settle(ctx, epoch, ctrl, deferred)
}

// Update applies resources to the mounted page. It never hydrates.
func (c *Client) Update(ctx context.Context, ctrl page.Renderable, view page.View, resources page.Resources) (*Result, error) {
	container, err := c.container()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.tree == nil {
		c.mu.Unlock()
		return nil, errors.New(errors.CodeDeniedOperation).WithDetail("update called before mount")
	}
	if e, ok := EpochFrom(ctx); ok {
		c.setEpochLocked(e)
	}
	epoch := c.epoch
	resubscribe := c.ctrl != ctrl
	c.ctrl, c.view = ctrl, view
	c.mu.Unlock()

	if resubscribe {
		c.subscribe(epoch, ctrl)
	}

	defaults, deferred := c.helper.Split(resources)
	ctrl.SetState(defaults)
	if err := c.rerender(container, view, ctrl.State()); err != nil {
		return nil, c.helper.HandleError(err, errors.CodeRender)
	}

	return c.settle(ctx, epoch, ctrl, deferred)
}

// Unmount clears the container and dispatches an unmounted event.
func (c *Client) Unmount() {
	c.mu.Lock()
	if c.tree == nil {
		c.mu.Unlock()
		return
	}
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.epoch = 0
	c.ctrl, c.view, c.tree = nil, nil, nil
	c.state = ContainerEmpty
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}

	id := c.config.ContainerID
	if container, ok := c.config.Document.Container(id); ok {
		c.renderMu.Lock()
		container.Clear()
		c.renderMu.Unlock()
	}
	c.config.Document.Dispatch(document.Event{
		Type:    document.EventPatch,
		Target:  id,
		Patches: []vdom.Patch{{Op: vdom.PatchSetChildren, HID: id}},
	})
	c.config.Document.Dispatch(document.Event{Type: document.EventUnmounted, Target: id})
}

// SetState merges the partial state into the mounted controller. The store
// publish re-renders the view with the full state, so inside a state
// transaction the view updates on commit. It does nothing when no view is
// mounted.
func (c *Client) SetState(ctx context.Context, state page.State) error {
	c.mu.Lock()
	ctrl, mounted := c.ctrl, c.tree != nil
	c.mu.Unlock()
	if !mounted || ctrl == nil {
		return nil
	}

	ctrl.SetState(state)
	return nil
}

// renderState re-renders the mounted view with the full published state.
func (c *Client) renderState(state page.State) error {
	c.mu.Lock()
	view, mounted := c.view, c.tree != nil
	c.mu.Unlock()
	if !mounted {
		return nil
	}

	container, err := c.container()
	if err != nil {
		return err
	}
	if err := c.rerender(container, view, state); err != nil {
		return c.helper.HandleError(err, errors.CodeRender)
	}
	return nil
}

// settle patches deferred resources into state under tick batching, then
// commits, synchronizes meta and builds the result.
func (c *Client) settle(ctx context.Context, epoch uint64, ctrl page.Renderable, deferred map[string]*pending.Value) (*Result, error) {
	err := c.patchPending(ctx, epoch, ctrl, deferred)
	ctrl.CommitStateTransaction()
	if err != nil {
		return nil, c.helper.HandleError(err, errors.CodeResourceLoad)
	}

	state := ctrl.State()
	if c.current(epoch) {
		ctrl.SetMetaParams(state)
		c.helper.SyncMeta(c.config.Document, ctrl.MetaManager())
	}
	return &Result{Status: ctrl.HTTPStatus(), PageState: state}, nil
}

// patchPending writes each deferred resource into state as it resolves and
// waits until all of them have settled. It returns the first rejection.
func (c *Client) patchPending(ctx context.Context, epoch uint64, ctrl page.Renderable, deferred map[string]*pending.Value) error {
	if len(deferred) == 0 {
		return nil
	}

	b := newBatcher(c.config.Scheduler, ctrl, len(deferred), func() bool { return c.current(epoch) })
	b.start()

	var (
		wg       sync.WaitGroup
		errMu    sync.Mutex
		firstErr error
	)
	for key, value := range deferred {
		key := key
		wg.Add(1)
		value.Then(func(v any, err error) {
			defer wg.Done()
			defer b.settled()

			if err != nil {
				errMu.Lock()
				if firstErr == nil {
					firstErr = pending.ResourceError(key, err)
				}
				errMu.Unlock()
				return
			}
			if !b.set(key, v) {
				c.logger.Debug("dropping stale resource", "key", key, "epoch", epoch)
			}
		})
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		b.finish()
		return ctx.Err()
	}
	b.finish()
	return firstErr
}

// subscribe re-renders the view after every state publish of ctrl until the
// epoch changes.
func (c *Client) subscribe(epoch uint64, ctrl page.Renderable) {
	unsubscribe := ctrl.StateStore().Subscribe(func(state page.State) {
		if !c.current(epoch) {
			return
		}
		if err := c.renderState(state); err != nil {
			c.config.Document.Dispatch(document.Event{Type: document.EventError, Target: c.config.ContainerID, Err: err})
		}
	})

	c.mu.Lock()
	prev := c.unsubscribe
	c.unsubscribe = unsubscribe
	c.mu.Unlock()

	if prev != nil {
		prev()
	}
}

func (c *Client) container() (*document.Container, error) {
	id := c.config.ContainerID
	container, ok := c.config.Document.Container(id)
	if ok {
		return container, nil
	}
	err := errors.New(errors.CodeMissingContainer).WithDetailf("no element with id %q", id)
	c.config.Document.Dispatch(document.Event{Type: document.EventError, Target: id, Err: err})
	return nil, c.helper.HandleError(err, errors.CodeMissingContainer)
}

// yield waits for one scheduler tick.
func (c *Client) yield(ctx context.Context) error {
	ticked := make(chan struct{})
	c.config.Scheduler.Schedule(func() { close(ticked) })
	select {
	case <-ticked:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// build renders the view into a tree rooted at the container element.
func (c *Client) build(view page.View, state page.State) (*vdom.VNode, error) {
	node, err := c.helper.Render(view, state)
	if err != nil {
		return nil, err
	}
	root := &vdom.VNode{
		Kind:     vdom.KindElement,
		Tag:      "div",
		HID:      c.config.ContainerID,
		Children: []*vdom.VNode{node},
	}
	return vdom.Resolve(root), nil
}

// hydrate adopts the hydration IDs of the prerendered markup. It falls back
// to a fresh render if the markup does not match the view.
func (c *Client) hydrate(container *document.Container, view page.View, state page.State) error {
	c.renderMu.Lock()
	defer c.renderMu.Unlock()

	tree, err := c.build(view, state)
	if err != nil {
		return err
	}

	existing := container.Children()
	matched := len(existing) == len(tree.Children)
	for i := 0; matched && i < len(existing); i++ {
		matched = vdom.CopyHIDs(existing[i], tree.Children[i])
	}
	if !matched {
		c.logger.Warn("hydration mismatch, rendering fresh", "container", c.config.ContainerID)
		return c.replaceLocked(container, tree)
	}

	container.SetChildren(tree.Children...)
	c.setTree(tree)
	return nil
}

func (c *Client) renderFresh(container *document.Container, view page.View, state page.State) error {
	c.renderMu.Lock()
	defer c.renderMu.Unlock()

	tree, err := c.build(view, state)
	if err != nil {
		return err
	}
	return c.replaceLocked(container, tree)
}

// replaceLocked renders tree as the whole container content.
func (c *Client) replaceLocked(container *document.Container, tree *vdom.VNode) error {
	vdom.ClearHIDs(tree)
	tree.HID = c.config.ContainerID

	var b strings.Builder
	for _, child := range tree.Children {
		if err := c.html.RenderToWriter(&b, child); err != nil {
			return err
		}
	}

	container.SetChildren(tree.Children...)
	c.setTree(tree)
	c.dispatchPatches([]vdom.Patch{{Op: vdom.PatchSetChildren, HID: c.config.ContainerID, HTML: b.String()}})
	return nil
}

// rerender diffs the view against the mounted tree and dispatches patches.
func (c *Client) rerender(container *document.Container, view page.View, state page.State) error {
	c.renderMu.Lock()
	defer c.renderMu.Unlock()

	next, err := c.build(view, state)
	if err != nil {
		return err
	}

	c.mu.Lock()
	prev := c.tree
	c.mu.Unlock()
	if prev == nil {
		return c.replaceLocked(container, next)
	}

	patches := vdom.Diff(prev, next)
	for i := range patches {
		if patches[i].Node == nil {
			continue
		}
		markup, err := c.html.RenderToString(patches[i].Node)
		if err != nil {
			return err
		}
		patches[i].HTML = markup
	}

	container.SetChildren(next.Children...)
	c.setTree(next)
	c.dispatchPatches(patches)
	return nil
}

func (c *Client) dispatchPatches(patches []vdom.Patch) {
	if len(patches) == 0 {
		return
	}
	c.config.Document.Dispatch(document.Event{
		Type:    document.EventPatch,
		Target:  c.config.ContainerID,
		Patches: patches,
	})
}

func (c *Client) setTree(tree *vdom.VNode) {
	c.mu.Lock()
	c.tree = tree
	c.mu.Unlock()
}

func (c *Client) current(epoch uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return epoch != 0 && c.epoch == epoch
}

// nextEpochLocked takes the epoch from ctx, or the next unused one.
func (c *Client) nextEpochLocked(ctx context.Context) uint64 {
	if e, ok := EpochFrom(ctx); ok {
		c.setEpochLocked(e)
	} else {
		c.setEpochLocked(c.lastEpoch + 1)
	}
	return c.epoch
}

func (c *Client) setEpochLocked(e uint64) {
	c.epoch = e
	if e > c.lastEpoch {
		c.lastEpoch = e
	}
}

var _ Renderer = (*Client)(nil)
