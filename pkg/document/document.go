package document

import (
	"sync"

	"github.com/vango-dev/isopage/pkg/vdom"
)

// Event types dispatched by the renderer.
const (
	EventPatch     = "patch"
	EventError     = "error"
	EventUnmounted = "unmounted"
	EventHead      = "head"
	EventScroll    = "scroll"
)

// Event is a notification dispatched on a Document.
type Event struct {
	Type    string
	Target  string
	Patches []vdom.Patch
	Err     error
}

// Scroller reads and sets the scroll position of a document.
type Scroller interface {
	ScrollPosition() (x, y int)
	ScrollTo(x, y int)
}

// Document is the live client document.
type Document struct {
	mu         sync.RWMutex
	title      string
	head       []*vdom.VNode
	containers map[string]*Container
	revival    string
	scrollX    int
	scrollY    int

	lmu       sync.RWMutex
	listeners map[string]map[uint64]func(Event)
	nextID    uint64
}

// New creates an empty document.
func New() *Document {
	return &Document{
		containers: make(map[string]*Container),
		listeners:  make(map[string]map[uint64]func(Event)),
	}
}

// Title returns the document title.
func (d *Document) Title() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.title
}

// SetTitle sets the document title.
func (d *Document) SetTitle(title string) {
	d.mu.Lock()
	d.title = title
	d.mu.Unlock()
}

// Head returns the head elements in document order, title excluded.
func (d *Document) Head() []*vdom.VNode {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]*vdom.VNode, len(d.head))
	copy(out, d.head)
	return out
}

// AppendHead appends an element to the head.
func (d *Document) AppendHead(node *vdom.VNode) {
	d.mu.Lock()
	d.head = append(d.head, node)
	d.mu.Unlock()
}

// RemoveHead removes every head element for which match returns true and
// reports how many were removed.
func (d *Document) RemoveHead(match func(*vdom.VNode) bool) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	kept := d.head[:0]
	removed := 0
	for _, n := range d.head {
		if match(n) {
			removed++
			continue
		}
		kept = append(kept, n)
	}
	for i := len(kept); i < len(d.head); i++ {
		d.head[i] = nil
	}
	d.head = kept
	return removed
}

// Container returns the container with the given element ID.
func (d *Document) Container(id string) (*Container, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.containers[id]
	return c, ok
}

// AddContainer registers an empty container, or returns the existing one.
func (d *Document) AddContainer(id string) *Container {
	d.mu.Lock()
	defer d.mu.Unlock()
	if c, ok := d.containers[id]; ok {
		return c
	}
	c := &Container{id: id}
	d.containers[id] = c
	return c
}

// Revival returns the raw revival payload found in the markup, if any.
func (d *Document) Revival() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.revival
}

// ScrollPosition implements Scroller.
func (d *Document) ScrollPosition() (x, y int) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.scrollX, d.scrollY
}

// ScrollTo implements Scroller and dispatches a scroll event.
func (d *Document) ScrollTo(x, y int) {
	d.mu.Lock()
	d.scrollX, d.scrollY = x, y
	d.mu.Unlock()
	d.Dispatch(Event{Type: EventScroll})
}

// RecordScroll stores a position reported by the live client without
// dispatching a scroll event.
func (d *Document) RecordScroll(x, y int) {
	d.mu.Lock()
	d.scrollX, d.scrollY = x, y
	d.mu.Unlock()
}

// On registers fn for events of the given type. The returned function
// removes the listener.
func (d *Document) On(eventType string, fn func(Event)) func() {
	d.lmu.Lock()
	defer d.lmu.Unlock()
	d.nextID++
	id := d.nextID
	if d.listeners[eventType] == nil {
		d.listeners[eventType] = make(map[uint64]func(Event))
	}
	d.listeners[eventType][id] = fn
	return func() {
		d.lmu.Lock()
		delete(d.listeners[eventType], id)
		d.lmu.Unlock()
	}
}

// Dispatch calls every listener registered for ev.Type.
func (d *Document) Dispatch(ev Event) {
	d.lmu.RLock()
	fns := make([]func(Event), 0, len(d.listeners[ev.Type]))
	for _, fn := range d.listeners[ev.Type] {
		fns = append(fns, fn)
	}
	d.lmu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Container is an element a view is mounted into.
type Container struct {
	mu       sync.RWMutex
	id       string
	children []*vdom.VNode
}

// ID returns the container element ID.
func (c *Container) ID() string { return c.id }

// Children returns the current child nodes.
func (c *Container) Children() []*vdom.VNode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*vdom.VNode, len(c.children))
	copy(out, c.children)
	return out
}

// IsEmpty reports whether the container has no content. Whitespace-only
// text does not count as content.
func (c *Container) IsEmpty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, n := range c.children {
		if n.Kind != vdom.KindText || !isSpace(n.Text) {
			return false
		}
	}
	return true
}

// SetChildren replaces the container content.
func (c *Container) SetChildren(children ...*vdom.VNode) {
	c.mu.Lock()
	c.children = children
	c.mu.Unlock()
}

// Clear removes the container content.
func (c *Container) Clear() {
	c.SetChildren()
}

func isSpace(s string) bool {
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '\f':
		default:
			return false
		}
	}
	return true
}
