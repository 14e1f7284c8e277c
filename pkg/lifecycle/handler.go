package lifecycle

import (
	"context"
	"sync"

	"github.com/vango-dev/isopage/pkg/document"
)

// Transition is passed to page handlers. Previous is nil on the first
// navigation. Before the navigation Next carries only factories, options
// and params.
type Transition struct {
	Previous *ManagedPage
	Next     *ManagedPage
	Action   Action
}

// Handler observes navigations.
type Handler interface {
	PreManage(ctx context.Context, t Transition) error
	PostManage(ctx context.Context, t Transition) error
}

type scrollPosition struct {
	x, y int
}

// ScrollHandler saves the scroll position of the page being left and scrolls
// after rendering when the navigation asks for AutoScroll. Without a
// Scroller it does nothing.
type ScrollHandler struct {
	scroller document.Scroller

	mu        sync.Mutex
	positions map[string]scrollPosition
}

// NewScrollHandler creates a ScrollHandler for scroller, which may be nil.
func NewScrollHandler(scroller document.Scroller) *ScrollHandler {
	return &ScrollHandler{
		scroller:  scroller,
		positions: make(map[string]scrollPosition),
	}
}

// PreManage saves the scroll position of the previous URL.
func (h *ScrollHandler) PreManage(ctx context.Context, t Transition) error {
	if h.scroller == nil || t.Previous == nil || t.Previous.Options.URL == "" {
		return nil
	}
	x, y := h.scroller.ScrollPosition()
	h.mu.Lock()
	h.positions[t.Previous.Options.URL] = scrollPosition{x, y}
	h.mu.Unlock()
	return nil
}

// PostManage scrolls to the saved position or to the top.
func (h *ScrollHandler) PostManage(ctx context.Context, t Transition) error {
	if h.scroller == nil || t.Next == nil || !t.Next.Options.AutoScroll {
		return nil
	}

	var pos scrollPosition
	if t.Next.Options.RestoreScroll {
		h.mu.Lock()
		pos = h.positions[t.Next.Options.URL]
		h.mu.Unlock()
	}
	h.scroller.ScrollTo(pos.x, pos.y)
	return nil
}
