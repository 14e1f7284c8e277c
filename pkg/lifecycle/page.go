package lifecycle

import (
	"github.com/vango-dev/isopage/pkg/page"
)

// PageState is the lifecycle state of a ManagedPage.
type PageState uint8

const (
	StateCreated PageState = iota
	StateInitialized
	StateLoaded
	StateMounted
	StateActivated
	StateDeactivated
	StateDestroyed
)

func (s PageState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateInitialized:
		return "initialized"
	case StateLoaded:
		return "loaded"
	case StateMounted:
		return "mounted"
	case StateActivated:
		return "activated"
	case StateDeactivated:
		return "deactivated"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Action describes what triggered a navigation.
type Action string

const (
	ActionRedirect Action = "redirect"
	ActionClick    Action = "click"
	ActionPopState Action = "popstate"
	ActionError    Action = "error"
)

// Options control a single navigation.
type Options struct {
	// OnlyUpdate updates the current page in place when the requested
	// controller and view factories match the managed ones.
	OnlyUpdate bool

	// OnlyUpdateFunc, when set, decides instead of OnlyUpdate. It receives
	// the factories of the managed page.
	OnlyUpdateFunc func(prevController page.ControllerFactory, prevView page.ViewFactory) bool

	// AutoScroll scrolls after the page is rendered.
	AutoScroll bool

	// RestoreScroll makes AutoScroll return to the position saved for the
	// URL instead of the top.
	RestoreScroll bool

	// URL is the navigated URL.
	URL string

	Action Action
}

// ManagedPage is the page the Manager currently drives.
type ManagedPage struct {
	Controller page.ControllerFactory
	View       page.ViewFactory
	Options    Options
	Params     page.Params

	ControllerInstance page.Controller
	Decorated          *page.DecoratedController
	ViewInstance       page.View

	Activated bool
	Epoch     uint64
	State     PageState
}

// mounted reports whether p was rendered and not yet destroyed. A page whose
// init or load failed stays current but is never updated in place.
func (p *ManagedPage) mounted() bool {
	if p == nil || p.ControllerInstance == nil {
		return false
	}
	switch p.State {
	case StateMounted, StateActivated, StateDeactivated:
		return true
	}
	return false
}

func (p *ManagedPage) extensions() []page.Extension {
	if p.ControllerInstance == nil {
		return nil
	}
	return p.ControllerInstance.Extensions()
}
