package livesync

import (
	"context"

	"github.com/vango-dev/isopage/pkg/lifecycle"
)

// Navigation describes a navigation requested by the browser.
type Navigation struct {
	URL           string
	Action        lifecycle.Action
	AutoScroll    bool
	RestoreScroll bool
}

type contextKey struct{}

type liveContext struct {
	session *Session
	nav     Navigation
}

// WithSession marks ctx as belonging to a live navigation.
func WithSession(ctx context.Context, s *Session, nav Navigation) context.Context {
	return context.WithValue(ctx, contextKey{}, liveContext{session: s, nav: nav})
}

// FromContext returns the live session and navigation carried by ctx.
// Page handlers use it to tell live navigations from plain requests.
func FromContext(ctx context.Context) (*Session, Navigation, bool) {
	lc, ok := ctx.Value(contextKey{}).(liveContext)
	if !ok || lc.session == nil {
		return nil, Navigation{}, false
	}
	return lc.session, lc.nav, true
}
