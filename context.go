package isopage

import (
	"context"
	"net/http"
	"sync"

	"github.com/vango-dev/isopage/internal/errors"
	"github.com/vango-dev/isopage/pkg/cache"
	"github.com/vango-dev/isopage/pkg/response"
)

// requestScope carries per-navigation values to controllers.
type requestScope struct {
	cache        *cache.Cache
	language     string
	languagePath string

	// response is nil in live sessions.
	response *response.Response

	mu       sync.Mutex
	location string
}

func (s *requestScope) redirectLocation() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.location
}

type scopeKey struct{}

func withScope(ctx context.Context, s *requestScope) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

func scopeFrom(ctx context.Context) *requestScope {
	s, _ := ctx.Value(scopeKey{}).(*requestScope)
	return s
}

// CacheFrom returns the resource cache of the navigation ctx belongs to, or
// nil outside a navigation.
func CacheFrom(ctx context.Context) *cache.Cache {
	if s := scopeFrom(ctx); s != nil {
		return s.cache
	}
	return nil
}

// LanguageFrom returns the negotiated language, or "".
func LanguageFrom(ctx context.Context) string {
	if s := scopeFrom(ctx); s != nil {
		return s.language
	}
	return ""
}

// Redirect ends the navigation ctx belongs to with a redirect. A server
// render sends the redirect right away and the page is not rendered. A live
// navigation finishes first and the browser then navigates to location.
func Redirect(ctx context.Context, location string) error {
	s := scopeFrom(ctx)
	if s == nil {
		return errors.New(errors.CodeDeniedOperation).WithDetail("redirect outside a navigation")
	}
	if s.response != nil {
		return s.response.Redirect(location, http.StatusFound)
	}

	s.mu.Lock()
	s.location = location
	s.mu.Unlock()
	return nil
}
