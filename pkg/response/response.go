// Package response is the server-side response a page render writes to.
//
// A Response is sent at most once. Whatever was sent (status, markup and
// page state) stays readable through Params so a late render of the same
// request can return the cached result instead of rendering again.
package response

import (
	"io"
	"net/http"
	"sync"

	"github.com/vango-dev/isopage/internal/errors"
	"github.com/vango-dev/isopage/pkg/page"
)

// Params is what a Response has recorded so far.
type Params struct {
	Status    int
	Content   string
	PageState page.State
	Location  string
}

// Response wraps an http.ResponseWriter for a single page request.
type Response struct {
	mu     sync.Mutex
	w      http.ResponseWriter
	r      *http.Request
	sent   bool
	params Params
}

// New creates a Response for the request.
func New(w http.ResponseWriter, r *http.Request) *Response {
	return &Response{
		w:      w,
		r:      r,
		params: Params{Status: http.StatusOK},
	}
}

// Request returns the request being answered.
func (r *Response) Request() *http.Request {
	return r.r
}

// IsSent reports whether the response has been written.
func (r *Response) IsSent() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sent
}

// Status sets the status code used by Send.
func (r *Response) Status(code int) *Response {
	r.mu.Lock()
	r.params.Status = code
	r.mu.Unlock()
	return r
}

// SetPageState records the page state delivered with the markup.
func (r *Response) SetPageState(state page.State) *Response {
	r.mu.Lock()
	r.params.PageState = state.Clone()
	r.mu.Unlock()
	return r
}

// Header returns the header map that will be sent.
func (r *Response) Header() http.Header {
	return r.w.Header()
}

// Send writes the status and markup. It fails with a response-sent error
// if the response was already written.
func (r *Response) Send(content string) error {
	r.mu.Lock()
	if r.sent {
		r.mu.Unlock()
		return errors.New(errors.CodeResponseSent)
	}
	r.sent = true
	r.params.Content = content
	status := r.params.Status
	r.mu.Unlock()

	if r.w.Header().Get("Content-Type") == "" {
		r.w.Header().Set("Content-Type", "text/html; charset=utf-8")
	}
	r.w.WriteHeader(status)
	if _, err := io.WriteString(r.w, content); err != nil {
		return errors.New(errors.CodeRender).Wrap(err).WithDetail("write response body")
	}
	return nil
}

// Redirect sends a redirect to location. Any page render still running for
// this request will find the response sent and skip writing.
func (r *Response) Redirect(location string, code int) error {
	r.mu.Lock()
	if r.sent {
		r.mu.Unlock()
		return errors.New(errors.CodeResponseSent)
	}
	r.sent = true
	r.params.Status = code
	r.params.Location = location
	r.mu.Unlock()

	http.Redirect(r.w, r.r, location, code)
	return nil
}

// Params returns a copy of the recorded response parameters.
func (r *Response) Params() Params {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.params
	if p.PageState != nil {
		p.PageState = p.PageState.Clone()
	}
	return p
}
