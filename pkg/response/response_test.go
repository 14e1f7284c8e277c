package response

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vango-dev/isopage/internal/errors"
	"github.com/vango-dev/isopage/pkg/page"
)

func TestSendOnce(t *testing.T) {
	rec := httptest.NewRecorder()
	res := New(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	res.Status(http.StatusNotFound).SetPageState(page.State{"a": 1})
	if res.IsSent() {
		t.Fatal("sent before Send")
	}
	if err := res.Send("<p>missing</p>"); err != nil {
		t.Fatal(err)
	}
	if err := res.Send("again"); !errors.Is(err, errors.ErrResponseSent) {
		t.Errorf("second Send = %v, want response-sent error", err)
	}

	if rec.Code != http.StatusNotFound || rec.Body.String() != "<p>missing</p>" {
		t.Errorf("recorded %d %q", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}

	p := res.Params()
	if p.Status != http.StatusNotFound || p.Content != "<p>missing</p>" || p.PageState["a"] != 1 {
		t.Errorf("Params = %+v", p)
	}
}

func TestRedirectMarksSent(t *testing.T) {
	rec := httptest.NewRecorder()
	res := New(rec, httptest.NewRequest(http.MethodGet, "/old", nil))

	if err := res.Redirect("/new", http.StatusFound); err != nil {
		t.Fatal(err)
	}
	if !res.IsSent() {
		t.Error("redirect should mark the response sent")
	}
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/new" {
		t.Errorf("recorded %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if err := res.Send("late"); err == nil {
		t.Error("Send after Redirect should fail")
	}
	if p := res.Params(); p.Location != "/new" || p.Status != http.StatusFound {
		t.Errorf("Params = %+v", p)
	}
}
