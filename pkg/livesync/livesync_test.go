package livesync

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/isopage/pkg/cache"
	"github.com/vango-dev/isopage/pkg/lifecycle"
	"github.com/vango-dev/isopage/pkg/meta"
	"github.com/vango-dev/isopage/pkg/page"
	"github.com/vango-dev/isopage/pkg/renderer"
	"github.com/vango-dev/isopage/pkg/response"
	"github.com/vango-dev/isopage/pkg/vdom"
)

type titledController struct {
	page.BaseController
	title string
}

func (c *titledController) Load(ctx context.Context) (page.Resources, error) {
	return page.Resources{"title": c.title}, nil
}

func (c *titledController) SetMetaParams(state page.State, m *meta.Manager) {
	if title, ok := state["title"].(string); ok {
		m.SetTitle(title)
	}
}

func route(title string) (page.ControllerFactory, page.ViewFactory) {
	cf := page.ControllerFactory{ID: title, New: func() page.Controller {
		return &titledController{title: title}
	}}
	vf := page.ViewFactory{ID: title, New: func() page.View {
		return page.ViewFunc(func(state page.State) *vdom.VNode {
			return vdom.Main(vdom.H1(vdom.Textf("%v", state["title"])))
		})
	}}
	return cf, vf
}

// pageHandler serves "/" and "/about" and redirects "/old" to "/about".
func pageHandler(c *cache.Cache) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, nav, live := FromContext(r.Context())

		if r.URL.Path == "/old" {
			if live {
				w.Header().Set("Location", "/about")
				w.WriteHeader(http.StatusFound)
				return
			}
			http.Redirect(w, r, "/about", http.StatusFound)
			return
		}

		title := "home"
		if r.URL.Path == "/about" {
			title = "about"
		}
		cf, vf := route(title)
		opts := lifecycle.Options{URL: r.URL.String()}

		if live {
			opts.Action = nav.Action
			opts.AutoScroll = nav.AutoScroll
			res, err := sess.Manager().Manage(r.Context(), cf, vf, opts, nil)
			if err != nil {
				sess.ReportError(err)
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.WriteHeader(res.Status)
			return
		}

		server := renderer.NewServer(renderer.ServerConfig{
			Response: response.New(w, r),
			Cache:    c.Session(),
		})
		m := lifecycle.NewManager(lifecycle.Config{Renderer: server, Variant: "server"})
		if _, err := m.Manage(r.Context(), cf, vf, opts, nil); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}

func startServer(t *testing.T) (*Server, string) {
	t.Helper()
	c := cache.New(nil)
	live := NewServer(Config{Cache: c, TickInterval: time.Millisecond})
	pages := pageHandler(c)
	live.SetHandler(pages)

	mux := http.NewServeMux()
	mux.Handle("/_live", live)
	mux.Handle("/", pages)
	ts := httptest.NewServer(mux)
	t.Cleanup(func() {
		live.Close()
		ts.Close()
	})
	return live, "ws" + strings.TrimPrefix(ts.URL, "http") + "/_live"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil collects messages up to and including the first of type want.
func readUntil(t *testing.T, conn *websocket.Conn, want string) []Message {
	t.Helper()
	var out []Message
	for {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("waiting for %q after %d messages: %v", want, len(out), err)
		}
		out = append(out, msg)
		if msg.Type == want {
			return out
		}
	}
}

func ofType(msgs []Message, typ string) []Message {
	var out []Message
	for _, m := range msgs {
		if m.Type == typ {
			out = append(out, m)
		}
	}
	return out
}

func TestHelloHydratesWithoutPatches(t *testing.T) {
	live, url := startServer(t)
	conn := dial(t, url)

	if err := conn.WriteJSON(Message{Type: TypeHello, URL: "/"}); err != nil {
		t.Fatal(err)
	}
	msgs := readUntil(t, conn, TypeResult)

	if got := ofType(msgs, TypePatches); len(got) != 0 {
		t.Errorf("hydration sent %d patch messages", len(got))
	}
	heads := ofType(msgs, TypeHead)
	if len(heads) != 1 || heads[0].Title != "home" {
		t.Errorf("head messages = %+v", heads)
	}
	result := msgs[len(msgs)-1]
	if result.URL != "/" || result.Status != http.StatusOK {
		t.Errorf("result = %+v", result)
	}
	if live.SessionCount() != 1 {
		t.Errorf("SessionCount = %d", live.SessionCount())
	}
}

func TestNavigateStreamsPatches(t *testing.T) {
	_, url := startServer(t)
	conn := dial(t, url)

	conn.WriteJSON(Message{Type: TypeHello, URL: "/"})
	readUntil(t, conn, TypeResult)

	conn.WriteJSON(Message{Type: TypeScroll, Y: 300})
	conn.WriteJSON(Message{Type: TypeNavigate, URL: "/about", Action: "click", AutoScroll: true})
	msgs := readUntil(t, conn, TypeResult)

	var html string
	for _, m := range ofType(msgs, TypePatches) {
		if m.Target != "page" {
			t.Errorf("patch target = %q", m.Target)
		}
		for _, p := range m.Patches {
			html += p.HTML
		}
	}
	if !strings.Contains(html, "about") {
		t.Errorf("patches did not carry the new page: %q", html)
	}

	heads := ofType(msgs, TypeHead)
	if len(heads) == 0 || heads[len(heads)-1].Title != "about" {
		t.Errorf("head messages = %+v", heads)
	}

	scrolls := ofType(msgs, TypeScroll)
	if len(scrolls) != 1 || scrolls[0].X != 0 || scrolls[0].Y != 0 {
		t.Errorf("scroll messages = %+v", scrolls)
	}
}

func TestNavigateFollowsRedirect(t *testing.T) {
	_, url := startServer(t)
	conn := dial(t, url)

	conn.WriteJSON(Message{Type: TypeHello, URL: "/"})
	readUntil(t, conn, TypeResult)

	conn.WriteJSON(Message{Type: TypeNavigate, URL: "/old"})
	msgs := readUntil(t, conn, TypeResult)

	redirects := ofType(msgs, TypeRedirect)
	if len(redirects) != 1 || redirects[0].URL != "/about" {
		t.Errorf("redirect messages = %+v", redirects)
	}
	if result := msgs[len(msgs)-1]; result.URL != "/about" {
		t.Errorf("result URL = %q", result.URL)
	}
}

func TestNavigateBeforeHello(t *testing.T) {
	_, url := startServer(t)
	conn := dial(t, url)

	conn.WriteJSON(Message{Type: TypeNavigate, URL: "/about"})
	msgs := readUntil(t, conn, TypeError)
	if got := msgs[len(msgs)-1].Code; got != "P004" {
		t.Errorf("error code = %q, want P004", got)
	}
}

func TestPing(t *testing.T) {
	_, url := startServer(t)
	conn := dial(t, url)

	conn.WriteJSON(Message{Type: TypePing})
	readUntil(t, conn, TypePong)
}

func TestCloseEndsSessions(t *testing.T) {
	live, url := startServer(t)
	conn := dial(t, url)

	conn.WriteJSON(Message{Type: TypeHello, URL: "/"})
	readUntil(t, conn, TypeResult)

	live.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				t.Errorf("read after close: %v", err)
			}
			break
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for live.SessionCount() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if n := live.SessionCount(); n != 0 {
		t.Errorf("SessionCount after Close = %d", n)
	}
}

func TestFromContext(t *testing.T) {
	if _, _, ok := FromContext(context.Background()); ok {
		t.Error("plain context reported a live session")
	}
	s := &Session{id: "s1"}
	ctx := WithSession(context.Background(), s, Navigation{URL: "/x", Action: lifecycle.ActionPopState})
	got, nav, ok := FromContext(ctx)
	if !ok || got != s || nav.URL != "/x" || nav.Action != lifecycle.ActionPopState {
		t.Errorf("FromContext = %v %+v %v", got, nav, ok)
	}
}
