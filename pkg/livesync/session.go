package livesync

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/isopage/internal/errors"
	"github.com/vango-dev/isopage/pkg/cache"
	"github.com/vango-dev/isopage/pkg/document"
	"github.com/vango-dev/isopage/pkg/lifecycle"
	"github.com/vango-dev/isopage/pkg/render"
	"github.com/vango-dev/isopage/pkg/renderer"
)

// forwarded request headers copied from the upgrade request onto every
// navigation request.
var forwardedHeaders = []string{"Accept-Language", "Cookie", "User-Agent", "Authorization"}

// Session is one live connection and the page state behind it.
type Session struct {
	id     string
	server *Server
	conn   *websocket.Conn
	logger *slog.Logger
	header http.Header
	cache  *cache.Cache

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	closed atomic.Bool

	writeMu sync.Mutex

	mu        sync.Mutex
	doc       *document.Document
	scheduler *renderer.TickScheduler
	client    *renderer.Client
	manager   *lifecycle.Manager
	listeners []func()

	patchCount atomic.Int64
	bytesSent  atomic.Int64
	bytesRecv  atomic.Int64
}

func newSession(server *Server, id string, conn *websocket.Conn, upgrade http.Header) *Session {
	ctx, cancel := context.WithCancel(context.Background())

	header := make(http.Header)
	for _, key := range forwardedHeaders {
		if v := upgrade.Values(key); len(v) > 0 {
			header[key] = append([]string(nil), v...)
		}
	}

	c := server.config.Cache
	if c == nil {
		c = cache.New(nil, cache.WithLogger(server.config.Logger))
	}

	return &Session{
		id:     id,
		server: server,
		conn:   conn,
		logger: server.logger.With("session_id", id),
		header: header,
		cache:  c.Session(),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Cache returns the session's resource cache.
func (s *Session) Cache() *cache.Cache { return s.cache }

// Manager returns the page lifecycle manager, or nil before the browser
// said hello.
func (s *Session) Manager() *lifecycle.Manager {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manager
}

// Document returns the server-side model of the browser document, or nil
// before the browser said hello.
func (s *Session) Document() *document.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// Done is closed when the session closes.
func (s *Session) Done() <-chan struct{} { return s.done }

// ReadLoop reads and handles messages until the connection fails or the
// session is closed. Messages are handled one at a time so navigations
// never interleave.
func (s *Session) ReadLoop() {
	defer s.Close()

	for {
		s.conn.SetReadDeadline(time.Now().Add(s.server.config.ReadTimeout))

		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Error("read error", "error", err)
			}
			return
		}
		s.bytesRecv.Add(int64(len(data)))

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			s.logger.Error("message decode error", "error", err)
			continue
		}

		s.handle(msg)
	}
}

func (s *Session) handle(msg Message) {
	switch msg.Type {
	case TypeHello:
		if err := s.hello(msg.URL); err != nil {
			s.ReportError(err)
		}

	case TypeNavigate:
		if s.Manager() == nil {
			s.ReportError(errors.New(errors.CodeDeniedOperation).WithDetail("navigate before hello"))
			return
		}
		nav := Navigation{
			URL:           msg.URL,
			Action:        lifecycle.Action(msg.Action),
			AutoScroll:    msg.AutoScroll,
			RestoreScroll: msg.RestoreScroll,
		}
		if err := s.navigate(nav, 0); err != nil {
			s.ReportError(err)
		}

	case TypeScroll:
		if doc := s.Document(); doc != nil {
			doc.RecordScroll(msg.X, msg.Y)
		}

	case TypePing:
		s.send(Message{Type: TypePong})

	default:
		s.logger.Warn("unknown message type", "type", msg.Type)
	}
}

// hello rebuilds the browser's document by rendering url once through the
// page handler, then hydrates it.
func (s *Session) hello(url string) error {
	if s.Manager() != nil {
		return errors.New(errors.CodeDeniedOperation).WithDetail("session already attached")
	}

	rw, err := s.fetch(s.ctx, url)
	if err != nil {
		return err
	}
	doc, err := document.Parse(rw.body.String())
	if err != nil {
		return errors.New(errors.CodeRender).Wrap(err).WithDetail("parse initial document")
	}
	if _, err := renderer.Bootstrap(s.ctx, doc, s.cache); err != nil {
		s.logger.Warn("revival payload rejected", "error", err)
	}

	s.attach(doc)
	return s.navigate(Navigation{URL: url}, 0)
}

func (s *Session) attach(doc *document.Document) {
	cfg := s.server.config

	scheduler := renderer.NewTickScheduler(cfg.TickInterval)
	client := renderer.NewClient(renderer.ClientConfig{
		Document:    doc,
		ContainerID: cfg.ContainerID,
		Scheduler:   scheduler,
		Logger:      s.logger,
		Debug:       cfg.Debug,
	})
	manager := lifecycle.NewManager(lifecycle.Config{
		Renderer: client,
		Handlers: []lifecycle.Handler{lifecycle.NewScrollHandler(doc)},
		Variant:  "client",
		Metrics:  cfg.Metrics,
		Tracer:   cfg.Tracer,
		Logger:   s.logger,
	})

	listeners := []func(){
		doc.On(document.EventPatch, s.onPatch),
		doc.On(document.EventHead, s.onHead),
		doc.On(document.EventScroll, s.onScroll),
		doc.On(document.EventError, s.onError),
	}

	s.mu.Lock()
	s.doc = doc
	s.scheduler = scheduler
	s.client = client
	s.manager = manager
	s.listeners = listeners
	s.mu.Unlock()
}

// navigate routes nav through the page handler and follows redirects.
func (s *Session) navigate(nav Navigation, depth int) error {
	ctx := WithSession(s.ctx, s, nav)
	rw, err := s.fetch(ctx, nav.URL)
	if err != nil {
		return err
	}

	if loc, ok := rw.redirect(); ok {
		if depth >= s.server.config.MaxRedirects {
			return errors.New(errors.CodeDeniedOperation).WithDetailf("too many redirects from %s", nav.URL)
		}
		s.send(Message{Type: TypeRedirect, URL: loc})
		return s.navigate(Navigation{
			URL:        loc,
			Action:     lifecycle.ActionRedirect,
			AutoScroll: nav.AutoScroll,
		}, depth+1)
	}

	s.send(Message{Type: TypeResult, URL: nav.URL, Status: rw.statusCode()})
	return nil
}

func (s *Session) fetch(ctx context.Context, url string) (*resultWriter, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.New(errors.CodeDeniedOperation).Wrap(err).WithDetailf("bad url %q", url)
	}
	for key, values := range s.header {
		req.Header[key] = append([]string(nil), values...)
	}
	req.Header.Set("Accept", "text/html")

	rw := newResultWriter()
	s.server.pageHandler().ServeHTTP(rw, req)
	return rw, nil
}

// ReportError sends err to the browser.
func (s *Session) ReportError(err error) {
	if err == nil {
		return
	}
	s.logger.Warn("navigation failed", "error", err)
	s.send(Message{
		Type:    TypeError,
		Code:    errors.CodeOf(err),
		Message: err.Error(),
	})
}

func (s *Session) onPatch(ev document.Event) {
	if len(ev.Patches) == 0 {
		return
	}
	s.patchCount.Add(int64(len(ev.Patches)))
	s.server.config.Metrics.RecordPatches(len(ev.Patches))
	s.send(Message{Type: TypePatches, Target: ev.Target, Patches: ev.Patches})
}

func (s *Session) onHead(document.Event) {
	doc := s.Document()
	if doc == nil {
		return
	}

	html := render.NewRenderer(render.RendererConfig{SkipHIDs: true})
	var b strings.Builder
	for _, node := range doc.Head() {
		if !node.HasAttr(render.MetaMarker) {
			continue
		}
		if err := html.RenderToWriter(&b, node); err != nil {
			s.logger.Warn("head render failed", "error", err)
			return
		}
	}
	s.send(Message{Type: TypeHead, Title: doc.Title(), HTML: b.String()})
}

func (s *Session) onScroll(document.Event) {
	doc := s.Document()
	if doc == nil {
		return
	}
	x, y := doc.ScrollPosition()
	s.send(Message{Type: TypeScroll, X: x, Y: y})
}

func (s *Session) onError(ev document.Event) {
	s.ReportError(ev.Err)
}

func (s *Session) send(msg Message) {
	if s.closed.Load() {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("message encode error", "type", msg.Type, "error", err)
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(s.server.config.WriteTimeout))
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.logger.Debug("write failed", "type", msg.Type, "error", err)
		return
	}
	s.bytesSent.Add(int64(len(data)))
}

// Close tears down the managed page and closes the connection.
func (s *Session) Close() {
	if s.closed.Swap(true) {
		return
	}
	s.cancel()
	close(s.done)

	s.mu.Lock()
	manager, scheduler, listeners := s.manager, s.scheduler, s.listeners
	s.listeners = nil
	s.mu.Unlock()

	if manager != nil {
		manager.Destroy()
	}
	for _, off := range listeners {
		off()
	}
	if scheduler != nil {
		scheduler.Close()
	}

	s.writeMu.Lock()
	s.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	s.writeMu.Unlock()
	s.conn.Close()

	s.logger.Info("session closed",
		"patches", s.patchCount.Load(),
		"bytes_sent", s.bytesSent.Load(),
		"bytes_recv", s.bytesRecv.Load())
}
