package livesync

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/isopage/pkg/cache"
	"github.com/vango-dev/isopage/pkg/telemetry"
)

// Config configures a Server.
type Config struct {
	// ContainerID is the id of the element pages render into.
	ContainerID string

	// TickInterval paces batched state commits in each session.
	TickInterval time.Duration

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ReadBufferSize  int
	WriteBufferSize int

	// Cache is shared with the page handler. Each session works on its own
	// cache session restored from the page's revival payload.
	Cache *cache.Cache

	// MaxRedirects bounds redirect chains followed for one navigation.
	MaxRedirects int

	// CheckOrigin validates the Origin header on upgrade. Nil accepts
	// same-origin requests only.
	CheckOrigin func(r *http.Request) bool

	Metrics *telemetry.Metrics
	Tracer  *telemetry.Tracer
	Logger  *slog.Logger
	Debug   bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ContainerID:     "page",
		TickInterval:    16 * time.Millisecond,
		ReadTimeout:     60 * time.Second,
		WriteTimeout:    10 * time.Second,
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		MaxRedirects:    5,
	}
}

// Server upgrades requests to live sessions.
type Server struct {
	config   Config
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu       sync.RWMutex
	handler  http.Handler
	sessions map[string]*Session
}

// NewServer creates a Server. Zero fields in config take their defaults.
func NewServer(config Config) *Server {
	defaults := DefaultConfig()
	if config.ContainerID == "" {
		config.ContainerID = defaults.ContainerID
	}
	if config.TickInterval <= 0 {
		config.TickInterval = defaults.TickInterval
	}
	if config.ReadTimeout <= 0 {
		config.ReadTimeout = defaults.ReadTimeout
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = defaults.WriteTimeout
	}
	if config.ReadBufferSize <= 0 {
		config.ReadBufferSize = defaults.ReadBufferSize
	}
	if config.WriteBufferSize <= 0 {
		config.WriteBufferSize = defaults.WriteBufferSize
	}
	if config.MaxRedirects <= 0 {
		config.MaxRedirects = defaults.MaxRedirects
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Server{
		config: config,
		logger: config.Logger.With("component", "livesync"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		sessions: make(map[string]*Session),
	}
}

// SetHandler sets the page handler navigations are routed through. The
// handler usually also serves the Server itself, so it is set after
// construction.
func (s *Server) SetHandler(h http.Handler) {
	s.mu.Lock()
	s.handler = h
	s.mu.Unlock()
}

func (s *Server) pageHandler() http.Handler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.handler == nil {
		return http.NotFoundHandler()
	}
	return s.handler
}

// ServeHTTP upgrades the request and runs the session until the
// connection closes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	sess := newSession(s, generateSessionID(), conn, r.Header)
	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()
	s.config.Metrics.SessionOpened()
	s.logger.Info("session opened", "session_id", sess.id, "remote", r.RemoteAddr)

	defer func() {
		s.mu.Lock()
		delete(s.sessions, sess.id)
		s.mu.Unlock()
		s.config.Metrics.SessionClosed()
	}()

	sess.ReadLoop()
}

// Session returns the live session with the given id.
func (s *Server) Session(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// SessionCount returns the number of open sessions.
func (s *Server) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close closes every open session.
func (s *Server) Close() {
	s.mu.RLock()
	open := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		open = append(open, sess)
	}
	s.mu.RUnlock()

	for _, sess := range open {
		sess.Close()
	}
}

func generateSessionID() string {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return hex.EncodeToString([]byte(time.Now().String()))[:24]
	}
	return hex.EncodeToString(b)
}
