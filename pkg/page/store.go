package page

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/vango-dev/isopage/internal/errors"
)

// StateStore holds the state of the current page.
//
// Outside a transaction every Set is applied and published immediately.
// Inside a transaction patches are queued and applied together, with a
// single publish, on Commit.
type StateStore struct {
	mu        sync.Mutex
	state     State
	inTx      bool
	queue     []State
	listeners map[uint64]func(State)
	nextID    uint64
	logger    *slog.Logger
}

// NewStateStore creates an empty store. A nil logger uses slog.Default().
func NewStateStore(logger *slog.Logger) *StateStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &StateStore{
		state:     make(State),
		listeners: make(map[uint64]func(State)),
		logger:    logger,
	}
}

// Get returns a copy of the current state.
func (s *StateStore) Get() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Set merges patch into the state, or queues it during a transaction.
func (s *StateStore) Set(patch State) {
	if len(patch) == 0 {
		return
	}

	s.mu.Lock()
	if s.inTx {
		s.queue = append(s.queue, patch.Clone())
		s.mu.Unlock()
		return
	}
	for k, v := range patch {
		s.state[k] = v
	}
	snapshot, listeners := s.state.Clone(), s.listenersLocked()
	s.mu.Unlock()

	publish(listeners, snapshot)
}

// Begin starts a transaction. Beginning while another transaction is open
// discards the open one.
func (s *StateStore) Begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inTx {
		s.logger.Warn("state transaction already open, discarding queued patches",
			"queued", len(s.queue))
	}
	s.inTx = true
	s.queue = nil
}

// Commit applies every queued patch in order and publishes once.
// It is a no-op when no transaction is open.
func (s *StateStore) Commit() {
	s.mu.Lock()
	if !s.inTx {
		s.mu.Unlock()
		return
	}
	queue := s.queue
	s.inTx = false
	s.queue = nil

	if len(queue) == 0 {
		s.mu.Unlock()
		return
	}
	for _, patch := range queue {
		for k, v := range patch {
			s.state[k] = v
		}
	}
	snapshot, listeners := s.state.Clone(), s.listenersLocked()
	s.mu.Unlock()

	publish(listeners, snapshot)
}

// Cancel drops the open transaction and its queued patches.
func (s *StateStore) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inTx = false
	s.queue = nil
}

// InTransaction reports whether a transaction is open.
func (s *StateStore) InTransaction() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inTx
}

// Clear empties the state and drops any open transaction without publishing.
func (s *StateStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = make(State)
	s.inTx = false
	s.queue = nil
}

// Subscribe registers fn to receive the full state after every change.
// The returned function removes the subscription.
func (s *StateStore) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *StateStore) listenersLocked() []func(State) {
	if len(s.listeners) == 0 {
		return nil
	}
	ids := make([]uint64, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]func(State), 0, len(ids))
	for _, id := range ids {
		out = append(out, s.listeners[id])
	}
	return out
}

func publish(listeners []func(State), state State) {
	for _, fn := range listeners {
		fn(state)
	}
}

// Scoped returns an accessor restricted to keys.
func (s *StateStore) Scoped(keys []string) *ScopedState {
	allowed := make(map[string]bool, len(keys))
	for _, k := range keys {
		allowed[k] = true
	}
	return &ScopedState{store: s, allowed: allowed}
}

// ScopedState is an extension's view of the page state. It exposes only the
// extension's allowed keys, whatever the full state contains.
type ScopedState struct {
	store   *StateStore
	allowed map[string]bool
}

// Get returns the allowed subset of the current state.
func (a *ScopedState) Get() State {
	full := a.store.Get()
	out := make(State, len(a.allowed))
	for k := range a.allowed {
		if v, ok := full[k]; ok {
			out[k] = v
		}
	}
	return out
}

// Set writes the allowed entries of patch. Entries outside the allowed keys
// are dropped and reported as a state-key error.
func (a *ScopedState) Set(patch State) error {
	accepted := make(State, len(patch))
	var denied []string
	for k, v := range patch {
		if a.allowed[k] {
			accepted[k] = v
			continue
		}
		denied = append(denied, k)
	}

	a.store.Set(accepted)

	if len(denied) > 0 {
		sort.Strings(denied)
		return errors.New(errors.CodeStateKeyDenied).WithDetailf("keys %v", denied)
	}
	return nil
}

// Allows reports whether key is in the accessor's scope.
func (a *ScopedState) Allows(key string) bool {
	return a.allowed[key]
}
