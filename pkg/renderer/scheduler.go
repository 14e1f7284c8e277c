package renderer

import (
	"sync"
	"time"
)

// DefaultTickInterval is one display frame at 60Hz.
const DefaultTickInterval = 16 * time.Millisecond

// Scheduler runs callbacks on a later tick.
type Scheduler interface {
	Schedule(fn func())
}

// TickScheduler runs every callback queued before a tick on that tick.
// Its ticker only runs while callbacks are queued.
type TickScheduler struct {
	interval time.Duration

	mu      sync.Mutex
	queue   []func()
	running bool
	closed  bool
	done    chan struct{}
}

// NewTickScheduler creates a TickScheduler. A non-positive interval uses
// DefaultTickInterval.
func NewTickScheduler(interval time.Duration) *TickScheduler {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &TickScheduler{
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Schedule queues fn for the next tick. It is dropped after Close.
func (s *TickScheduler) Schedule(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.queue = append(s.queue, fn)
	if !s.running {
		s.running = true
		go s.loop()
	}
}

func (s *TickScheduler) loop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
		}

		s.mu.Lock()
		batch := s.queue
		s.queue = nil
		s.mu.Unlock()

		for _, fn := range batch {
			fn()
		}

		s.mu.Lock()
		if len(s.queue) == 0 {
			s.running = false
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()
	}
}

// Close stops the scheduler and drops queued callbacks.
func (s *TickScheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.queue = nil
	close(s.done)
}

// ManualScheduler queues callbacks until Flush is called.
type ManualScheduler struct {
	mu    sync.Mutex
	queue []func()
	ready chan struct{}
}

// NewManualScheduler creates an empty ManualScheduler.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{ready: make(chan struct{}, 1)}
}

// Schedule queues fn.
func (s *ManualScheduler) Schedule(fn func()) {
	s.mu.Lock()
	s.queue = append(s.queue, fn)
	s.mu.Unlock()

	select {
	case s.ready <- struct{}{}:
	default:
	}
}

// Flush runs the callbacks queued so far and returns how many ran.
// Callbacks they schedule wait for the next Flush.
func (s *ManualScheduler) Flush() int {
	s.mu.Lock()
	batch := s.queue
	s.queue = nil
	s.mu.Unlock()

	for _, fn := range batch {
		fn()
	}
	return len(batch)
}

// Len returns the number of queued callbacks.
func (s *ManualScheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Ready is signaled when a callback is queued.
func (s *ManualScheduler) Ready() <-chan struct{} {
	return s.ready
}
