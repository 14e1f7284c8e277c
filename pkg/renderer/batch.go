package renderer

import (
	"sync"

	"github.com/vango-dev/isopage/pkg/page"
)

// batcher groups resource patches into one state commit per scheduler tick.
// A transaction is open from start until the last tick or finish; each tick
// commits what accumulated and reopens the transaction while resources are
// outstanding.
type batcher struct {
	scheduler Scheduler
	ctrl      page.Renderable
	current   func() bool

	mu          sync.Mutex
	outstanding int
	stopped     bool
}

func newBatcher(scheduler Scheduler, ctrl page.Renderable, outstanding int, current func() bool) *batcher {
	return &batcher{
		scheduler:   scheduler,
		ctrl:        ctrl,
		current:     current,
		outstanding: outstanding,
	}
}

func (b *batcher) start() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ctrl.BeginStateTransaction()
	b.scheduler.Schedule(b.tick)
}

func (b *batcher) tick() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return
	}

	b.ctrl.CommitStateTransaction()
	if b.outstanding > 0 && b.current() {
		b.ctrl.BeginStateTransaction()
		b.scheduler.Schedule(b.tick)
		return
	}
	b.stopped = true
}

// set queues one resolved resource. It reports false, and does nothing,
// after finish or once the page is no longer current.
func (b *batcher) set(key string, value any) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped || !b.current() {
		return false
	}
	b.ctrl.SetState(page.State{key: value})
	return true
}

func (b *batcher) settled() {
	b.mu.Lock()
	b.outstanding--
	b.mu.Unlock()
}

// finish stops ticking and commits whatever is still queued.
func (b *batcher) finish() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopped = true
	b.ctrl.CommitStateTransaction()
}
