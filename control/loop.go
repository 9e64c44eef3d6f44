package control

import (
	"context"
	"sync"
	"time"

	"github.com/google/logger"

	"FocusTimers/timer"
)

// enqueueTimeout bounds how long Enqueue waits on a full queue.
const enqueueTimeout = 150 * time.Millisecond

type job struct {
	h   timer.Handle // zero for posted work
	fn  func()
	cmd *Command
}

// Loop is a single-goroutine event loop implementing timer.Loop on real
// time. Scheduled callbacks are armed with time.AfterFunc but always run
// inside Run, never on the AfterFunc goroutine.
type Loop struct {
	jobs chan job
	now  func() time.Time
	done chan struct{}
	once sync.Once

	mu       sync.Mutex
	next     timer.Handle
	pending  map[timer.Handle]*time.Timer
	observer Observer
}

// Observer is told about every applied command with the target's state
// before and after. It runs on the loop goroutine.
type Observer func(cmd Command, from, to timer.State)

// NewLoop creates a loop with a queue of the given size.
func NewLoop(queue int) *Loop {
	return &Loop{
		jobs:    make(chan job, queue),
		now:     time.Now,
		done:    make(chan struct{}),
		pending: make(map[timer.Handle]*time.Timer),
	}
}

// SetObserver installs fn as the command observer.
func (l *Loop) SetObserver(fn Observer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.observer = fn
}

// Now returns the wall-clock time.
func (l *Loop) Now() time.Time { return l.now() }

// Schedule arranges for fn to run on the loop after delay.
func (l *Loop) Schedule(fn func(), delay time.Duration) timer.Handle {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.next++
	h := l.next
	l.pending[h] = time.AfterFunc(delay, func() {
		select {
		case l.jobs <- job{h: h, fn: fn}:
		case <-l.done:
		}
	})
	return h
}

// Cancel drops h. A callback whose AfterFunc already fired but which has not
// run yet is dropped too, since Run only executes handles still pending.
func (l *Loop) Cancel(h timer.Handle) {
	if h == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if t, ok := l.pending[h]; ok {
		t.Stop()
		delete(l.pending, h)
	}
}

// Post queues fn to run on the loop. It blocks while the queue is full and
// reports false once the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	if l.stopped() {
		return false
	}
	select {
	case l.jobs <- job{fn: fn}:
		return true
	case <-l.done:
		return false
	}
}

// Enqueue posts a command to the loop. If the queue stays full for a short
// while the command is dropped and logged so callers never block for long.
// It reports false once the loop has stopped.
func (l *Loop) Enqueue(cmd Command) bool {
	if l.stopped() {
		return false
	}
	select {
	case l.jobs <- job{cmd: &cmd}:
		return true
	case <-l.done:
		return false
	case <-time.After(enqueueTimeout):
		logger.Warningf("Enqueue timeout: dropping %v command", cmd.Type)
		return false
	}
}

func (l *Loop) stopped() bool {
	select {
	case <-l.done:
		return true
	default:
		return false
	}
}

// Run executes queued work until ctx is done, then cancels everything still
// scheduled.
func (l *Loop) Run(ctx context.Context) error {
	defer l.once.Do(func() { close(l.done) })
	defer l.cancelAll()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case j := <-l.jobs:
			l.run(j)
		}
	}
}

func (l *Loop) run(j job) {
	switch {
	case j.cmd != nil:
		var from timer.State
		if j.cmd.Target != nil {
			from = j.cmd.Target.State()
		}
		err := Apply(*j.cmd)
		if err != nil {
			logger.Warningf("%v command failed: %v", j.cmd.Type, err)
		} else {
			l.mu.Lock()
			observe := l.observer
			l.mu.Unlock()
			if observe != nil {
				observe(*j.cmd, from, j.cmd.Target.State())
			}
		}
		if j.cmd.Reply != nil {
			select {
			case j.cmd.Reply <- err:
			default:
			}
		}
	case j.h != 0:
		l.mu.Lock()
		_, live := l.pending[j.h]
		delete(l.pending, j.h)
		l.mu.Unlock()
		if live {
			j.fn()
		}
	default:
		j.fn()
	}
}

func (l *Loop) cancelAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for h, t := range l.pending {
		t.Stop()
		delete(l.pending, h)
	}
}
