// Package timertest provides a simulated loop for driving timers in tests
// without waiting on the wall clock.
package timertest

import (
	"sort"
	"time"

	"FocusTimers/timer"
)

type pending struct {
	h     timer.Handle
	due   time.Time
	delay time.Duration
	fn    func()
}

// Loop is a manually advanced timer.Loop. Callbacks run synchronously inside
// Advance and Step, with Now set to the moment they fire.
type Loop struct {
	now     time.Time
	next    timer.Handle
	queue   []pending
	delays  []time.Duration
	cancels int
}

// NewLoop returns a loop whose clock starts at start.
func NewLoop(start time.Time) *Loop {
	return &Loop{now: start}
}

// Now returns the simulated time.
func (l *Loop) Now() time.Time { return l.now }

// Schedule records fn to run delay after the current simulated time.
func (l *Loop) Schedule(fn func(), delay time.Duration) timer.Handle {
	l.next++
	l.queue = append(l.queue, pending{h: l.next, due: l.now.Add(delay), delay: delay, fn: fn})
	sort.SliceStable(l.queue, func(i, j int) bool { return l.queue[i].due.Before(l.queue[j].due) })
	l.delays = append(l.delays, delay)
	return l.next
}

// Cancel removes h from the queue if it is still pending.
func (l *Loop) Cancel(h timer.Handle) {
	for i, p := range l.queue {
		if p.h == h {
			l.queue = append(l.queue[:i], l.queue[i+1:]...)
			l.cancels++
			return
		}
	}
}

// Advance moves the clock forward by d, running every callback that falls
// due on the way, including ones scheduled by earlier callbacks.
func (l *Loop) Advance(d time.Duration) {
	end := l.now.Add(d)
	for len(l.queue) > 0 && !l.queue[0].due.After(end) {
		p := l.pop()
		l.now = p.due
		p.fn()
	}
	l.now = end
}

// Step runs only the earliest pending callback, late after its due time.
// It reports false when nothing is pending.
func (l *Loop) Step(late time.Duration) bool {
	if len(l.queue) == 0 {
		return false
	}
	p := l.pop()
	if t := p.due.Add(late); t.After(l.now) {
		l.now = t
	}
	p.fn()
	return true
}

// Pending returns the number of callbacks waiting to run.
func (l *Loop) Pending() int { return len(l.queue) }

// LastDelay returns the delay passed to the most recent Schedule call.
func (l *Loop) LastDelay() time.Duration {
	if len(l.delays) == 0 {
		return 0
	}
	return l.delays[len(l.delays)-1]
}

// Delays returns every delay passed to Schedule, oldest first.
func (l *Loop) Delays() []time.Duration {
	return append([]time.Duration(nil), l.delays...)
}

// Cancels returns how many pending callbacks were cancelled.
func (l *Loop) Cancels() int { return l.cancels }

func (l *Loop) pop() pending {
	p := l.queue[0]
	l.queue = l.queue[1:]
	return p
}
