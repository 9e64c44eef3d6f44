// Package timer contains the countdown timer used by every FocusTimers preset:
// a small state machine that reports each elapsed second and fires once when
// the countdown reaches zero.
//
// Maintenance notes:
//   - A Timer is not safe for concurrent use. All calls, including the ticks it
//     schedules on its Loop, must happen on one goroutine. control.Loop
//     provides that guarantee in the application; timertest.Loop does in tests.
//   - Lifecycle changes go through transition (see state.go) so the table of
//     valid moves lives in one place. Add new operations there first.
package timer

import (
	"fmt"
	"math"
	"time"
)

// BaseInterval is the nominal distance between second ticks.
const BaseInterval = time.Second

// Handle identifies a callback scheduled on a Loop. The zero Handle means
// nothing is scheduled.
type Handle uint64

// Loop is the caller-owned event loop a Timer runs on.
type Loop interface {
	// Schedule arranges for fn to run on the loop after delay.
	Schedule(fn func(), delay time.Duration) Handle
	// Cancel drops a scheduled callback. Cancelling a zero, fired or already
	// cancelled handle does nothing.
	Cancel(h Handle)
	// Now returns the loop's current time.
	Now() time.Time
}

// MaxSeconds is the longest countdown, in whole seconds, a time.Duration can hold.
const MaxSeconds = int64(math.MaxInt64 / int64(time.Second))

// Duration is a countdown length expressed the way users enter it.
type Duration struct {
	Minutes int
	Seconds int
}

// Validate reports an error wrapping ErrInvalidArgument when d has a negative
// component or is too long to represent.
func (d Duration) Validate() error {
	if d.Minutes < 0 || d.Seconds < 0 {
		return fmt.Errorf("%w: duration %dm%ds has a negative component", ErrInvalidArgument, d.Minutes, d.Seconds)
	}
	if int64(d.Minutes) > MaxSeconds/60 || int64(d.Seconds) > MaxSeconds-int64(d.Minutes)*60 {
		return fmt.Errorf("%w: duration %dm%ds is too long", ErrInvalidArgument, d.Minutes, d.Seconds)
	}
	return nil
}

// Value returns d as a time.Duration.
func (d Duration) Value() time.Duration {
	return TimeParts{Minutes: d.Minutes, Seconds: d.Seconds}.Total()
}

// Option configures a Timer at construction.
type Option func(*Timer) error

// WithOnSecondTick sets the callback invoked about once per elapsed second.
func WithOnSecondTick(fn func(TimeParts)) Option {
	return func(t *Timer) error {
		if fn == nil {
			return fmt.Errorf("%w: second tick callback is not a function", ErrTypeMismatch)
		}
		t.onSecondTick = fn
		return nil
	}
}

// WithOnFinish sets the callback invoked once when the countdown completes.
func WithOnFinish(fn func()) Option {
	return func(t *Timer) error {
		if fn == nil {
			return fmt.Errorf("%w: finish callback is not a function", ErrTypeMismatch)
		}
		t.onFinish = fn
		return nil
	}
}

// Timer is a single countdown.
type Timer struct {
	loop Loop

	state      State
	total      time.Duration
	remaining  time.Duration // authoritative only when not active
	launchedAt time.Time     // valid only while active
	handle     Handle

	onSecondTick func(TimeParts)
	onFinish     func()
}

// New creates a ready timer of length d that schedules its ticks on loop.
func New(d Duration, loop Loop, opts ...Option) (*Timer, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if loop == nil {
		return nil, fmt.Errorf("%w: nil loop", ErrInvalidArgument)
	}

	t := &Timer{
		loop:         loop,
		state:        StateReady,
		total:        d.Value(),
		remaining:    d.Value(),
		onSecondTick: func(TimeParts) {},
		onFinish:     func() {},
	}
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Start begins the countdown from Ready.
func (t *Timer) Start() { t.fire(evStart) }

// Stop pauses an active countdown.
func (t *Timer) Stop() { t.fire(evStop) }

// Continue resumes a stopped countdown.
func (t *Timer) Continue() { t.fire(evContinue) }

// Reset returns the timer to Ready with its full configured duration.
func (t *Timer) Reset() { t.fire(evReset) }

// Finish ends an active countdown immediately and calls the finish callback.
func (t *Timer) Finish() { t.fire(evFinish) }

// Restart resets the timer and starts it again, whatever its state.
func (t *Timer) Restart() {
	t.Reset()
	t.Start()
}

// SetDuration replaces the configured length. It is ignored while the timer
// is active and does not start or stop ticking.
func (t *Timer) SetDuration(d Duration) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if t.state == StateActive {
		return nil
	}
	t.total = d.Value()
	t.remaining = t.total
	return nil
}

// State returns the current lifecycle state.
func (t *Timer) State() State { return t.state }

func (t *Timer) IsReady() bool    { return t.state == StateReady }
func (t *Timer) IsActive() bool   { return t.state == StateActive }
func (t *Timer) IsStopped() bool  { return t.state == StateStopped }
func (t *Timer) IsFinished() bool { return t.state == StateFinished }

// Duration returns the configured countdown length.
func (t *Timer) Duration() time.Duration { return t.total }

// Remaining returns the countdown left, never less than zero. Once finished
// it is what was left when the countdown ended.
func (t *Timer) Remaining() time.Duration {
	if r := t.live(); r > 0 {
		return r
	}
	return 0
}

// live is the remaining time including the current active period.
func (t *Timer) live() time.Duration {
	if t.state != StateActive {
		return t.remaining
	}
	return t.remaining - t.loop.Now().Sub(t.launchedAt)
}

func (t *Timer) fire(ev event) {
	next, eff, ok := transition(t.state, ev)
	if !ok {
		return
	}

	if eff.has(effCancel) {
		t.loop.Cancel(t.handle)
		t.handle = 0
	}
	if eff.has(effFreeze) {
		t.remaining = max(ceilSecond(t.live()), 0)
	}
	if eff.has(effRestore) {
		t.remaining = t.total
	}
	t.state = next
	if eff.has(effLaunch) {
		t.launchedAt = t.loop.Now()
	}
	if eff.has(effSchedule) {
		t.handle = t.loop.Schedule(t.tick, BaseInterval)
	}
	if eff.has(effNotify) {
		t.onFinish()
	}
}

// tick runs on every scheduled firing while active.
func (t *Timer) tick() {
	t.handle = 0
	if t.state != StateActive {
		return
	}

	now := t.loop.Now()
	elapsed := now.Sub(t.launchedAt)
	live := t.remaining - elapsed
	if live <= 0 {
		t.onSecondTick(TimeParts{})
		t.fire(evFinish)
		return
	}

	t.onSecondTick(PartsOf(live.Round(time.Second)))
	// The callback may have moved the timer out of active.
	if t.state != StateActive || t.handle != 0 {
		return
	}
	t.handle = t.loop.Schedule(t.tick, BaseInterval-elapsed%BaseInterval)
}
