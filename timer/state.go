package timer

// State is the lifecycle state of a countdown timer.
type State int

const (
	StateReady State = iota
	StateActive
	StateStopped
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateActive:
		return "active"
	case StateStopped:
		return "stopped"
	case StateFinished:
		return "finished"
	}
	return "unknown"
}

// event is a lifecycle request fed to transition.
type event int

const (
	evStart event = iota
	evStop
	evContinue
	evReset
	evFinish
)

// effect is a set of side effects the timer applies after a transition,
// always in declaration order.
type effect uint8

const (
	effCancel   effect = 1 << iota // cancel the outstanding tick
	effFreeze                      // snapshot live remaining, ceiled to the second
	effRestore                     // remaining = total
	effLaunch                      // launchedAt = now
	effSchedule                    // schedule the next tick one interval out
	effNotify                      // call onFinish
)

func (e effect) has(f effect) bool { return e&f != 0 }

// transition maps (state, event) to the next state and the effects to apply.
// ok is false when the event is not valid from s; callers treat that as a no-op.
func transition(s State, ev event) (next State, eff effect, ok bool) {
	switch ev {
	case evStart:
		if s == StateReady {
			return StateActive, effLaunch | effSchedule, true
		}
	case evStop:
		if s == StateActive {
			return StateStopped, effCancel | effFreeze, true
		}
	case evContinue:
		if s == StateStopped {
			return StateActive, effLaunch | effSchedule, true
		}
	case evReset:
		switch s {
		case StateActive, StateStopped:
			return StateReady, effCancel | effRestore, true
		case StateFinished:
			// nothing is pending once finished
			return StateReady, effRestore, true
		}
	case evFinish:
		if s == StateActive {
			return StateFinished, effCancel | effFreeze | effNotify, true
		}
	}
	return s, 0, false
}
