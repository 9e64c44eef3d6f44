package control

import (
	"context"
	"testing"
	"time"

	"FocusTimers/timer"
)

const waitLimit = 3 * time.Second

func runLoop(t *testing.T) *Loop {
	t.Helper()
	l := NewLoop(16)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return l
}

// drain waits until every job queued so far has run.
func drain(t *testing.T, l *Loop) {
	t.Helper()
	ch := make(chan struct{})
	l.Post(func() { close(ch) })
	select {
	case <-ch:
	case <-time.After(waitLimit):
		t.Fatal("loop did not drain")
	}
}

func TestScheduleRunsCallback(t *testing.T) {
	l := runLoop(t)
	fired := make(chan struct{})
	l.Post(func() {
		l.Schedule(func() { close(fired) }, 10*time.Millisecond)
	})
	select {
	case <-fired:
	case <-time.After(waitLimit):
		t.Fatal("scheduled callback never ran")
	}
}

func TestCancelDropsQueuedCallback(t *testing.T) {
	l := runLoop(t)

	gate := make(chan struct{})
	l.Post(func() { <-gate })

	ran := false
	h := l.Schedule(func() { ran = true }, time.Millisecond)
	// Let the AfterFunc fire and queue the callback behind the blocked job.
	time.Sleep(50 * time.Millisecond)
	l.Cancel(h)
	close(gate)
	drain(t, l)

	if ran {
		t.Error("cancelled callback ran")
	}
}

func TestCancelIsSafeOnUnknownHandles(t *testing.T) {
	l := NewLoop(1)
	l.Cancel(0)
	l.Cancel(42)
	h := l.Schedule(func() {}, time.Hour)
	l.Cancel(h)
	l.Cancel(h)
	if len(l.pending) != 0 {
		t.Errorf("pending = %d, want 0", len(l.pending))
	}
}

func TestEnqueueAppliesCommand(t *testing.T) {
	l := runLoop(t)
	tm, err := timer.New(timer.Duration{Minutes: 1}, l)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		cmd  CommandType
		want timer.State
	}{
		{CmdToggle, timer.StateActive},
		{CmdToggle, timer.StateStopped},
		{CmdToggle, timer.StateActive},
		{CmdStop, timer.StateStopped},
		{CmdContinue, timer.StateActive},
		{CmdFinish, timer.StateFinished},
		{CmdReset, timer.StateReady},
		{CmdRestart, timer.StateActive},
	}
	for _, tc := range tests {
		reply := make(chan error, 1)
		if !l.Enqueue(Command{Type: tc.cmd, Target: tm, Reply: reply}) {
			t.Fatalf("%v: command dropped", tc.cmd)
		}
		select {
		case err := <-reply:
			if err != nil {
				t.Fatalf("%v: %v", tc.cmd, err)
			}
		case <-time.After(waitLimit):
			t.Fatalf("%v: no reply", tc.cmd)
		}

		state := make(chan timer.State, 1)
		l.Post(func() { state <- tm.State() })
		if got := <-state; got != tc.want {
			t.Errorf("after %v: state = %v, want %v", tc.cmd, got, tc.want)
		}
	}
}

func TestEnqueueSetDuration(t *testing.T) {
	l := runLoop(t)
	tm, err := timer.New(timer.Duration{Minutes: 1}, l)
	if err != nil {
		t.Fatal(err)
	}

	reply := make(chan error, 1)
	l.Enqueue(Command{Type: CmdSetDuration, Target: tm, Duration: timer.Duration{Seconds: -1}, Reply: reply})
	if err := <-reply; err == nil {
		t.Error("negative duration: expected an error")
	}

	l.Enqueue(Command{Type: CmdSetDuration, Target: tm, Duration: timer.Duration{Seconds: 30}, Reply: reply})
	if err := <-reply; err != nil {
		t.Fatal(err)
	}
	got := make(chan time.Duration, 1)
	l.Post(func() { got <- tm.Duration() })
	if d := <-got; d != 30*time.Second {
		t.Errorf("Duration() = %v, want 30s", d)
	}
}

func TestApplyWithoutTarget(t *testing.T) {
	if err := Apply(Command{Type: CmdStart}); err == nil {
		t.Error("expected an error for a command without a target")
	}
}

func TestEnqueueDropsWhenFull(t *testing.T) {
	l := NewLoop(0) // nobody runs it
	if l.Enqueue(Command{Type: CmdStart}) {
		t.Error("Enqueue() succeeded on a loop that is not running")
	}
}

func TestTimerFinishesOnLoop(t *testing.T) {
	l := runLoop(t)
	finished := make(chan struct{})
	ticks := make(chan timer.TimeParts, 4)
	tm, err := timer.New(timer.Duration{Seconds: 1}, l,
		timer.WithOnSecondTick(func(p timer.TimeParts) { ticks <- p }),
		timer.WithOnFinish(func() { close(finished) }),
	)
	if err != nil {
		t.Fatal(err)
	}
	l.Enqueue(Command{Type: CmdStart, Target: tm})

	select {
	case <-finished:
	case <-time.After(waitLimit):
		t.Fatal("timer never finished")
	}
	if got := <-ticks; got != (timer.TimeParts{}) {
		t.Errorf("final tick = %+v, want zero", got)
	}
}

func TestObserverSeesTransitions(t *testing.T) {
	l := runLoop(t)
	type change struct {
		cmd      CommandType
		from, to timer.State
	}
	changes := make(chan change, 8)
	l.SetObserver(func(cmd Command, from, to timer.State) {
		changes <- change{cmd.Type, from, to}
	})
	tm, err := timer.New(timer.Duration{Minutes: 1}, l)
	if err != nil {
		t.Fatal(err)
	}

	want := []change{
		{CmdStart, timer.StateReady, timer.StateActive},
		{CmdStop, timer.StateActive, timer.StateStopped},
		{CmdRestart, timer.StateStopped, timer.StateActive},
	}
	for _, w := range want {
		l.Enqueue(Command{Type: w.cmd, Target: tm})
		select {
		case got := <-changes:
			if got != w {
				t.Errorf("observed %+v, want %+v", got, w)
			}
		case <-time.After(waitLimit):
			t.Fatalf("%v: not observed", w.cmd)
		}
	}
}

func TestStoppedLoopRejectsWork(t *testing.T) {
	for _, queue := range []int{4, 1} {
		l := NewLoop(queue)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := l.Run(ctx); err != context.Canceled {
			t.Fatalf("Run() = %v, want %v", err, context.Canceled)
		}
		if queue == 1 {
			// a full queue must not hold Enqueue until its timeout
			l.jobs <- job{fn: func() {}}
		}

		start := time.Now()
		if l.Enqueue(Command{Type: CmdStart}) {
			t.Errorf("queue %d: Enqueue on a stopped loop reported success", queue)
		}
		if l.Post(func() {}) {
			t.Errorf("queue %d: Post on a stopped loop reported success", queue)
		}
		if elapsed := time.Since(start); elapsed >= enqueueTimeout {
			t.Errorf("queue %d: rejecting work took %v", queue, elapsed)
		}
	}
}
