// Package control defines the event loop timers run on and the lightweight
// command messages callers use to drive them. Every timer mutation happens on
// the loop goroutine, which keeps timer state single-owner.
package control

import (
	"fmt"

	"FocusTimers/timer"
)

// CommandType enumerates supported command operations.
type CommandType int

const (
	CmdStart CommandType = iota
	CmdStop
	CmdContinue
	CmdReset
	CmdFinish
	CmdRestart
	CmdSetDuration
	// CmdToggle stops an active timer, continues a stopped one and starts a
	// ready one.
	CmdToggle
)

func (c CommandType) String() string {
	switch c {
	case CmdStart:
		return "start"
	case CmdStop:
		return "stop"
	case CmdContinue:
		return "continue"
	case CmdReset:
		return "reset"
	case CmdFinish:
		return "finish"
	case CmdRestart:
		return "restart"
	case CmdSetDuration:
		return "set-duration"
	case CmdToggle:
		return "toggle"
	}
	return fmt.Sprintf("command(%d)", int(c))
}

// Command is the message sent to Loop.Run. The optional Reply channel
// receives the result once the command has been applied.
type Command struct {
	Type     CommandType
	Target   *timer.Timer
	Duration timer.Duration // CmdSetDuration only
	Reply    chan error     // optional reply channel
}

// Apply runs cmd against its target timer. It must be called on the loop
// goroutine.
func Apply(cmd Command) error {
	t := cmd.Target
	if t == nil {
		return fmt.Errorf("%v: no target timer", cmd.Type)
	}
	switch cmd.Type {
	case CmdStart:
		t.Start()
	case CmdStop:
		t.Stop()
	case CmdContinue:
		t.Continue()
	case CmdReset:
		t.Reset()
	case CmdFinish:
		t.Finish()
	case CmdRestart:
		t.Restart()
	case CmdSetDuration:
		return t.SetDuration(cmd.Duration)
	case CmdToggle:
		switch t.State() {
		case timer.StateActive:
			t.Stop()
		case timer.StateStopped:
			t.Continue()
		case timer.StateReady:
			t.Start()
		}
	default:
		return fmt.Errorf("unknown command %v", cmd.Type)
	}
	return nil
}
