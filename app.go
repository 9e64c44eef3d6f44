// Package main contains the application wiring and the AppManager which
// coordinates the timer, the settings store, audio and the run history.
//
// Maintenance notes / tips:
//   - Concurrency model: every timer operation and every tick runs on the
//     single control.Loop goroutine started by Run. Input from stdin is read
//     on its own goroutine and turned into commands with Enqueue; never call
//     timer methods from that goroutine directly.
//   - onFinish runs on the loop goroutine too. It only prints, starts the
//     alarm (non-blocking) and hands the history write to a goroutine so the
//     loop is never held up by disk I/O.
package main

import (
	"bufio"
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/logger"

	"FocusTimers/config"
	"FocusTimers/control"
	"FocusTimers/history"
	"FocusTimers/i18n"
	"FocusTimers/settings"
	"FocusTimers/sound"
	"FocusTimers/timer"
)

// AppManager is the main application struct, holding all state.
type AppManager struct {
	cfg      config.Config
	presets  []timer.TimerConfig
	settings *settings.Store
	player   *sound.Player
	history  *history.DB // nil when history is disabled
	out      io.Writer

	wg sync.WaitGroup
}

// NewAppManager creates a new application manager.
func NewAppManager(cfg config.Config, content embed.FS, out io.Writer) (*AppManager, error) {
	a := &AppManager{cfg: cfg, out: out}

	presets, err := timer.LoadTimerConfigs(content)
	if err != nil {
		logger.Warningf("Using built-in presets: %v", err)
		presets = timer.DefaultTimerConfigs
	}
	a.presets = presets
	logger.Infof("Loaded %d timer presets.", len(presets))

	a.settings, err = settings.Load(cfg.Settings.Path, presets)
	if err != nil {
		return nil, err
	}

	snd := a.settings.Sound()
	a.player = sound.NewPlayer(snd.Volume, cfg.Audio.Enabled)
	if cfg.Audio.Enabled && snd.Path != "" {
		if err := a.player.Load(a.resolve(snd.Path)); err != nil {
			logger.Warningf("Alarm disabled: %v", err)
		}
	}

	if cfg.History.Enabled {
		if err := os.MkdirAll(filepath.Dir(cfg.History.Path), 0o755); err != nil {
			return nil, fmt.Errorf("mkdir history dir: %w", err)
		}
		a.history, err = history.Open(cfg.History.Path)
		if err != nil {
			return nil, err
		}
	}
	return a, nil
}

// resolve interprets relative sound paths against the settings directory.
func (a *AppManager) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(filepath.Dir(a.settings.Path()), path)
}

// Timers returns the configured presets, settings overriding the built-ins.
func (a *AppManager) Timers() []timer.TimerConfig {
	if ts := a.settings.Timers(); len(ts) > 0 {
		return ts
	}
	return a.presets
}

// Timer finds a preset by name or id.
func (a *AppManager) Timer(key string) (timer.TimerConfig, bool) {
	if tc, ok := a.settings.Timer(key); ok {
		return tc, true
	}
	return timer.FindTimerConfig(a.presets, key)
}

// Settings returns the settings store.
func (a *AppManager) Settings() *settings.Store {
	return a.settings
}

// History returns the run history, or nil when disabled.
func (a *AppManager) History() *history.DB {
	return a.history
}

// Close waits for pending history writes and releases resources.
func (a *AppManager) Close() error {
	a.wg.Wait()
	if a.history != nil {
		return a.history.Close()
	}
	return nil
}

// inputCommands maps stdin lines to timer commands.
var inputCommands = map[string]control.CommandType{
	"p": control.CmdToggle,
	"":  control.CmdToggle,
	"r": control.CmdRestart,
	"x": control.CmdReset,
	"f": control.CmdFinish,
}

// errQuit ends a run at the user's request.
var errQuit = errors.New("quit")

// Run counts preset down on a fresh loop, reading control keys from in,
// until the countdown finishes, ctx is done or the user quits.
func (a *AppManager) Run(ctx context.Context, preset timer.TimerConfig, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	loop := control.NewLoop(256)
	name := i18n.T(preset.Name)
	finished := make(chan struct{})
	var (
		finishOnce sync.Once
		startedAt  time.Time
		completed  int
		tm         *timer.Timer
		err        error
	)

	tm, err = timer.New(preset.Duration(), loop,
		timer.WithOnSecondTick(func(p timer.TimeParts) {
			fmt.Fprintf(a.out, "\r%s %s ", name, timer.FormatTime(p))
		}),
		timer.WithOnFinish(func() {
			now := loop.Now()
			fmt.Fprintf(a.out, "\r%s %s\n", name, i18n.T("Finished!"))
			a.player.Play()
			a.record(preset, startedAt, now, tm.Duration()-tm.Remaining())
			if preset.ID == int(timer.TimerIndexPomodoro) {
				completed++
				a.upNext(completed)
			}
			if a.settings.AutoStarting().AutoStart {
				// Restart is safe from inside the finish callback.
				startedAt = now
				tm.Restart()
				return
			}
			finishOnce.Do(func() { close(finished) })
		}),
	)
	if err != nil {
		return err
	}

	loop.SetObserver(func(cmd control.Command, from, to timer.State) {
		if to == timer.StateActive && from != timer.StateStopped {
			startedAt = loop.Now()
		}
		if from != to {
			a.status(name, to, tm.Remaining())
		}
	})

	loopDone := make(chan error, 1)
	go func() { loopDone <- loop.Run(ctx) }()

	if !loop.Enqueue(control.Command{Type: control.CmdStart, Target: tm}) {
		cancel()
		<-loopDone
		return errors.New("timer loop is not accepting commands")
	}

	input := make(chan error, 1)
	go func() { input <- a.readInput(ctx, in, loop, tm) }()

	select {
	case <-finished:
		cancel()
	case err := <-input:
		cancel()
		if err != nil && !errors.Is(err, errQuit) {
			<-loopDone
			return fmt.Errorf("read input: %w", err)
		}
	case <-ctx.Done():
	}
	<-loopDone
	return nil
}

func (a *AppManager) readInput(ctx context.Context, in io.Reader, loop *control.Loop, tm *timer.Timer) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		key := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if key == "q" {
			return errQuit
		}
		cmdType, ok := inputCommands[key]
		if !ok {
			// output belongs to the loop goroutine
			loop.Post(func() {
				fmt.Fprintf(a.out, "\nunknown key %q (p: pause/continue, r: restart, x: reset, f: finish, q: quit)\n", key)
			})
			continue
		}
		loop.Enqueue(control.Command{Type: cmdType, Target: tm})
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	// stdin closed: keep counting until the timer finishes or ctx ends
	<-ctx.Done()
	return nil
}

// upNext suggests the break that follows the n-th completed pomodoro.
func (a *AppManager) upNext(n int) {
	next := timer.TimerIndexShortBreak
	if every := a.settings.AutoStarting().LongBreakInterval; every > 0 && n%every == 0 {
		next = timer.TimerIndexLongBreak
	}
	if tc, ok := a.Timer(fmt.Sprint(int(next))); ok {
		fmt.Fprintf(a.out, "%s: %s\n", i18n.T("Up next"), i18n.T(tc.Name))
	}
}

func (a *AppManager) status(name string, s timer.State, remaining time.Duration) {
	var label string
	switch s {
	case timer.StateActive:
		label = i18n.T("Running")
	case timer.StateStopped:
		label = i18n.T("Paused")
	case timer.StateReady:
		label = i18n.T("Ready")
	default:
		return
	}
	fmt.Fprintf(a.out, "\r%s %s [%s]\n", name, timer.FormatTime(timer.PartsOf(remaining)), label)
}

// record saves a finished run without blocking the loop. active is the time
// actually counted down, which is short of the preset when finished early.
func (a *AppManager) record(preset timer.TimerConfig, startedAt, finishedAt time.Time, active time.Duration) {
	if a.history == nil {
		return
	}
	if startedAt.IsZero() {
		startedAt = finishedAt
	}
	rec := &history.Record{
		Name:       preset.Name,
		Duration:   active,
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.history.Save(ctx, rec); err != nil {
			logger.Errorf("Failed to record session: %v", err)
		}
	}()
}
