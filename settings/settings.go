// Package settings is the persisted key-value store for user preferences:
// timer durations, auto-start behaviour and the finish sound. The timer core
// never reads it; the application copies values out when building timers.
package settings

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/google/logger"

	"FocusTimers/timer"
)

var (
	ErrUnknownKey   = errors.New("unknown settings key")
	ErrInvalidValue = errors.New("invalid settings value")
)

// TimerSetting is the stored duration of one preset.
type TimerSetting struct {
	ID      int    `toml:"id"`
	Name    string `toml:"name"`
	Minutes int    `toml:"minutes"`
	Seconds int    `toml:"seconds"`
}

// SoundSettings selects the alarm played when a timer finishes.
type SoundSettings struct {
	Path   string  `toml:"path"`
	Volume float64 `toml:"volume"`
}

// AutoStartingSettings controls what happens after a timer finishes.
type AutoStartingSettings struct {
	AutoStart         bool `toml:"auto_start"`
	LongBreakInterval int  `toml:"long_break_interval"`
}

// Settings is the whole settings file.
type Settings struct {
	Timers       []TimerSetting       `toml:"timers"`
	Sound        SoundSettings        `toml:"sound"`
	AutoStarting AutoStartingSettings `toml:"auto_starting"`
}

// Defaults returns the settings used before anything has been saved.
func Defaults(presets []timer.TimerConfig) Settings {
	s := Settings{
		Sound:        SoundSettings{Volume: 0.5},
		AutoStarting: AutoStartingSettings{AutoStart: false, LongBreakInterval: 2},
	}
	for _, p := range presets {
		s.Timers = append(s.Timers, TimerSetting{ID: p.ID, Name: p.Name, Minutes: p.Minutes, Seconds: p.Seconds})
	}
	return s
}

// Store is a file-backed settings store. It is safe for concurrent use.
type Store struct {
	path string

	mu sync.Mutex
	s  Settings
}

// Load reads the settings file at path. A missing file is created from
// defaults built out of presets.
func Load(path string, presets []timer.TimerConfig) (*Store, error) {
	st := &Store{path: path, s: Defaults(presets)}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		logger.Infof("Settings file %s not found, writing defaults", path)
		if err := st.Save(); err != nil {
			return nil, err
		}
		return st, nil
	}

	var s Settings
	md, err := toml.DecodeFile(path, &s)
	if err != nil {
		return nil, fmt.Errorf("decode settings %s: %w", path, err)
	}
	for _, k := range md.Undecoded() {
		logger.Warningf("Ignoring unknown settings key %q in %s", k.String(), path)
	}
	if len(s.Timers) == 0 {
		s.Timers = st.s.Timers
	}
	for _, t := range s.Timers {
		if err := (timer.Duration{Minutes: t.Minutes, Seconds: t.Seconds}).Validate(); err != nil {
			return nil, fmt.Errorf("%w: timer %d in %s: %v", ErrInvalidValue, t.ID, path, err)
		}
	}
	if !md.IsDefined("sound", "volume") {
		s.Sound.Volume = st.s.Sound.Volume
	}
	if !md.IsDefined("auto_starting", "long_break_interval") {
		s.AutoStarting.LongBreakInterval = st.s.AutoStarting.LongBreakInterval
	}
	st.s = s
	return st, nil
}

// Path returns the settings file location.
func (st *Store) Path() string { return st.path }

// Save writes the settings file atomically.
func (st *Store) Save() error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.save()
}

func (st *Store) save() error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(st.s); err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(st.path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	tmp := st.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return os.Rename(tmp, st.path)
}

// Snapshot returns a copy of the current settings.
func (st *Store) Snapshot() Settings {
	st.mu.Lock()
	defer st.mu.Unlock()
	s := st.s
	s.Timers = append([]TimerSetting(nil), st.s.Timers...)
	return s
}

// Timers returns the stored presets as timer configurations.
func (st *Store) Timers() []timer.TimerConfig {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]timer.TimerConfig, 0, len(st.s.Timers))
	for _, t := range st.s.Timers {
		out = append(out, timer.TimerConfig{ID: t.ID, Name: t.Name, Minutes: t.Minutes, Seconds: t.Seconds})
	}
	return out
}

// Timer looks a stored preset up by name or id.
func (st *Store) Timer(key string) (timer.TimerConfig, bool) {
	return timer.FindTimerConfig(st.Timers(), key)
}

// Sound returns the alarm settings.
func (st *Store) Sound() SoundSettings {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.s.Sound
}

// AutoStarting returns the auto-start settings.
func (st *Store) AutoStarting() AutoStartingSettings {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.s.AutoStarting
}

// Keys lists every settable key.
func (st *Store) Keys() []string {
	st.mu.Lock()
	defer st.mu.Unlock()
	keys := []string{"sound.path", "sound.volume", "auto_start", "long_break_interval"}
	for _, t := range st.s.Timers {
		for _, f := range []string{"name", "minutes", "seconds"} {
			keys = append(keys, fmt.Sprintf("timers.%d.%s", t.ID, f))
		}
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value stored under key.
func (st *Store) Get(key string) (string, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	switch key {
	case "sound.path":
		return st.s.Sound.Path, nil
	case "sound.volume":
		return strconv.FormatFloat(st.s.Sound.Volume, 'g', -1, 64), nil
	case "auto_start":
		return strconv.FormatBool(st.s.AutoStarting.AutoStart), nil
	case "long_break_interval":
		return strconv.Itoa(st.s.AutoStarting.LongBreakInterval), nil
	}

	t, field, err := st.timerKey(key)
	if err != nil {
		return "", err
	}
	switch field {
	case "name":
		return t.Name, nil
	case "minutes":
		return strconv.Itoa(t.Minutes), nil
	default:
		return strconv.Itoa(t.Seconds), nil
	}
}

// Set validates and stores value under key, then saves the file.
func (st *Store) Set(key, value string) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if err := st.set(key, value); err != nil {
		return err
	}
	return st.save()
}

func (st *Store) set(key, value string) error {
	switch key {
	case "sound.path":
		st.s.Sound.Path = value
		return nil
	case "sound.volume":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil || v < 0 || v > 1 {
			return fmt.Errorf("%w: %s must be a number between 0 and 1, got %q", ErrInvalidValue, key, value)
		}
		st.s.Sound.Volume = v
		return nil
	case "auto_start":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be true or false, got %q", ErrInvalidValue, key, value)
		}
		st.s.AutoStarting.AutoStart = v
		return nil
	case "long_break_interval":
		v, err := strconv.Atoi(value)
		if err != nil || v < 1 {
			return fmt.Errorf("%w: %s must be a positive integer, got %q", ErrInvalidValue, key, value)
		}
		st.s.AutoStarting.LongBreakInterval = v
		return nil
	}

	t, field, err := st.timerKey(key)
	if err != nil {
		return err
	}
	if field == "name" {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%w: %s must not be empty", ErrInvalidValue, key)
		}
		t.Name = value
		return nil
	}
	v, err := strconv.Atoi(value)
	if err != nil || v < 0 {
		return fmt.Errorf("%w: %s must be a non-negative integer, got %q", ErrInvalidValue, key, value)
	}
	d := timer.Duration{Minutes: t.Minutes, Seconds: t.Seconds}
	if field == "minutes" {
		d.Minutes = v
	} else {
		d.Seconds = v
	}
	if err := d.Validate(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidValue, key, err)
	}
	t.Minutes, t.Seconds = d.Minutes, d.Seconds
	return nil
}

// timerKey resolves "timers.<id>.<field>" to the stored preset.
func (st *Store) timerKey(key string) (*TimerSetting, string, error) {
	parts := strings.Split(key, ".")
	if len(parts) != 3 || parts[0] != "timers" {
		return nil, "", fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	id, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil, "", fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	switch parts[2] {
	case "name", "minutes", "seconds":
	default:
		return nil, "", fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	for i := range st.s.Timers {
		if st.s.Timers[i].ID == id {
			return &st.s.Timers[i], parts[2], nil
		}
	}
	return nil, "", fmt.Errorf("%w: no timer with id %d", ErrUnknownKey, id)
}
