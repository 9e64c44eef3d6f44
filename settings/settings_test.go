package settings

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"FocusTimers/timer"
)

func TestLoadWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.toml")
	st, err := Load(path, timer.DefaultTimerConfigs)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("defaults were not written: %v", err)
	}

	want := Settings{
		Timers: []TimerSetting{
			{ID: 0, Name: "Pomodoro", Minutes: 25},
			{ID: 1, Name: "Short Break", Minutes: 5},
			{ID: 2, Name: "Long Break", Minutes: 10},
		},
		Sound:        SoundSettings{Volume: 0.5},
		AutoStarting: AutoStartingSettings{LongBreakInterval: 2},
	}
	if diff := cmp.Diff(want, st.Snapshot()); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(timer.DefaultTimerConfigs, st.Timers()); diff != "" {
		t.Errorf("Timers() mismatch (-want +got):\n%s", diff)
	}
}

func TestSetPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	st, err := Load(path, timer.DefaultTimerConfigs)
	if err != nil {
		t.Fatal(err)
	}

	sets := map[string]string{
		"timers.0.minutes":    "50",
		"timers.1.seconds":    "30",
		"timers.2.name":       "Walk",
		"sound.path":          "/tmp/bell.ogg",
		"sound.volume":        "0.25",
		"auto_start":          "true",
		"long_break_interval": "4",
	}
	for k, v := range sets {
		if err := st.Set(k, v); err != nil {
			t.Fatalf("Set(%q, %q) failed: %v", k, v, err)
		}
	}

	reloaded, err := Load(path, timer.DefaultTimerConfigs)
	if err != nil {
		t.Fatal(err)
	}
	for k, want := range sets {
		got, err := reloaded.Get(k)
		if err != nil {
			t.Fatalf("Get(%q) failed: %v", k, err)
		}
		if got != want {
			t.Errorf("Get(%q) = %q, want %q", k, got, want)
		}
	}
	if got := reloaded.Sound(); got != (SoundSettings{Path: "/tmp/bell.ogg", Volume: 0.25}) {
		t.Errorf("Sound() = %+v", got)
	}
	if got := reloaded.AutoStarting(); got != (AutoStartingSettings{AutoStart: true, LongBreakInterval: 4}) {
		t.Errorf("AutoStarting() = %+v", got)
	}
}

func TestSetRejects(t *testing.T) {
	st, err := Load(filepath.Join(t.TempDir(), "settings.toml"), timer.DefaultTimerConfigs)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		key, value string
		want       error
	}{
		{"sound.volume", "1.5", ErrInvalidValue},
		{"sound.volume", "loud", ErrInvalidValue},
		{"auto_start", "maybe", ErrInvalidValue},
		{"long_break_interval", "0", ErrInvalidValue},
		{"timers.0.minutes", "-1", ErrInvalidValue},
		{"timers.0.minutes", "200000000", ErrInvalidValue},
		{"timers.0.seconds", "9223372036854775807", ErrInvalidValue},
		{"timers.0.name", " ", ErrInvalidValue},
		{"timers.9.minutes", "5", ErrUnknownKey},
		{"timers.0.hours", "1", ErrUnknownKey},
		{"theme", "dark", ErrUnknownKey},
	}
	for _, tc := range tests {
		if err := st.Set(tc.key, tc.value); !errors.Is(err, tc.want) {
			t.Errorf("Set(%q, %q) error = %v, want %v", tc.key, tc.value, err, tc.want)
		}
	}
	if _, err := st.Get("nope"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("Get(nope) error = %v, want %v", err, ErrUnknownKey)
	}
}

func TestLoadFillsMissingSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	data := "[sound]\npath = \"alarm.wav\"\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	st, err := Load(path, timer.DefaultTimerConfigs)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if got := st.Sound(); got != (SoundSettings{Path: "alarm.wav", Volume: 0.5}) {
		t.Errorf("Sound() = %+v", got)
	}
	if got := st.AutoStarting().LongBreakInterval; got != 2 {
		t.Errorf("LongBreakInterval = %d, want 2", got)
	}
	if got := len(st.Timers()); got != 3 {
		t.Errorf("len(Timers()) = %d, want 3", got)
	}
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	if err := os.WriteFile(path, []byte("[sound\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path, nil); err == nil {
		t.Error("Load() of a malformed file succeeded")
	}
}

func TestLoadRejectsOverlongTimer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	data := "[[timers]]\nid = 0\nname = \"Pomodoro\"\nminutes = 200000000\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path, nil); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("Load() error = %v, want %v", err, ErrInvalidValue)
	}
}

func TestKeys(t *testing.T) {
	st, err := Load(filepath.Join(t.TempDir(), "settings.toml"), timer.DefaultTimerConfigs[:1])
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"auto_start",
		"long_break_interval",
		"sound.path",
		"sound.volume",
		"timers.0.minutes",
		"timers.0.name",
		"timers.0.seconds",
	}
	if diff := cmp.Diff(want, st.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}
}

func TestTimerLookup(t *testing.T) {
	st, err := Load(filepath.Join(t.TempDir(), "settings.toml"), timer.DefaultTimerConfigs)
	if err != nil {
		t.Fatal(err)
	}
	if err := st.Set("timers.1.minutes", "7"); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"1", "short break"} {
		got, ok := st.Timer(key)
		if !ok {
			t.Fatalf("Timer(%q) not found", key)
		}
		if got.Minutes != 7 || got.Name != "Short Break" {
			t.Errorf("Timer(%q) = %+v", key, got)
		}
	}
	if _, ok := st.Timer("nap"); ok {
		t.Error(`Timer("nap") found a preset`)
	}
}
