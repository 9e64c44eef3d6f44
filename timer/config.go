package timer

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AppContentReader defines the interface for reading content from the embedded file system.
type AppContentReader interface {
	ReadFile(name string) ([]byte, error)
}

// TimerIndex is the position of each built-in preset. The first preset is
// always the pomodoro, then the short break, then the long break.
type TimerIndex int

const (
	TimerIndexPomodoro TimerIndex = iota
	TimerIndexShortBreak
	TimerIndexLongBreak
)

// TimerConfig holds the static configuration for a preset.
type TimerConfig struct {
	ID      int
	Name    string
	Minutes int
	Seconds int
}

// Duration returns the preset length.
func (c TimerConfig) Duration() Duration {
	return Duration{Minutes: c.Minutes, Seconds: c.Seconds}
}

// DefaultTimerConfigs are used when no preset file is available.
var DefaultTimerConfigs = []TimerConfig{
	{ID: int(TimerIndexPomodoro), Name: "Pomodoro", Minutes: 25},
	{ID: int(TimerIndexShortBreak), Name: "Short Break", Minutes: 5},
	{ID: int(TimerIndexLongBreak), Name: "Long Break", Minutes: 10},
}

// TimerConfigsFile is the preset file path inside the embedded assets.
const TimerConfigsFile = "assets/timers_config.json"

// LoadTimerConfigs loads preset configurations from the JSON preset file.
func LoadTimerConfigs(reader AppContentReader) ([]TimerConfig, error) {
	data, err := reader.ReadFile(TimerConfigsFile)
	if err != nil {
		return nil, fmt.Errorf("read timer configs: %w", err)
	}

	var configs []TimerConfig
	if err := json.Unmarshal(data, &configs); err != nil {
		return nil, fmt.Errorf("unmarshal timer configs: %w", err)
	}
	for _, c := range configs {
		if err := c.Duration().Validate(); err != nil {
			return nil, fmt.Errorf("timer config %q: %w", c.Name, err)
		}
	}
	return configs, nil
}

// FindTimerConfig looks a preset up by case-insensitive name or by numeric id.
func FindTimerConfig(configs []TimerConfig, key string) (TimerConfig, bool) {
	for _, c := range configs {
		if strings.EqualFold(c.Name, key) || fmt.Sprint(c.ID) == key {
			return c, true
		}
	}
	return TimerConfig{}, false
}
