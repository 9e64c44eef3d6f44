package timer

import (
	"fmt"
	"time"
)

// TimeParts is a whole-minute, whole-second view of a duration, as handed to
// second-tick callbacks.
type TimeParts struct {
	Minutes int
	Seconds int
}

// PartsOf splits d into minutes and seconds, dropping the sub-second part.
// Negative durations yield zero parts.
func PartsOf(d time.Duration) TimeParts {
	if d < 0 {
		return TimeParts{}
	}
	sec := int(d / time.Second)
	return TimeParts{Minutes: sec / 60, Seconds: sec % 60}
}

// Total returns the duration the parts represent.
func (p TimeParts) Total() time.Duration {
	return time.Duration(p.Minutes)*time.Minute + time.Duration(p.Seconds)*time.Second
}

// FormatTime renders parts in mm:ss format.
func FormatTime(p TimeParts) string {
	return fmt.Sprintf("%02d:%02d", p.Minutes, p.Seconds)
}

// ceilSecond rounds d up to the next whole second.
func ceilSecond(d time.Duration) time.Duration {
	if r := d % time.Second; r > 0 {
		return d - r + time.Second
	}
	return d - d%time.Second
}
