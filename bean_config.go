package dihelper

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// TimeUnit is the unit in which RunConfig delays and periods are expressed.
type TimeUnit int

const (
	Nanoseconds TimeUnit = iota
	Microseconds
	Milliseconds
	Seconds
	Minutes
	Hours
	Days
)

var timeUnitNames = map[TimeUnit]string{
	Nanoseconds:  "nanoseconds",
	Microseconds: "microseconds",
	Milliseconds: "milliseconds",
	Seconds:      "seconds",
	Minutes:      "minutes",
	Hours:        "hours",
	Days:         "days",
}

var timeUnitDurations = map[TimeUnit]time.Duration{
	Nanoseconds:  time.Nanosecond,
	Microseconds: time.Microsecond,
	Milliseconds: time.Millisecond,
	Seconds:      time.Second,
	Minutes:      time.Minute,
	Hours:        time.Hour,
	Days:         24 * time.Hour,
}

func (u TimeUnit) String() string {
	if name, ok := timeUnitNames[u]; ok {
		return name
	}
	return fmt.Sprintf("TimeUnit(%d)", int(u))
}

// Valid reports whether u is one of the declared units.
func (u TimeUnit) Valid() bool {
	_, ok := timeUnitDurations[u]
	return ok
}

// Duration converts n units into a time.Duration.
func (u TimeUnit) Duration(n int64) time.Duration {
	return time.Duration(n) * timeUnitDurations[u]
}

// ParseTimeUnit accepts the long names ("seconds"), their singular form and
// the short forms used by time.ParseDuration ("ns", "us", "ms", "s", "m", "h", "d").
func ParseTimeUnit(s string) (TimeUnit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "nanoseconds", "nanosecond", "ns":
		return Nanoseconds, nil
	case "microseconds", "microsecond", "us", "µs":
		return Microseconds, nil
	case "milliseconds", "millisecond", "ms":
		return Milliseconds, nil
	case "seconds", "second", "s", "":
		return Seconds, nil
	case "minutes", "minute", "m":
		return Minutes, nil
	case "hours", "hour", "h":
		return Hours, nil
	case "days", "day", "d":
		return Days, nil
	}
	return Seconds, fmt.Errorf("%w: %q", ErrInvalidTimeUnit, s)
}

// MarshalText implements encoding.TextMarshaler.
func (u TimeUnit) MarshalText() ([]byte, error) {
	if !u.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTimeUnit, int(u))
	}
	return []byte(u.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler so config files and
// environment variables can carry unit names.
func (u *TimeUnit) UnmarshalText(text []byte) error {
	parsed, err := ParseTimeUnit(string(text))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// InitConfig controls participation and ordering in the init phase.
type InitConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled" toml:"enabled"`
	Order   int  `json:"order" yaml:"order" toml:"order"`
}

// RunConfig controls participation and scheduling in the run phase.
// A zero RepetitionPeriod runs the action once after Delay; a positive one
// repeats it every period after the initial delay.
type RunConfig struct {
	Enabled          bool     `json:"enabled" yaml:"enabled" toml:"enabled"`
	Delay            int64    `json:"delay" yaml:"delay" toml:"delay"`
	RepetitionPeriod int64    `json:"repetitionPeriod" yaml:"repetitionPeriod" toml:"repetition_period"`
	TimeUnit         TimeUnit `json:"timeUnit" yaml:"timeUnit" toml:"time_unit"`
}

// CloseConfig controls participation and ordering in the close phase.
type CloseConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled" toml:"enabled"`
	Order   int  `json:"order" yaml:"order" toml:"order"`
}

// DefaultInitConfig returns an enabled config with order 0.
func DefaultInitConfig() InitConfig {
	return InitConfig{Enabled: true}
}

// DefaultRunConfig returns an enabled one-shot config with no delay, in seconds.
func DefaultRunConfig() RunConfig {
	return RunConfig{Enabled: true, TimeUnit: Seconds}
}

// DefaultCloseConfig returns an enabled config with order 0.
func DefaultCloseConfig() CloseConfig {
	return CloseConfig{Enabled: true}
}

// InitialDelay is Delay expressed as a duration.
func (c RunConfig) InitialDelay() time.Duration {
	return c.TimeUnit.Duration(c.Delay)
}

// Period is RepetitionPeriod expressed as a duration.
func (c RunConfig) Period() time.Duration {
	return c.TimeUnit.Duration(c.RepetitionPeriod)
}

// Recurring reports whether the action repeats after its first run.
func (c RunConfig) Recurring() bool {
	return c.RepetitionPeriod > 0
}

// Validate rejects negative schedules, unknown units and values that do not
// fit in a time.Duration.
func (c RunConfig) Validate() error {
	if c.Delay < 0 || c.RepetitionPeriod < 0 {
		return ErrNegativeSchedule
	}
	if !c.TimeUnit.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidTimeUnit, int(c.TimeUnit))
	}
	limit := math.MaxInt64 / int64(timeUnitDurations[c.TimeUnit])
	if c.Delay > limit || c.RepetitionPeriod > limit {
		return fmt.Errorf("%w: at most %d %s", ErrScheduleOverflow, limit, c.TimeUnit)
	}
	return nil
}
