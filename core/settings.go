package core

import (
	"fmt"
	"time"
)

// Settings contains all configurable properties of a ping session.
type Settings struct {
	// TTL is the IP Time to Live set on outgoing probes.
	TTL int

	// MaxCount is the max amount of echo requests sent before exiting.
	// Zero or negative means unlimited.
	MaxCount int

	// Interval is the interval in seconds between two echo requests.
	Interval float64

	// Deadline is the time in seconds before the session exits regardless
	// of how many probes have been sent or received. Zero or negative
	// disables it.
	Deadline int

	// LoggingLevel is the logrus level used for diagnostic logging.
	LoggingLevel uint32
}

// DefaultSettings returns the default settings for a ping session.
func DefaultSettings() *Settings {
	return &Settings{
		TTL:          64,
		MaxCount:     -1,
		Interval:     1,
		Deadline:     -1,
		LoggingLevel: 3, // logrus warn
	}
}

// validate checks that the settings can support a session.
func (s *Settings) validate() error {
	if s.TTL <= 0 || s.TTL > 255 {
		return fmt.Errorf("ttl must be between 1 and 255, got %d", s.TTL)
	}

	if s.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %f", s.Interval)
	}

	if s.Interval > float64(time.Hour/time.Second) {
		return fmt.Errorf("interval must be at most an hour, got %f", s.Interval)
	}

	return nil
}

// interval returns the interval setting as a duration.
func (s *Settings) interval() time.Duration {
	return time.Duration(float64(time.Second) * s.Interval)
}

// deadline returns the deadline setting as a duration.
func (s *Settings) deadline() time.Duration {
	return time.Second * time.Duration(s.Deadline)
}

// isDeadlineActive returns whether the deadline setting is active.
func (s *Settings) isDeadlineActive() bool {
	return s.Deadline > 0
}

// isMaxCountActive returns whether the probe count limit is active.
func (s *Settings) isMaxCountActive() bool {
	return s.MaxCount > 0
}
