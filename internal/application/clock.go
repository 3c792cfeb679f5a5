package application

import "time"

// Clock interface supaya gampang ditest
type Clock interface {
	Now() time.Time
}

// SystemClock implementasi default, pakai time.Now()
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ClockFunc adapts a plain function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// StoreTime is c.Now() in UTC, truncated to the microsecond precision that
// every record store round-trips.
func StoreTime(c Clock) time.Time {
	if c == nil {
		c = SystemClock{}
	}
	return c.Now().UTC().Truncate(time.Microsecond)
}
