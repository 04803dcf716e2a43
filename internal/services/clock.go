package services

import "time"

// Clock abstracts the wall clock so hold expiry and payment periods can be
// driven deterministically in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reads time.Now in UTC.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now calls f.
func (f ClockFunc) Now() time.Time { return f() }

// ExpiresAt returns the expiry of something created at now that lives for ttl.
func ExpiresAt(now time.Time, ttl time.Duration) time.Time { return now.Add(ttl) }

func clockOrSystem(c Clock) Clock {
	if c == nil {
		return SystemClock{}
	}
	return c
}
