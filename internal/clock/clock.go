// Package clock provides the integer-second time primitives the matching
// engine is built on: Timestamp and Duration. Everything downstream of this
// package treats time as a closed, totally ordered integer domain so that
// matcher transitions stay deterministic given their inputs.
package clock

import "time"

// Timestamp is an integer count of seconds since the Unix epoch.
type Timestamp int64

// Duration is a signed number of seconds.
type Duration int64

// Seconds builds a Duration from a plain integer second count.
func Seconds(s int64) Duration { return Duration(s) }

// Now returns the current wall-clock time truncated to whole seconds. Only
// the scheduler driver and adapter boundary call this; the matcher always
// receives ts as an explicit parameter.
func Now() Timestamp { return Timestamp(time.Now().Unix()) }

// FromTime converts a time.Time to a Timestamp, truncating to the second.
func FromTime(t time.Time) Timestamp { return Timestamp(t.Unix()) }

// Time converts a Timestamp back to a time.Time in UTC.
func (t Timestamp) Time() time.Time { return time.Unix(int64(t), 0).UTC() }

// Add returns t shifted by d.
func (t Timestamp) Add(d Duration) Timestamp { return Timestamp(int64(t) + int64(d)) }

// Sub returns the signed duration from other to t (t - other).
func (t Timestamp) Sub(other Timestamp) Duration { return Duration(int64(t) - int64(other)) }

// Before reports whether t is strictly earlier than other.
func (t Timestamp) Before(other Timestamp) bool { return t < other }

// After reports whether t is strictly later than other.
func (t Timestamp) After(other Timestamp) bool { return t > other }

// Compare returns -1, 0, or 1 as t is before, equal to, or after other.
func (t Timestamp) Compare(other Timestamp) int {
	switch {
	case t < other:
		return -1
	case t > other:
		return 1
	default:
		return 0
	}
}

// Plus returns the sum of two durations.
func (d Duration) Plus(other Duration) Duration { return d + other }

// Neg returns the negation of d.
func (d Duration) Neg() Duration { return -d }

// Less reports whether d is strictly shorter than other.
func (d Duration) Less(other Duration) bool { return d < other }

// Min returns the earlier of two timestamps.
func Min(a, b Timestamp) Timestamp {
	if a < b {
		return a
	}
	return b
}

// Max returns the later of two timestamps.
func Max(a, b Timestamp) Timestamp {
	if a > b {
		return a
	}
	return b
}
