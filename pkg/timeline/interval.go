// Package timeline provides the half-open time interval arithmetic and the
// overlap-free plan collection that scheduling is built on.
package timeline

import (
	"fmt"
	"time"
)

// Interval is a half-open time range [Start, End).
// A valid Interval always satisfies Start <= End.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewInterval builds an Interval and enforces the Start <= End invariant.
func NewInterval(start, end time.Time) (Interval, error) {
	if end.Before(start) {
		return Interval{}, fmt.Errorf("interval end %s before start %s", end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return Interval{Start: start, End: end}, nil
}

// At returns the interval [start, start+d).
func At(start time.Time, d time.Duration) Interval {
	return Interval{Start: start, End: start.Add(d)}
}

// Intercepts reports whether the two half-open intervals overlap.
// Touching endpoints ([a,b) and [b,c)) do not overlap.
func (iv Interval) Intercepts(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// Contains reports whether other lies entirely within iv (endpoints included).
func (iv Interval) Contains(other Interval) bool {
	return !iv.Start.After(other.Start) && !iv.End.Before(other.End)
}

// ContainsTime reports whether t falls inside the half-open range.
func (iv Interval) ContainsTime(t time.Time) bool {
	return !t.Before(iv.Start) && t.Before(iv.End)
}

// Duration returns the interval length.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Hours returns the interval length in hours.
// float32 keeps the precision identical across all hour accounting.
func (iv Interval) Hours() float32 {
	return float32(iv.End.Sub(iv.Start).Hours())
}

// IsEmpty reports whether the half-open range covers no time at all.
func (iv Interval) IsEmpty() bool {
	return !iv.Start.Before(iv.End)
}

// MoveTo translates the interval to begin at start, preserving its length.
func (iv Interval) MoveTo(start time.Time) Interval {
	return Interval{Start: start, End: start.Add(iv.Duration())}
}

// WithDuration returns a copy of the interval with the same Start and the
// given length.
func (iv Interval) WithDuration(d time.Duration) Interval {
	return Interval{Start: iv.Start, End: iv.Start.Add(d)}
}

// String renders the interval for logs and error messages.
func (iv Interval) String() string {
	return fmt.Sprintf("[%s, %s)", iv.Start.Format(time.RFC3339), iv.End.Format(time.RFC3339))
}
