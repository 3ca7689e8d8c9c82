package scheduler

import (
	"time"

	"github.com/me/taskplan/pkg/model"
	"github.com/me/taskplan/pkg/timeline"
)

// Allocator carves the next feasible work interval for a task out of the
// remaining free time. Allocations are at most Granularity long, never
// intersect a plan entry, never exceed the task's remaining volume, and
// never extend past the scheduling window.
type Allocator struct {
	Granularity time.Duration
}

// Allocate computes the interval for the given task starting at the
// schedule's cursor. Callers are expected not to pick tasks with no remaining
// volume (their heuristic score is zero), but a zero or negative remainder
// still yields a valid empty interval rather than a negative-length one.
func (a Allocator) Allocate(s *Schedule, id model.TaskID) timeline.Interval {
	candidate := timeline.At(s.CurrentTime(), a.Granularity)

	remaining := s.RemainingHours(id)
	if remaining < 0 {
		remaining = 0
	}
	if remaining <= float32(a.Granularity.Hours()) {
		// Truncate to whole seconds so accumulated commits never
		// overshoot the volume.
		span := time.Duration(int64(remaining*3600)) * time.Second
		candidate = candidate.WithDuration(span)
	}

	end := s.Window().End
	if candidate.End.After(end) {
		candidate.End = end
	}

	// Plan entries are disjoint and sorted by start, so one left-to-right
	// pass suffices: a candidate starting at or inside a block jumps past
	// it (keeping its length), later blocks then truncate it from the right.
	for _, e := range s.Plans().Entries() {
		if !candidate.Intercepts(e.Interval) {
			continue
		}
		if !candidate.Start.Before(e.Start) {
			candidate = candidate.MoveTo(e.End)
		} else {
			candidate.End = e.Start
		}
	}

	// Jumping past a block can overrun the window again.
	if candidate.End.After(end) {
		candidate.End = end
	}
	if candidate.Start.After(candidate.End) {
		candidate.Start = candidate.End
	}

	return candidate
}
