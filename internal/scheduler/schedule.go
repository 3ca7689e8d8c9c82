// Package scheduler implements the greedy calendar-aware scheduling core:
// heuristic task selection, interval allocation around plan blocks, and the
// monotonic-cursor driver that commits work intervals until the window closes
// or no task can make progress.
package scheduler

import (
	"time"

	"github.com/me/taskplan/pkg/model"
	"github.com/me/taskplan/pkg/timeline"
)

// Epsilon is the tolerance for float32 hour accounting. Remaining volumes at
// or below it count as finished.
const Epsilon float32 = 1e-6

// Schedule holds the mutable state of one scheduling run: the committed
// intervals per task and the cursor. Tasks and plans are read-only for the
// duration of the run.
type Schedule struct {
	tasks  []model.Task
	plans  *timeline.PlanSet
	window timeline.Interval

	committed [][]timeline.Interval
	current   time.Time
}

// NewSchedule creates an empty schedule state with the cursor at the window
// start.
func NewSchedule(tasks []model.Task, plans *timeline.PlanSet, window timeline.Interval) *Schedule {
	return &Schedule{
		tasks:     tasks,
		plans:     plans,
		window:    window,
		committed: make([][]timeline.Interval, len(tasks)),
		current:   window.Start,
	}
}

// Tasks returns the task list the schedule was built from.
func (s *Schedule) Tasks() []model.Task {
	return s.tasks
}

// Task returns the task with the given id.
func (s *Schedule) Task(id model.TaskID) model.Task {
	return s.tasks[id]
}

// Plans returns the blocked calendar intervals.
func (s *Schedule) Plans() *timeline.PlanSet {
	return s.plans
}

// Window returns the global scheduling window.
func (s *Schedule) Window() timeline.Interval {
	return s.window
}

// CurrentTime returns the scheduling cursor. It never decreases.
func (s *Schedule) CurrentTime() time.Time {
	return s.current
}

// Committed returns the intervals committed to a task so far, in commit order.
func (s *Schedule) Committed(id model.TaskID) []timeline.Interval {
	out := make([]timeline.Interval, len(s.committed[id]))
	copy(out, s.committed[id])
	return out
}

// CommittedHours sums the hours committed to a task so far.
func (s *Schedule) CommittedHours(id model.TaskID) float32 {
	var total float32
	for _, iv := range s.committed[id] {
		total += iv.Hours()
	}
	return total
}

// RemainingHours returns the task's volume minus its committed hours.
func (s *Schedule) RemainingHours(id model.TaskID) float32 {
	return s.tasks[id].Volume - s.CommittedHours(id)
}

// BlockedHours sums the hours of plan entries intersecting window. Entries
// are counted whole, matching the deadline heuristic's accounting.
func (s *Schedule) BlockedHours(window timeline.Interval) float32 {
	return s.plans.BlockedHours(window)
}

// LastTask returns the task owning the most recently ending committed
// interval, or false if nothing has been committed yet.
func (s *Schedule) LastTask() (model.TaskID, bool) {
	var (
		best    model.TaskID
		bestEnd time.Time
		found   bool
	)
	for id, intervals := range s.committed {
		for _, iv := range intervals {
			if !found || iv.End.After(bestEnd) {
				best, bestEnd, found = id, iv.End, true
			}
		}
	}
	return best, found
}

// commit appends an interval to a task. When the task's most recent interval
// ends exactly at the new interval's start, that interval is extended instead
// so contiguous allocations do not fragment the schedule.
func (s *Schedule) commit(id model.TaskID, iv timeline.Interval) {
	intervals := s.committed[id]
	if n := len(intervals); n > 0 && intervals[n-1].End.Equal(iv.Start) {
		intervals[n-1].End = iv.End
		return
	}
	s.committed[id] = append(intervals, iv)
}

// advance moves the cursor forward. The cursor is monotonic; earlier times
// are ignored.
func (s *Schedule) advance(t time.Time) {
	if t.After(s.current) {
		s.current = t
	}
}
