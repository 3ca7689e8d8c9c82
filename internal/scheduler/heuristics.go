package scheduler

import (
	"fmt"

	"github.com/me/taskplan/pkg/model"
	"github.com/me/taskplan/pkg/timeline"
)

// Heuristic scores a task at the schedule's current cursor time. Scores are
// non-negative; the combined score of a task is the product of all registered
// heuristics, so any single zero vetoes the task.
type Heuristic interface {
	// Name identifies the heuristic in configuration and logs.
	Name() string

	// Evaluate returns the task's score at s.CurrentTime(). Must not mutate s.
	Evaluate(s *Schedule, id model.TaskID) float32
}

// DependencyHeuristic gates a task on its dependencies: 1.0 when every
// dependency is either past its deadline or effectively finished (remaining
// volume within Epsilon), 0.0 otherwise.
type DependencyHeuristic struct{}

func (DependencyHeuristic) Name() string { return "dependency" }

func (DependencyHeuristic) Evaluate(s *Schedule, id model.TaskID) float32 {
	now := s.CurrentTime()
	for _, dep := range s.Task(id).DependsOn {
		if !s.Task(dep).Deadline.After(now) {
			continue
		}
		if s.RemainingHours(dep) <= Epsilon {
			continue
		}
		return 0.0
	}
	return 1.0
}

// PriorityHeuristic multiplies by the task's static priority weight. A
// priority of 2.0 doubles the combined score relative to 1.0; a priority of
// 0 removes the task from consideration entirely.
type PriorityHeuristic struct{}

func (PriorityHeuristic) Name() string { return "priority" }

func (PriorityHeuristic) Evaluate(s *Schedule, id model.TaskID) float32 {
	return s.Task(id).Priority
}

// DeadlineHeuristic scores inversely to the working hours left before the
// task's deadline: hours to the deadline minus the hours of plan entries
// intersecting that stretch. Unreachable or passed deadlines score 0.
type DeadlineHeuristic struct{}

func (DeadlineHeuristic) Name() string { return "deadline" }

func (DeadlineHeuristic) Evaluate(s *Schedule, id model.TaskID) float32 {
	now := s.CurrentTime()
	deadline := s.Task(id).Deadline
	if !deadline.After(now) {
		return 0.0
	}

	until := timeline.Interval{Start: now, End: deadline}
	workingHours := until.Hours() - s.BlockedHours(until)
	if workingHours <= 0 {
		return 0.0
	}
	return 1.0 / workingHours
}

// VolumeHeuristic returns the task's remaining work hours. Preferring larger
// remaining volumes is an intentional bias toward clearing big tasks first.
type VolumeHeuristic struct{}

func (VolumeHeuristic) Name() string { return "volume" }

func (VolumeHeuristic) Evaluate(s *Schedule, id model.TaskID) float32 {
	return s.RemainingHours(id)
}

// LocalityHeuristic favors the task that was worked on most recently (2.0
// versus 1.0), reducing task-switching fragmentation.
type LocalityHeuristic struct{}

func (LocalityHeuristic) Name() string { return "locality" }

func (LocalityHeuristic) Evaluate(s *Schedule, id model.TaskID) float32 {
	if last, ok := s.LastTask(); ok && last == id {
		return 2.0
	}
	return 1.0
}

// DefaultHeuristics returns the full registry in its default order.
func DefaultHeuristics() []Heuristic {
	return []Heuristic{
		DependencyHeuristic{},
		VolumeHeuristic{},
		DeadlineHeuristic{},
		PriorityHeuristic{},
		LocalityHeuristic{},
	}
}

// HeuristicByName resolves a configuration name to its heuristic.
func HeuristicByName(name string) (Heuristic, error) {
	for _, h := range DefaultHeuristics() {
		if h.Name() == name {
			return h, nil
		}
	}
	return nil, fmt.Errorf("unknown heuristic %q", name)
}
