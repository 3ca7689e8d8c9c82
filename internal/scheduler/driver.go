package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/me/taskplan/pkg/model"
	"github.com/me/taskplan/pkg/timeline"
)

// Config holds the parameters of one scheduling run.
type Config struct {
	// Window bounds the entire run.
	Window timeline.Interval

	// Granularity is the maximum contiguous duration allocated to one task
	// per step. Must be > 0.
	Granularity time.Duration
}

// Decision is one committed scheduling step: a task and the interval it was
// assigned.
type Decision struct {
	Task     model.TaskID      `json:"task"`
	Interval timeline.Interval `json:"interval"`
}

// Missed reports a task whose volume was not fully scheduled before the run
// ended. This is a normal outcome, not an error.
type Missed struct {
	Task           model.TaskID `json:"task"`
	Description    string       `json:"description"`
	ShortfallHours float32      `json:"shortfall_hours"`
}

// Driver runs the greedy scheduling loop: score every task with the
// registered heuristics, pick the strict maximum (ties broken by lowest task
// id), allocate an interval, commit it, and advance the cursor.
type Driver struct {
	cfg        Config
	sched      *Schedule
	alloc      Allocator
	heuristics []Heuristic
	logger     *slog.Logger
	done       bool
}

// NewDriver validates the configuration and task list and returns a driver
// ready to run. Degenerate configurations (non-positive granularity, empty or
// inverted window) and invalid task lists (bad dependency indices, cycles)
// are rejected here so the loop cannot fail to terminate.
func NewDriver(cfg Config, tasks []model.Task, plans *timeline.PlanSet, heuristics []Heuristic, logger *slog.Logger) (*Driver, error) {
	if cfg.Granularity <= 0 {
		return nil, fmt.Errorf("granularity must be > 0, got %s", cfg.Granularity)
	}
	if !cfg.Window.Start.Before(cfg.Window.End) {
		return nil, fmt.Errorf("scheduling window %s is empty", cfg.Window)
	}
	if err := model.ValidateTasks(tasks); err != nil {
		return nil, err
	}
	if len(heuristics) == 0 {
		heuristics = DefaultHeuristics()
	}
	if plans == nil {
		plans = timeline.NewPlanSet()
	}
	return &Driver{
		cfg:        cfg,
		sched:      NewSchedule(tasks, plans, cfg.Window),
		alloc:      Allocator{Granularity: cfg.Granularity},
		heuristics: heuristics,
		logger:     logger.With("component", "scheduler"),
	}, nil
}

// Schedule exposes the run's state: committed intervals, cursor, tasks and
// plans. Read-only for callers.
func (d *Driver) Schedule() *Schedule {
	return d.sched
}

// Step executes a single scheduling decision and commits it. It returns
// false once the run has terminated: the cursor reached the window end, every
// task's combined score is zero, or a step could not advance the cursor.
// Interleaving Step with other bookkeeping yields the same decisions as Run.
func (d *Driver) Step() (Decision, bool) {
	if d.done {
		return Decision{}, false
	}

	s := d.sched
	if !s.CurrentTime().Before(d.cfg.Window.End) {
		d.logger.Debug("window closed", "cursor", s.CurrentTime())
		d.done = true
		return Decision{}, false
	}

	scores := make([]float32, len(s.Tasks()))
	for id := range scores {
		scores[id] = 1.0
	}
	for _, h := range d.heuristics {
		for id := range scores {
			scores[id] *= h.Evaluate(s, id)
		}
	}

	var sum float32
	for _, sc := range scores {
		sum += sc
	}
	if sum == 0.0 {
		d.logger.Debug("no task can progress", "cursor", s.CurrentTime())
		d.done = true
		return Decision{}, false
	}

	// Strict maximum; the first scan hit wins so ties go to the lowest id.
	best := model.TaskID(0)
	for id, sc := range scores {
		if sc > scores[best] {
			best = id
		}
	}

	iv := d.alloc.Allocate(s, best)
	if !iv.End.After(s.CurrentTime()) {
		// The allocation cannot move the cursor: stop rather than loop.
		d.logger.Warn("allocation made no progress, terminating",
			"task", best, "cursor", s.CurrentTime())
		d.done = true
		return Decision{}, false
	}

	if !iv.IsEmpty() {
		s.commit(best, iv)
	}
	s.advance(iv.End)

	d.logger.Debug("scheduled",
		"task", best,
		"description", s.Task(best).Description,
		"interval", iv.String(),
		"score", scores[best])

	return Decision{Task: best, Interval: iv}, true
}

// Run drains the scheduler, committing decisions until it terminates or ctx
// is cancelled. No step blocks; cancellation simply stops between steps.
func (d *Driver) Run(ctx context.Context) error {
	steps := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, ok := d.Step(); !ok {
			break
		}
		steps++
	}
	d.logger.Info("run finished",
		"steps", steps,
		"cursor", d.sched.CurrentTime(),
		"missed", len(d.MissedDeadlines()))
	return nil
}

// MissedDeadlines lists every task whose remaining volume exceeds Epsilon,
// with the shortfall in hours.
func (d *Driver) MissedDeadlines() []Missed {
	var out []Missed
	for id, t := range d.sched.Tasks() {
		remaining := d.sched.RemainingHours(id)
		if remaining > Epsilon {
			out = append(out, Missed{
				Task:           id,
				Description:    t.Description,
				ShortfallHours: remaining,
			})
		}
	}
	return out
}
