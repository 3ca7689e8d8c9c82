package scheduler

import (
	"context"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/me/taskplan/pkg/model"
	"github.com/me/taskplan/pkg/timeline"
)

var windowStart = time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)

func at(h float64) time.Time {
	return windowStart.Add(time.Duration(h * float64(time.Hour)))
}

func span(startHour, hours float64) timeline.Interval {
	return timeline.Interval{Start: at(startHour), End: at(startHour + hours)}
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testTasks is the shared six-task scenario: a dependency chain, a
// high-priority task, an empty task, and a zero-priority task.
func testTasks() []model.Task {
	return []model.Task{
		{Description: "Task 0", Deadline: at(12), Priority: 1, Volume: 2, DependsOn: []int{4}},
		{Description: "Task 1", Deadline: at(17), Priority: 1, Volume: 1, DependsOn: []int{0}},
		{Description: "Task 2", Deadline: at(13), Priority: 2, Volume: 3},
		{Description: "Task 3", Deadline: at(18), Priority: 1, Volume: 3, DependsOn: []int{2}},
		{Description: "Empty task", Deadline: at(19), Priority: 1, Volume: 0},
		{Description: "Zero priority task", Deadline: at(19), Priority: 0, Volume: 0.5},
	}
}

// testPlans blocks [00:00,09:00), [13:00,15:00) and [22:00,24:00).
func testPlans() *timeline.PlanSet {
	ps := timeline.NewPlanSet()
	ps.Insert(span(0, 9), "sleep")
	ps.Insert(span(13, 2), "lunch")
	ps.Insert(span(22, 2), "wind down")
	return ps
}

func newTestDriver(t *testing.T, heuristics []Heuristic) *Driver {
	t.Helper()
	drv, err := NewDriver(Config{
		Window:      span(0, 24),
		Granularity: time.Hour,
	}, testTasks(), testPlans(), heuristics, discard())
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	return drv
}

func TestDriver_FirstDecisions(t *testing.T) {
	drv := newTestDriver(t, []Heuristic{
		DependencyHeuristic{}, VolumeHeuristic{}, DeadlineHeuristic{}, PriorityHeuristic{},
	})

	want := []Decision{
		{Task: 2, Interval: span(9, 1)},
		{Task: 2, Interval: span(10, 1)},
		{Task: 0, Interval: span(11, 1)},
		{Task: 2, Interval: span(12, 1)},
	}
	for i, w := range want {
		got, ok := drv.Step()
		if !ok {
			t.Fatalf("step %d: driver terminated early", i)
		}
		if got.Task != w.Task || !got.Interval.Start.Equal(w.Interval.Start) || !got.Interval.End.Equal(w.Interval.End) {
			t.Errorf("step %d: got task %d %s, want task %d %s", i, got.Task, got.Interval, w.Task, w.Interval)
		}
	}
}

func TestDriver_FullRun(t *testing.T) {
	drv := newTestDriver(t, []Heuristic{
		DependencyHeuristic{}, VolumeHeuristic{}, PriorityHeuristic{}, DeadlineHeuristic{},
	})
	if err := drv.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	s := drv.Schedule()
	want := map[model.TaskID][]timeline.Interval{
		0: {span(11, 1)},
		1: {span(16, 1)},
		2: {span(9, 2), span(12, 1)}, // contiguous 09-10 and 10-11 merged
		3: {span(15, 1), span(17, 1)},
	}
	for id := range testTasks() {
		got := s.Committed(id)
		if len(want[id]) == 0 {
			if len(got) != 0 {
				t.Errorf("task %d: got %v, want nothing committed", id, got)
			}
			continue
		}
		if !reflect.DeepEqual(got, want[id]) {
			t.Errorf("task %d: committed %v, want %v", id, got, want[id])
		}
	}
}

func TestDriver_MissedDeadlines(t *testing.T) {
	drv := newTestDriver(t, []Heuristic{
		DependencyHeuristic{}, VolumeHeuristic{}, PriorityHeuristic{}, DeadlineHeuristic{},
	})
	if err := drv.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	missed := drv.MissedDeadlines()
	if len(missed) != 3 {
		t.Fatalf("got %d missed, want 3: %+v", len(missed), missed)
	}
	wantShortfall := map[model.TaskID]float32{0: 1, 3: 1, 5: 0.5}
	for _, m := range missed {
		want, ok := wantShortfall[m.Task]
		if !ok {
			t.Errorf("unexpected missed task %d (%s)", m.Task, m.Description)
			continue
		}
		if diff := m.ShortfallHours - want; diff > Epsilon || diff < -Epsilon {
			t.Errorf("task %d shortfall = %v, want %v", m.Task, m.ShortfallHours, want)
		}
	}
}

// TestDriver_StepMatchesRun verifies the one-decision-at-a-time usage
// produces the same schedule as draining.
func TestDriver_StepMatchesRun(t *testing.T) {
	hs := []Heuristic{DependencyHeuristic{}, VolumeHeuristic{}, DeadlineHeuristic{}, PriorityHeuristic{}, LocalityHeuristic{}}

	drained := newTestDriver(t, hs)
	if err := drained.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	stepped := newTestDriver(t, hs)
	for {
		if _, ok := stepped.Step(); !ok {
			break
		}
	}

	for id := range testTasks() {
		a := drained.Schedule().Committed(id)
		b := stepped.Schedule().Committed(id)
		if !reflect.DeepEqual(a, b) {
			t.Errorf("task %d: drained %v != stepped %v", id, a, b)
		}
	}
}

// TestDriver_Invariants checks the run-wide guarantees: committed intervals
// avoid every plan entry, stay inside the window, and never overshoot the
// task volume.
func TestDriver_Invariants(t *testing.T) {
	drv := newTestDriver(t, nil) // full default registry
	if err := drv.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	s := drv.Schedule()
	window := s.Window()
	for id, task := range s.Tasks() {
		if committed := s.CommittedHours(id); committed > task.Volume+Epsilon {
			t.Errorf("task %d: committed %v hours exceeds volume %v", id, committed, task.Volume)
		}
		for _, iv := range s.Committed(id) {
			if !window.Contains(iv) {
				t.Errorf("task %d: interval %s escapes window %s", id, iv, window)
			}
			for _, e := range s.Plans().Entries() {
				if iv.Intercepts(e.Interval) {
					t.Errorf("task %d: interval %s intersects plan %s", id, iv, e.Interval)
				}
			}
		}
	}
}

func TestDriver_ContextCancellation(t *testing.T) {
	drv := newTestDriver(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := drv.Run(ctx); err == nil {
		t.Error("Run with cancelled context should return the context error")
	}
}

// TestDriver_NoProgressTerminates covers the safeguard for a heuristic set
// that keeps selecting a task the allocator cannot place: without the volume
// heuristic a zero-volume task scores 1.0 forever, and its allocation is an
// empty interval that cannot advance the cursor.
func TestDriver_NoProgressTerminates(t *testing.T) {
	tasks := []model.Task{{Description: "done already", Deadline: at(23), Priority: 1, Volume: 0}}
	drv, err := NewDriver(Config{Window: span(0, 24), Granularity: time.Hour},
		tasks, timeline.NewPlanSet(), []Heuristic{PriorityHeuristic{}}, discard())
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}

	steps := 0
	for {
		if _, ok := drv.Step(); !ok {
			break
		}
		if steps++; steps > 100 {
			t.Fatal("driver failed to terminate")
		}
	}
	if steps != 0 {
		t.Errorf("got %d decisions for a volume-less task, want 0", steps)
	}
}

func TestNewDriver_RejectsDegenerateConfigs(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		tasks   []model.Task
		wantErr string
	}{
		{"zero granularity", Config{Window: span(0, 24)}, testTasks(), "granularity"},
		{"negative granularity", Config{Window: span(0, 24), Granularity: -time.Hour}, testTasks(), "granularity"},
		{"empty window", Config{Window: span(3, 0), Granularity: time.Hour}, testTasks(), "window"},
		{"inverted window", Config{Window: timeline.Interval{Start: at(5), End: at(1)}, Granularity: time.Hour}, testTasks(), "window"},
		{"dependency out of range", Config{Window: span(0, 24), Granularity: time.Hour},
			[]model.Task{{Description: "t", Priority: 1, Volume: 1, DependsOn: []int{7}}}, "out of range"},
		{"dependency cycle", Config{Window: span(0, 24), Granularity: time.Hour},
			[]model.Task{
				{Description: "a", Priority: 1, Volume: 1, DependsOn: []int{1}},
				{Description: "b", Priority: 1, Volume: 1, DependsOn: []int{0}},
			}, "cycle"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDriver(tt.cfg, tt.tasks, testPlans(), nil, discard())
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("NewDriver error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestSchedule_CommitMergesContiguous(t *testing.T) {
	s := NewSchedule(testTasks(), testPlans(), span(0, 24))

	s.commit(2, span(9, 1))
	s.commit(2, span(10, 1)) // contiguous: extends
	s.commit(2, span(12, 1)) // gap: appends

	got := s.Committed(2)
	want := []timeline.Interval{span(9, 2), span(12, 1)}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Committed = %v, want %v", got, want)
	}
	if hours := s.CommittedHours(2); hours != 3 {
		t.Errorf("CommittedHours = %v, want 3", hours)
	}
	if remaining := s.RemainingHours(2); remaining != 0 {
		t.Errorf("RemainingHours = %v, want 0", remaining)
	}
}

func TestSchedule_LastTask(t *testing.T) {
	s := NewSchedule(testTasks(), testPlans(), span(0, 24))
	if _, ok := s.LastTask(); ok {
		t.Error("LastTask on empty schedule should report false")
	}

	s.commit(1, span(9, 1))
	s.commit(3, span(10, 1))
	s.commit(1, span(11, 1))

	last, ok := s.LastTask()
	if !ok || last != 1 {
		t.Errorf("LastTask = %d, %v; want 1, true", last, ok)
	}
}
