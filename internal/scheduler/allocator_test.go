package scheduler

import (
	"testing"
	"time"

	"github.com/me/taskplan/pkg/model"
	"github.com/me/taskplan/pkg/timeline"
)

// allocatorSchedule builds a single-task schedule over a 24h window with
// blocks at [00:00,02:00), [02:50,03:10) and [04:00,05:00).
func allocatorSchedule(t *testing.T, volume float32) *Schedule {
	t.Helper()
	ps := timeline.NewPlanSet()
	ps.Insert(span(0, 2), "block a")
	ps.Insert(timeline.Interval{Start: at(2).Add(50 * time.Minute), End: at(3).Add(10 * time.Minute)}, "block b")
	ps.Insert(span(4, 1), "block c")

	tasks := []model.Task{{Description: "work", Deadline: at(23), Priority: 1, Volume: volume}}
	return NewSchedule(tasks, ps, span(0, 24))
}

func TestAllocator_Allocate(t *testing.T) {
	alloc := Allocator{Granularity: time.Hour}

	tests := []struct {
		name   string
		volume float32
		cursor time.Time
		want   timeline.Interval
	}{
		{
			// Starting inside a block jumps past it; the next block then
			// truncates the hour from the right.
			name:   "jumps block then truncated by next",
			volume: 10,
			cursor: at(0),
			want:   timeline.Interval{Start: at(2), End: at(2).Add(50 * time.Minute)},
		},
		{
			name:   "free hour allocated whole",
			volume: 10,
			cursor: at(6),
			want:   span(6, 1),
		},
		{
			name:   "clamped to window end",
			volume: 10,
			cursor: at(23).Add(20 * time.Minute),
			want:   timeline.Interval{Start: at(23).Add(20 * time.Minute), End: at(24)},
		},
		{
			// Remaining volume below granularity shrinks the candidate.
			name:   "shrunk to remaining half hour",
			volume: 0.5,
			cursor: at(6),
			want:   timeline.Interval{Start: at(6), End: at(6).Add(30 * time.Minute)},
		},
		{
			// A shrunk candidate still jumps blocks whole.
			name:   "shrunk candidate moved past block",
			volume: 0.5,
			cursor: at(4),
			want:   timeline.Interval{Start: at(5), End: at(5).Add(30 * time.Minute)},
		},
		{
			name:   "zero remaining yields empty interval",
			volume: 0,
			cursor: at(6),
			want:   timeline.Interval{Start: at(6), End: at(6)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := allocatorSchedule(t, tt.volume)
			s.advance(tt.cursor)
			got := alloc.Allocate(s, 0)
			if !got.Start.Equal(tt.want.Start) || !got.End.Equal(tt.want.End) {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestAllocator_NeverIntersectsPlans(t *testing.T) {
	alloc := Allocator{Granularity: time.Hour}
	s := allocatorSchedule(t, 100)

	cursor := s.Window().Start
	for cursor.Before(s.Window().End) {
		s.advance(cursor)
		iv := alloc.Allocate(s, 0)
		for _, e := range s.Plans().Entries() {
			if iv.Intercepts(e.Interval) {
				t.Fatalf("allocation %s at cursor %s intersects block %s", iv, cursor, e.Interval)
			}
		}
		if !s.Window().Contains(iv) {
			t.Fatalf("allocation %s escapes window", iv)
		}
		// Remaining volume stays above the granularity here, so no
		// allocation may be longer than the granularity itself.
		if iv.Duration() > alloc.Granularity {
			t.Fatalf("allocation %s at cursor %s exceeds granularity %s", iv, cursor, alloc.Granularity)
		}
		cursor = cursor.Add(17 * time.Minute)
	}
}
