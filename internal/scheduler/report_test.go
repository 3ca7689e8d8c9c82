package scheduler

import (
	"testing"
	"time"
)

func TestBuildReport(t *testing.T) {
	s := NewSchedule(testTasks(), testPlans(), span(0, 24))
	s.commit(2, span(9, 2))
	s.commit(0, span(11, 1))

	report := BuildReport(s, time.UTC)

	day, ok := report["2025-03-05"]
	if !ok {
		t.Fatalf("report has no 2025-03-05 day: %v", report)
	}
	want := map[string]string{
		"09:00 - 11:00": "Task 2",
		"11:00 - 12:00": "Task 0",
		"00:00 - 09:00": "sleep",
		"13:00 - 15:00": "lunch",
		"22:00 - 24:00": "wind down",
	}
	if len(day) != len(want) {
		t.Fatalf("got %d entries, want %d: %v", len(day), len(want), day)
	}
	for rng, desc := range want {
		if day[rng] != desc {
			t.Errorf("%s = %q, want %q", rng, day[rng], desc)
		}
	}
}

// TestBuildReport_DayGrouping spreads work across two calendar days and checks
// the keys are grouped by the start of each interval in the given zone.
func TestBuildReport_DayGrouping(t *testing.T) {
	s := NewSchedule(testTasks(), testPlans(), span(0, 48))
	s.commit(2, span(9, 1))
	s.commit(0, span(33, 1)) // 09:00 the next day

	report := BuildReport(s, time.UTC)

	if _, ok := report["2025-03-05"]["09:00 - 10:00"]; !ok {
		t.Errorf("first day missing morning entry: %v", report)
	}
	if got := report["2025-03-06"]["09:00 - 10:00"]; got != "Task 0" {
		t.Errorf("second day 09:00 = %q, want %q", got, "Task 0")
	}
}

func TestBuildReport_ZoneShiftsDays(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}

	s := NewSchedule(testTasks(), testPlans(), span(0, 24))
	s.commit(2, span(9, 1)) // 09:00 UTC is 04:00 in New York

	report := BuildReport(s, loc)
	if got := report["2025-03-05"]["04:00 - 05:00"]; got != "Task 2" {
		t.Errorf("got %q at 04:00 New York, want %q (report %v)", got, "Task 2", report)
	}
	// The 00:00-09:00 UTC sleep block starts on March 4th in New York.
	if _, ok := report["2025-03-04"]; !ok {
		t.Errorf("sleep block not shifted to previous New York day: %v", report)
	}
}
