package scheduler

import (
	"time"

	"github.com/me/taskplan/pkg/timeline"
)

// DayEntries maps an "HH:MM - HH:MM" range to its description. Zero-padded
// clock times sort lexicographically in time order.
type DayEntries map[string]string

// Report is the day-grouped, time-ordered merge of committed task intervals
// and plan entries, keyed by "2006-01-02" in the reference time zone. It is
// the shape handed to rendering and serialization.
type Report map[string]DayEntries

// BuildReport merges the schedule's committed intervals with its plan
// entries and groups them by calendar day in loc.
func BuildReport(s *Schedule, loc *time.Location) Report {
	if loc == nil {
		loc = time.Local
	}

	report := Report{}
	add := func(iv timeline.Interval, description string) {
		day := iv.Start.In(loc).Format("2006-01-02")
		entries, ok := report[day]
		if !ok {
			entries = DayEntries{}
			report[day] = entries
		}
		entries[formatRange(iv, loc)] = description
	}

	for id, task := range s.Tasks() {
		for _, iv := range s.Committed(id) {
			add(iv, task.Description)
		}
	}
	for _, e := range s.Plans().Entries() {
		add(e.Interval, e.Description)
	}

	return report
}

// formatRange renders an interval as "HH:MM - HH:MM"; an end falling on
// midnight renders as 24:00 so it reads as the close of the same day.
func formatRange(iv timeline.Interval, loc *time.Location) string {
	start := iv.Start.In(loc).Format("15:04")
	end := iv.End.In(loc).Format("15:04")
	if end == "00:00" {
		end = "24:00"
	}
	return start + " - " + end
}
