package scheduler

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/me/taskplan/pkg/timeline"
)

// Block is one "HH:MM-HH:MM" time range with its description. An end of
// "24:MM" means midnight of the following day.
type Block struct {
	Range       string
	Description string
}

// Rule pairs the day-granularity portion of a cron expression
// ("dom month dow") with the blocks to lay down on every matching day.
// The expression's own time-of-day fields are fixed to midnight because the
// time ranges are supplied separately.
type Rule struct {
	Expr   string
	Blocks []Block
}

// dayParser accepts the three day-granularity cron fields.
var dayParser = cron.NewParser(cron.Dom | cron.Month | cron.Dow)

// ExpandPlans turns the ordered rule list into a concrete PlanSet for the
// scheduling window. Rules are applied strictly in input order, so
// later-declared rules override earlier ones wherever they overlap. Any parse
// failure aborts the whole expansion; no partial PlanSet is returned.
func ExpandPlans(rules []Rule, window timeline.Interval, loc *time.Location) (*timeline.PlanSet, error) {
	if loc == nil {
		loc = time.Local
	}

	set := timeline.NewPlanSet()
	for i, rule := range rules {
		sched, err := dayParser.Parse(fmt.Sprintf("CRON_TZ=%s %s", loc.String(), rule.Expr))
		if err != nil {
			return nil, fmt.Errorf("plan rule %d (%q): %w", i, rule.Expr, err)
		}

		days := matchingDays(sched, window, loc)
		for _, b := range rule.Blocks {
			for _, day := range days {
				iv, err := blockInterval(day, b.Range, loc)
				if err != nil {
					return nil, fmt.Errorf("plan rule %d (%q): %w", i, rule.Expr, err)
				}
				set.Insert(iv, b.Description)
			}
		}
	}
	return set, nil
}

// matchingDays enumerates the midnights inside the window that the rule
// matches. cron.Schedule.Next is strictly-after, so the probe starts one
// second early to include a window that begins exactly on a matching
// midnight.
func matchingDays(sched cron.Schedule, window timeline.Interval, loc *time.Location) []time.Time {
	var days []time.Time
	t := window.Start.In(loc).Add(-time.Second)
	for {
		next := sched.Next(t)
		if next.IsZero() || !next.Before(window.End) {
			return days
		}
		days = append(days, next.In(loc))
		t = next
	}
}

// blockInterval resolves a "HH:MM-HH:MM" range against a concrete day.
func blockInterval(day time.Time, rng string, loc *time.Location) (timeline.Interval, error) {
	parts := strings.Split(rng, "-")
	if len(parts) != 2 {
		return timeline.Interval{}, fmt.Errorf("time range %q: expected two clock times separated by '-', got %d", rng, len(parts))
	}

	start, err := clockOn(day, strings.TrimSpace(parts[0]), loc)
	if err != nil {
		return timeline.Interval{}, fmt.Errorf("time range %q: %w", rng, err)
	}

	var end time.Time
	rawEnd := strings.TrimSpace(parts[1])
	if strings.HasPrefix(rawEnd, "24") {
		// Midnight of the following day. AddDate keeps the wall clock, so
		// this lands on 00:00 even across DST transitions.
		end = day.AddDate(0, 0, 1)
	} else {
		end, err = clockOn(day, rawEnd, loc)
		if err != nil {
			return timeline.Interval{}, fmt.Errorf("time range %q: %w", rng, err)
		}
	}

	return timeline.NewInterval(start, end)
}

// clockOn combines an "HH:MM" clock time with the given day in loc.
func clockOn(day time.Time, hhmm string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("15:04", hhmm, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid clock time %q", hhmm)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}
