package timeline

import (
	"sort"
)

// Entry is a pre-committed calendar block: an interval plus a description.
type Entry struct {
	Interval
	Description string `json:"description"`
}

// PlanSet is a collection of calendar blocks kept sorted by start time.
// After any sequence of Insert calls no two entries intersect; later inserts
// win over earlier ones wherever they overlap.
type PlanSet struct {
	entries []Entry
}

// NewPlanSet returns an empty PlanSet.
func NewPlanSet() *PlanSet {
	return &PlanSet{}
}

// Len returns the number of entries.
func (ps *PlanSet) Len() int {
	return len(ps.entries)
}

// Entries returns the blocks in ascending start order. The returned slice is
// a copy; mutating it does not affect the set.
func (ps *PlanSet) Entries() []Entry {
	out := make([]Entry, len(ps.entries))
	copy(out, ps.entries)
	return out
}

// Insert adds a block, overriding any existing entries it overlaps:
// entries fully inside the new interval are removed, entries fully containing
// it are split into the remainders on either side (keeping their original
// description), and partial overlaps are truncated to their non-overlapping
// remainder. The affected set is collected first and applied in one pass.
func (ps *PlanSet) Insert(iv Interval, description string) {
	kept := make([]Entry, 0, len(ps.entries)+2)

	for _, e := range ps.entries {
		switch {
		case iv.Contains(e.Interval):
			// Fully shadowed by the new block.
		case e.Contains(iv):
			left := Interval{Start: e.Start, End: iv.Start}
			right := Interval{Start: iv.End, End: e.End}
			if !left.IsEmpty() {
				kept = append(kept, Entry{Interval: left, Description: e.Description})
			}
			if !right.IsEmpty() {
				kept = append(kept, Entry{Interval: right, Description: e.Description})
			}
		case e.Intercepts(iv):
			// Overlaps on exactly one side; keep the remainder.
			var rest Interval
			if e.Start.Before(iv.Start) {
				rest = Interval{Start: e.Start, End: iv.Start}
			} else {
				rest = Interval{Start: iv.End, End: e.End}
			}
			if !rest.IsEmpty() {
				kept = append(kept, Entry{Interval: rest, Description: e.Description})
			}
		default:
			kept = append(kept, e)
		}
	}

	kept = append(kept, Entry{Interval: iv, Description: description})
	sort.Slice(kept, func(i, j int) bool { return kept[i].Start.Before(kept[j].Start) })
	ps.entries = kept
}

// Overlapping returns the entries intersecting iv, in ascending start order.
func (ps *PlanSet) Overlapping(iv Interval) []Entry {
	var out []Entry
	for _, e := range ps.entries {
		if e.Intercepts(iv) {
			out = append(out, e)
		}
	}
	return out
}

// BlockedHours sums the hours of every entry that intersects window.
// Entries are counted whole, not clipped to the window.
func (ps *PlanSet) BlockedHours(window Interval) float32 {
	var total float32
	for _, e := range ps.entries {
		if e.Intercepts(window) {
			total += e.Hours()
		}
	}
	return total
}
