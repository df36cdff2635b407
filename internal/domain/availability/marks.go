package availability

import (
	"time"

	"lendr/internal/domain/shared/daterange"
)

// MarkKind distinguishes why a day is marked; the UI picks styling from it.
type MarkKind string

const (
	MarkUnavailable MarkKind = "unavailable"
	MarkSelected    MarkKind = "selected"
)

// DayMark is the per-day projection of a range. RangeStart and RangeEnd flag
// the first and last day so a period bar can render rounded caps.
type DayMark struct {
	Kind       MarkKind `json:"kind"`
	RangeStart bool     `json:"range_start"`
	RangeEnd   bool     `json:"range_end"`
	Disabled   bool     `json:"disabled"`
}

// Marks indexes day marks by UTC day key (YYYY-MM-DD).
type Marks map[string]DayMark

// DayKey formats a timestamp as its UTC calendar day.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// EachDayUTC lists every UTC day of the range, inclusive of both ends.
func EachDayUTC(dr daterange.DateRange) []time.Time {
	dr = dr.Normalize()
	days := make([]time.Time, 0, dr.Days())
	for d := dr.Start; dr.ContainsDay(d); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// UnavailableMarks expands unavailable ranges into disabled day marks. Pure:
// calling it twice on the same input yields identical maps.
func UnavailableMarks(ranges []daterange.DateRange) Marks {
	marks := make(Marks)
	for _, dr := range ranges {
		days := EachDayUTC(dr)
		for i, d := range days {
			marks[DayKey(d)] = DayMark{
				Kind:       MarkUnavailable,
				RangeStart: i == 0,
				RangeEnd:   i == len(days)-1,
				Disabled:   true,
			}
		}
	}
	return marks
}

// SelectionMarks projects the user's current selection.
func SelectionMarks(dr daterange.DateRange) Marks {
	marks := make(Marks)
	days := EachDayUTC(dr)
	for i, d := range days {
		marks[DayKey(d)] = DayMark{
			Kind:       MarkSelected,
			RangeStart: i == 0,
			RangeEnd:   i == len(days)-1,
		}
	}
	return marks
}

// MergeMarks overlays b on a with later-wins-by-key semantics: a day that is
// both unavailable and selected keeps the selection mark. Inputs are not
// mutated.
func MergeMarks(a, b Marks) Marks {
	out := make(Marks, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}
