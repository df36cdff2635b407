package daterange

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	ErrEndBeforeStart = errors.New("daterange: end date is before start date")
)

const day = 24 * time.Hour

// DateRange is an inclusive, day-granular interval. Both endpoints are
// normalized to midnight UTC; a range ending on day D and a range starting
// on day D occupy the same day and therefore overlap.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// New normalizes both endpoints to UTC day boundaries and validates them.
func New(start, end time.Time) (DateRange, error) {
	dr := DateRange{Start: Day(start), End: Day(end)}
	if dr.End.Before(dr.Start) {
		return DateRange{}, ErrEndBeforeStart
	}
	return dr, nil
}

// Day truncates a timestamp to midnight UTC. Time-of-day and zone are never
// meaningful for reservations, so every comparison goes through this first.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Normalize returns the range with both endpoints truncated to UTC days.
func (dr DateRange) Normalize() DateRange {
	return DateRange{Start: Day(dr.Start), End: Day(dr.End)}
}

// Overlaps reports whether the two closed intervals share at least one day.
func (dr DateRange) Overlaps(other DateRange) bool {
	return !dr.Start.After(other.End) && !other.Start.After(dr.End)
}

// Adjacent reports whether other begins exactly one day after dr ends, or
// vice versa.
func (dr DateRange) Adjacent(other DateRange) bool {
	return other.Start.Equal(dr.End.Add(day)) || dr.Start.Equal(other.End.Add(day))
}

// ContainsDay reports whether the given day falls inside the range.
func (dr DateRange) ContainsDay(t time.Time) bool {
	d := Day(t)
	return !d.Before(dr.Start) && !d.After(dr.End)
}

// Days returns the number of calendar days covered, inclusive of both ends.
func (dr DateRange) Days() int {
	return int(dr.End.Sub(dr.Start)/day) + 1
}

func (dr DateRange) String() string {
	return fmt.Sprintf("%s..%s", dr.Start.Format("2006-01-02"), dr.End.Format("2006-01-02"))
}

// Merge collapses the input into its minimal non-overlapping, non-touching
// cover: ranges are normalized, sorted by start ascending and folded left to
// right, merging whenever the next range starts on or before the day after
// the running range ends. The input slice is left untouched.
func Merge(ranges []DateRange) []DateRange {
	if len(ranges) == 0 {
		return nil
	}
	sorted := make([]DateRange, len(ranges))
	for i, r := range ranges {
		sorted[i] = r.Normalize()
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	out := []DateRange{sorted[0]}
	for _, cur := range sorted[1:] {
		last := &out[len(out)-1]
		if !cur.Start.After(last.End.Add(day)) {
			if cur.End.After(last.End) {
				last.End = cur.End
			}
			continue
		}
		out = append(out, cur)
	}
	return out
}
