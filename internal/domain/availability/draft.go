package availability

import (
	"errors"

	"lendr/internal/domain/shared/daterange"
)

var (
	ErrDraftOverlap = errors.New("availability: range overlaps an existing draft block")
	ErrDraftIndex   = errors.New("availability: draft block index out of range")
)

// DraftBlockSet accumulates owner blocks while a listing is still being
// authored. It lives in memory only; on publish each range goes through the
// booking transaction. Invariant, enforced on every Add: entries are sorted,
// non-overlapping and non-touching (adjacent ranges collapse into one).
type DraftBlockSet struct {
	ranges []daterange.DateRange
}

func NewDraftBlockSet(ranges ...daterange.DateRange) *DraftBlockSet {
	set := &DraftBlockSet{}
	set.ranges = daterange.Merge(ranges)
	return set
}

// Add inserts a range, rejecting any overlap with the current entries and
// re-merging so adjacent blocks collapse. Mirrors the pre-publication guard
// the wizard applies before a block ever reaches the store.
func (s *DraftBlockSet) Add(dr daterange.DateRange) error {
	dr = dr.Normalize()
	for _, existing := range s.ranges {
		if existing.Overlaps(dr) {
			return ErrDraftOverlap
		}
	}
	s.ranges = daterange.Merge(append(s.ranges, dr))
	return nil
}

// Conflicts reports whether the candidate overlaps any draft entry. This is
// the advisory pre-check of the owner block manager; the transactional check
// remains authoritative.
func (s *DraftBlockSet) Conflicts(dr daterange.DateRange) bool {
	dr = dr.Normalize()
	for _, existing := range s.ranges {
		if existing.Overlaps(dr) {
			return true
		}
	}
	return false
}

func (s *DraftBlockSet) Remove(i int) error {
	if i < 0 || i >= len(s.ranges) {
		return ErrDraftIndex
	}
	s.ranges = append(s.ranges[:i], s.ranges[i+1:]...)
	return nil
}

// Ranges returns a copy of the merged entries, sorted by start.
func (s *DraftBlockSet) Ranges() []daterange.DateRange {
	out := make([]daterange.DateRange, len(s.ranges))
	copy(out, s.ranges)
	return out
}

func (s *DraftBlockSet) Len() int {
	return len(s.ranges)
}
