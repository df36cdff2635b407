package availability

import (
	"reflect"
	"testing"
	"time"

	"lendr/internal/domain/shared/daterange"
)

func r(t *testing.T, start, end string) daterange.DateRange {
	t.Helper()
	s, err := time.Parse("2006-01-02", start)
	if err != nil {
		t.Fatal(err)
	}
	e, err := time.Parse("2006-01-02", end)
	if err != nil {
		t.Fatal(err)
	}
	dr, err := daterange.New(s, e)
	if err != nil {
		t.Fatal(err)
	}
	return dr
}

func TestUnavailableMarksFlagsRangeEdges(t *testing.T) {
	marks := UnavailableMarks([]daterange.DateRange{r(t, "2024-01-05", "2024-01-07")})
	if len(marks) != 3 {
		t.Fatalf("expected 3 day marks, got %d", len(marks))
	}
	first := marks["2024-01-05"]
	if !first.RangeStart || first.RangeEnd || !first.Disabled || first.Kind != MarkUnavailable {
		t.Fatalf("bad first mark: %+v", first)
	}
	mid := marks["2024-01-06"]
	if mid.RangeStart || mid.RangeEnd {
		t.Fatalf("bad middle mark: %+v", mid)
	}
	last := marks["2024-01-07"]
	if last.RangeStart || !last.RangeEnd {
		t.Fatalf("bad last mark: %+v", last)
	}
}

func TestSingleDayRangeIsBothStartAndEnd(t *testing.T) {
	marks := SelectionMarks(r(t, "2024-01-05", "2024-01-05"))
	m := marks["2024-01-05"]
	if !m.RangeStart || !m.RangeEnd {
		t.Fatalf("single-day mark must cap both ends: %+v", m)
	}
}

func TestProjectionIsIdempotent(t *testing.T) {
	in := []daterange.DateRange{r(t, "2024-01-05", "2024-01-07"), r(t, "2024-02-01", "2024-02-02")}
	a := UnavailableMarks(in)
	b := UnavailableMarks(in)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("identical input must produce identical marks")
	}
}

func TestMergeMarksLaterWins(t *testing.T) {
	unavailable := UnavailableMarks([]daterange.DateRange{r(t, "2024-01-05", "2024-01-08")})
	selection := SelectionMarks(r(t, "2024-01-07", "2024-01-09"))
	merged := MergeMarks(unavailable, selection)

	if merged["2024-01-07"].Kind != MarkSelected {
		t.Fatal("selection must win on contested days")
	}
	if merged["2024-01-05"].Kind != MarkUnavailable {
		t.Fatal("uncontested unavailable day lost its mark")
	}
	if merged["2024-01-09"].Kind != MarkSelected {
		t.Fatal("selection-only day missing")
	}
	// inputs untouched
	if unavailable["2024-01-07"].Kind != MarkUnavailable {
		t.Fatal("MergeMarks mutated its input")
	}
}

func TestDraftBlockSetMergesAdjacent(t *testing.T) {
	set := NewDraftBlockSet()
	if err := set.Add(r(t, "2024-01-01", "2024-01-03")); err != nil {
		t.Fatal(err)
	}
	if err := set.Add(r(t, "2024-01-04", "2024-01-06")); err != nil {
		t.Fatal(err)
	}
	got := set.Ranges()
	if len(got) != 1 {
		t.Fatalf("adjacent blocks must merge, got %v", got)
	}
	if got[0].Days() != 6 {
		t.Fatalf("merged block should span 6 days, got %d", got[0].Days())
	}
}

func TestDraftBlockSetRejectsOverlap(t *testing.T) {
	set := NewDraftBlockSet(r(t, "2024-01-01", "2024-01-05"))
	if err := set.Add(r(t, "2024-01-05", "2024-01-08")); err != ErrDraftOverlap {
		t.Fatalf("touching boundary must be rejected, got %v", err)
	}
	if set.Len() != 1 {
		t.Fatal("rejected add must not change the set")
	}
}

func TestDraftBlockSetRemove(t *testing.T) {
	set := NewDraftBlockSet(r(t, "2024-01-01", "2024-01-02"), r(t, "2024-02-01", "2024-02-02"))
	if err := set.Remove(0); err != nil {
		t.Fatal(err)
	}
	if set.Len() != 1 {
		t.Fatalf("expected one range left, got %d", set.Len())
	}
	if err := set.Remove(5); err != ErrDraftIndex {
		t.Fatalf("expected ErrDraftIndex, got %v", err)
	}
}
