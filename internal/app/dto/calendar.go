package dto

import (
	"time"

	"lendr/internal/domain/availability"
	"lendr/internal/domain/shared/daterange"
)

type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type UnavailableRanges struct {
	ListingID string  `json:"listing_id"`
	Ranges    []Range `json:"ranges"`
}

type RangeAvailability struct {
	ListingID string `json:"listing_id"`
	Free      bool   `json:"free"`
}

// CalendarMarks is the day-keyed projection the calendar widget renders.
type CalendarMarks struct {
	ListingID string             `json:"listing_id"`
	Marks     availability.Marks `json:"marks"`
}

func MapRanges(ranges []daterange.DateRange) []Range {
	out := make([]Range, 0, len(ranges))
	for _, dr := range ranges {
		out = append(out, Range{Start: dr.Start, End: dr.End})
	}
	return out
}
