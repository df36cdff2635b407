package availability

import (
	"context"
	"time"

	"lendr/internal/app/dto"
	"lendr/internal/app/queries"
	"lendr/internal/app/uow"
	domainlistings "lendr/internal/domain/listings"
	domainrange "lendr/internal/domain/shared/daterange"
)

const isRangeFreeKey = "availability.is_range_free"

type IsRangeFreeQuery struct {
	ListingID string
	Start     time.Time
	End       time.Time
}

func (q IsRangeFreeQuery) Key() string { return isRangeFreeKey }

// IsRangeFreeHandler answers the advisory availability question the UI asks
// before a booking attempt. A "free" answer may already be stale by the time
// the user submits; the booking transaction is the only correctness
// guarantee.
type IsRangeFreeHandler struct {
	UoWFactory uow.Factory
}

func (h *IsRangeFreeHandler) Handle(ctx context.Context, q IsRangeFreeQuery) (dto.RangeAvailability, error) {
	candidate, err := domainrange.New(q.Start, q.End)
	if err != nil {
		return dto.RangeAvailability{}, err
	}
	ranges, err := unavailableRanges(ctx, h.UoWFactory, domainlistings.ListingID(q.ListingID))
	if err != nil {
		return dto.RangeAvailability{}, err
	}
	for _, dr := range ranges {
		if dr.Overlaps(candidate) {
			return dto.RangeAvailability{ListingID: q.ListingID, Free: false}, nil
		}
	}
	return dto.RangeAvailability{ListingID: q.ListingID, Free: true}, nil
}

var _ queries.Handler[IsRangeFreeQuery, dto.RangeAvailability] = (*IsRangeFreeHandler)(nil)
