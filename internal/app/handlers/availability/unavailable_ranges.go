package availability

import (
	"context"

	"lendr/internal/app/dto"
	"lendr/internal/app/queries"
	"lendr/internal/app/uow"
	domainlistings "lendr/internal/domain/listings"
	domainrange "lendr/internal/domain/shared/daterange"
)

const unavailableRangesKey = "availability.unavailable"

type UnavailableRangesQuery struct {
	ListingID string
	// Merged asks for the minimal non-overlapping cover instead of the raw
	// per-reservation ranges.
	Merged bool
}

func (q UnavailableRangesQuery) Key() string { return unavailableRangesKey }

type UnavailableRangesHandler struct {
	UoWFactory uow.Factory
}

func (h *UnavailableRangesHandler) Handle(ctx context.Context, q UnavailableRangesQuery) (dto.UnavailableRanges, error) {
	ranges, err := unavailableRanges(ctx, h.UoWFactory, domainlistings.ListingID(q.ListingID))
	if err != nil {
		return dto.UnavailableRanges{}, err
	}
	if q.Merged {
		ranges = domainrange.Merge(ranges)
	}
	return dto.UnavailableRanges{ListingID: q.ListingID, Ranges: dto.MapRanges(ranges)}, nil
}

// unavailableRanges reads every non-cancelled reservation of the listing and
// returns its range, unmerged. The result is a read-only snapshot: a range
// reported free here may be taken before a booking attempt lands, which is
// why only the transactional write path decides conflicts.
func unavailableRanges(ctx context.Context, factory uow.Factory, id domainlistings.ListingID) ([]domainrange.DateRange, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		if factory == nil {
			return nil, uow.ErrUnitOfWorkMissing
		}
		var err error
		unit, err = factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
		if err != nil {
			return nil, err
		}
		ctx = uow.BindContext(ctx, unit)
		defer unit.Rollback(ctx)
	}

	all, err := unit.Reservations().ListByListing(ctx, id)
	if err != nil {
		return nil, err
	}
	ranges := make([]domainrange.DateRange, 0, len(all))
	for _, r := range all {
		if !r.IsActive() {
			continue
		}
		ranges = append(ranges, r.Range)
	}
	return ranges, nil
}

var _ queries.Handler[UnavailableRangesQuery, dto.UnavailableRanges] = (*UnavailableRangesHandler)(nil)
