package me

import (
	"context"

	"lendr/internal/app/dto"
	"lendr/internal/app/queries"
	"lendr/internal/app/uow"
	domainlistings "lendr/internal/domain/listings"
)

const myReservationsKey = "me.reservations"

type MyReservationsQuery struct {
	HolderID string
}

func (q MyReservationsQuery) Key() string { return myReservationsKey }

// MyReservationsHandler lists everything the caller holds, ordered by range
// start, each item annotated with the listing title when the listing still
// exists. A missing listing is not an error; the item just loses its title.
type MyReservationsHandler struct {
	UoWFactory uow.Factory
}

func (h *MyReservationsHandler) Handle(ctx context.Context, q MyReservationsQuery) (dto.HolderReservationCollection, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		if h.UoWFactory == nil {
			return dto.HolderReservationCollection{}, uow.ErrUnitOfWorkMissing
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{ReadOnly: true})
		if err != nil {
			return dto.HolderReservationCollection{}, err
		}
		ctx = uow.BindContext(ctx, unit)
		defer unit.Rollback(ctx)
	}

	items, err := unit.Reservations().ListByHolder(ctx, q.HolderID)
	if err != nil {
		return dto.HolderReservationCollection{}, err
	}

	out := dto.HolderReservationCollection{Items: make([]dto.HolderReservation, 0, len(items))}
	titles := make(map[domainlistings.ListingID]string)
	for _, r := range items {
		title, seen := titles[r.ListingID]
		if !seen {
			if listing, err := unit.Listings().ByID(ctx, r.ListingID); err == nil {
				title = listing.Title
			}
			titles[r.ListingID] = title
		}
		out.Items = append(out.Items, dto.HolderReservation{
			Reservation:  dto.MapReservation(r),
			ListingTitle: title,
		})
	}
	return out, nil
}

var _ queries.Handler[MyReservationsQuery, dto.HolderReservationCollection] = (*MyReservationsHandler)(nil)
