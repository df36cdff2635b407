package reservation

import (
	"context"
	"errors"
	"time"

	"lendr/internal/domain/listings"
	"lendr/internal/domain/shared/daterange"
	"lendr/internal/domain/shared/events"
)

var (
	// ErrDatesUnavailable is the booking conflict: the candidate range
	// overlaps a confirmed reservation or owner block. A legitimate business
	// outcome, never retried automatically.
	ErrDatesUnavailable = errors.New("reservation: dates unavailable")
	// ErrStoreUnavailable wraps transient infrastructure failures so callers
	// can tell them apart from conflicts and validation problems.
	ErrStoreUnavailable = errors.New("reservation: store unavailable")
	ErrNotFound         = errors.New("reservation: not found")
	ErrAlreadyCancelled = errors.New("reservation: already cancelled")
	ErrHolderRequired   = errors.New("reservation: holder id required")
	ErrListingRequired  = errors.New("reservation: listing id required")
	ErrNotHolder        = errors.New("reservation: only the holder may cancel")
)

type ReservationID string

type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// Reservation is a claim on a date range of a listing. An owner block is the
// same record with HolderID equal to the listing owner; the overlap check
// treats both identically. Reservations are never hard-deleted: cancellation
// flips Status and keeps the row for history.
type Reservation struct {
	ID        ReservationID
	ListingID listings.ListingID
	HolderID  string
	Range     daterange.DateRange
	Status    Status
	CreatedAt time.Time
	events.EventRecorder
}

type CreateParams struct {
	ID        ReservationID
	ListingID listings.ListingID
	HolderID  string
	Range     daterange.DateRange
	Now       time.Time
}

// NewConfirmed builds a confirmed reservation. CreatedAt set here is
// provisional; repositories overwrite it with a store-assigned timestamp on
// insert.
func NewConfirmed(params CreateParams) (*Reservation, error) {
	if params.ListingID == "" {
		return nil, ErrListingRequired
	}
	if params.HolderID == "" {
		return nil, ErrHolderRequired
	}
	r := &Reservation{
		ID:        params.ID,
		ListingID: params.ListingID,
		HolderID:  params.HolderID,
		Range:     params.Range.Normalize(),
		Status:    StatusConfirmed,
		CreatedAt: params.Now.UTC(),
	}
	r.Record(ReservationConfirmed{
		ReservationID: r.ID,
		ListingID:     r.ListingID,
		HolderID:      r.HolderID,
		Range:         r.Range,
		At:            r.CreatedAt,
	})
	return r, nil
}

// IsActive reports whether the reservation still occupies its range.
func (r *Reservation) IsActive() bool {
	return r.Status != StatusCancelled
}

// IsBlockFor reports whether the reservation is an owner block of the given
// listing owner.
func (r *Reservation) IsBlockFor(ownerID listings.OwnerID) bool {
	return r.HolderID == string(ownerID)
}

// Cancel releases the range. The only mutation a reservation ever sees.
func (r *Reservation) Cancel(requestedBy string, now time.Time) error {
	if r.Status == StatusCancelled {
		return ErrAlreadyCancelled
	}
	if requestedBy != r.HolderID {
		return ErrNotHolder
	}
	r.Status = StatusCancelled
	r.Record(ReservationCancelled{
		ReservationID: r.ID,
		ListingID:     r.ListingID,
		Range:         r.Range,
		At:            now.UTC(),
	})
	return nil
}

// Repository is the store port. ListByListing must return every reservation
// of the listing ordered by range start ascending; the booking transaction
// relies on re-reading it inside a unit of work.
type Repository interface {
	ByID(ctx context.Context, id ReservationID) (*Reservation, error)
	ListByListing(ctx context.Context, id listings.ListingID) ([]*Reservation, error)
	ListByHolder(ctx context.Context, holderID string) ([]*Reservation, error)
	Create(ctx context.Context, r *Reservation) error
	Save(ctx context.Context, r *Reservation) error
}
