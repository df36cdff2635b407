package reservation

import (
	"time"

	"lendr/internal/domain/listings"
	"lendr/internal/domain/shared/daterange"
)

type ReservationConfirmed struct {
	ReservationID ReservationID
	ListingID     listings.ListingID
	HolderID      string
	Range         daterange.DateRange
	At            time.Time
}

func (e ReservationConfirmed) EventName() string     { return "reservation.confirmed" }
func (e ReservationConfirmed) AggregateID() string   { return string(e.ReservationID) }
func (e ReservationConfirmed) OccurredAt() time.Time { return e.At }

type ReservationCancelled struct {
	ReservationID ReservationID
	ListingID     listings.ListingID
	Range         daterange.DateRange
	At            time.Time
}

func (e ReservationCancelled) EventName() string     { return "reservation.cancelled" }
func (e ReservationCancelled) AggregateID() string   { return string(e.ReservationID) }
func (e ReservationCancelled) OccurredAt() time.Time { return e.At }

type BookingConflictRejected struct {
	ListingID listings.ListingID
	HolderID  string
	Range     daterange.DateRange
	At        time.Time
}

func (e BookingConflictRejected) EventName() string     { return "reservation.conflict_rejected" }
func (e BookingConflictRejected) AggregateID() string   { return string(e.ListingID) }
func (e BookingConflictRejected) OccurredAt() time.Time { return e.At }
