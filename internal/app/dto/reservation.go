package dto

import (
	"time"

	domainreservation "lendr/internal/domain/reservation"
)

type Reservation struct {
	ID        string    `json:"id"`
	ListingID string    `json:"listing_id"`
	HolderID  string    `json:"holder_id"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// HolderReservation enriches a reservation with the listing's title for the
// "my reservations" screen. Title stays empty when the listing no longer
// resolves.
type HolderReservation struct {
	Reservation
	ListingTitle string `json:"listing_title,omitempty"`
}

type HolderReservationCollection struct {
	Items []HolderReservation `json:"items"`
}

func MapReservation(r *domainreservation.Reservation) Reservation {
	return Reservation{
		ID:        string(r.ID),
		ListingID: string(r.ListingID),
		HolderID:  r.HolderID,
		Start:     r.Range.Start,
		End:       r.Range.End,
		Status:    string(r.Status),
		CreatedAt: r.CreatedAt,
	}
}
