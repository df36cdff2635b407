package dto

import (
	"time"

	domainlistings "lendr/internal/domain/listings"
)

type Listing struct {
	ID             string    `json:"id"`
	OwnerID        string    `json:"owner_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	PricePerDay    int64     `json:"price_per_day_cents"`
	DepositCents   int64     `json:"deposit_cents,omitempty"`
	Photos         []string  `json:"photos,omitempty"`
	CategoryID     string    `json:"category_id,omitempty"`
	CategoryLabel  string    `json:"category_label,omitempty"`
	LocationText   string    `json:"location_text,omitempty"`
	Delivery       string    `json:"delivery,omitempty"`
	ConditionNotes string    `json:"condition_notes,omitempty"`
	Specs          string    `json:"specs,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type ListingCollection struct {
	Items []Listing `json:"items"`
}

func MapListing(l *domainlistings.Listing) Listing {
	return Listing{
		ID:             string(l.ID),
		OwnerID:        string(l.OwnerID),
		Title:          l.Title,
		Description:    l.Description,
		PricePerDay:    l.PricePerDay,
		DepositCents:   l.DepositCents,
		Photos:         l.Photos,
		CategoryID:     l.CategoryID,
		CategoryLabel:  l.CategoryLabel,
		LocationText:   l.LocationText,
		Delivery:       l.Delivery,
		ConditionNotes: l.ConditionNotes,
		Specs:          l.Specs,
		CreatedAt:      l.CreatedAt,
		UpdatedAt:      l.UpdatedAt,
	}
}

func MapListingCollection(items []*domainlistings.Listing) ListingCollection {
	out := ListingCollection{Items: make([]Listing, 0, len(items))}
	for _, l := range items {
		out.Items = append(out.Items, MapListing(l))
	}
	return out
}
