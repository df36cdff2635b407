package listings

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound      = errors.New("listings: not found")
	ErrTitleRequired = errors.New("listings: title is required")
	ErrOwnerRequired = errors.New("listings: owner id is required")
	ErrNegativePrice = errors.New("listings: price per day must be non-negative")
	ErrNotOwner      = errors.New("listings: caller does not own this listing")
)

type ListingID string
type OwnerID string

// Listing is a rentable item published by an owner. The booking engine only
// ever sees its ID and OwnerID; everything else is catalog data produced by
// the listing wizard.
type Listing struct {
	ID              ListingID
	OwnerID         OwnerID
	Title           string
	Description     string
	PricePerDay     int64 // cents
	DepositCents    int64
	Photos          []string
	CategoryID      string
	CategoryLabel   string
	LocationText    string
	Delivery        string
	ConditionNotes  string
	Specs           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type CreateParams struct {
	ID             ListingID
	OwnerID        OwnerID
	Title          string
	Description    string
	PricePerDay    int64
	DepositCents   int64
	Photos         []string
	CategoryID     string
	CategoryLabel  string
	LocationText   string
	Delivery       string
	ConditionNotes string
	Specs          string
	Now            time.Time
}

func New(params CreateParams) (*Listing, error) {
	if strings.TrimSpace(string(params.OwnerID)) == "" {
		return nil, ErrOwnerRequired
	}
	if strings.TrimSpace(params.Title) == "" {
		return nil, ErrTitleRequired
	}
	if params.PricePerDay < 0 || params.DepositCents < 0 {
		return nil, ErrNegativePrice
	}
	now := params.Now.UTC()
	return &Listing{
		ID:             params.ID,
		OwnerID:        params.OwnerID,
		Title:          strings.TrimSpace(params.Title),
		Description:    params.Description,
		PricePerDay:    params.PricePerDay,
		DepositCents:   params.DepositCents,
		Photos:         params.Photos,
		CategoryID:     params.CategoryID,
		CategoryLabel:  params.CategoryLabel,
		LocationText:   params.LocationText,
		Delivery:       params.Delivery,
		ConditionNotes: params.ConditionNotes,
		Specs:          params.Specs,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Patch carries optional field updates; nil pointers leave fields untouched.
type Patch struct {
	Title          *string
	Description    *string
	PricePerDay    *int64
	DepositCents   *int64
	Photos         []string
	CategoryID     *string
	CategoryLabel  *string
	LocationText   *string
	Delivery       *string
	ConditionNotes *string
	Specs          *string
}

func (l *Listing) Apply(patch Patch, now time.Time) error {
	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			return ErrTitleRequired
		}
		l.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		l.Description = *patch.Description
	}
	if patch.PricePerDay != nil {
		if *patch.PricePerDay < 0 {
			return ErrNegativePrice
		}
		l.PricePerDay = *patch.PricePerDay
	}
	if patch.DepositCents != nil {
		if *patch.DepositCents < 0 {
			return ErrNegativePrice
		}
		l.DepositCents = *patch.DepositCents
	}
	if patch.Photos != nil {
		l.Photos = patch.Photos
	}
	if patch.CategoryID != nil {
		l.CategoryID = *patch.CategoryID
	}
	if patch.CategoryLabel != nil {
		l.CategoryLabel = *patch.CategoryLabel
	}
	if patch.LocationText != nil {
		l.LocationText = *patch.LocationText
	}
	if patch.Delivery != nil {
		l.Delivery = *patch.Delivery
	}
	if patch.ConditionNotes != nil {
		l.ConditionNotes = *patch.ConditionNotes
	}
	if patch.Specs != nil {
		l.Specs = *patch.Specs
	}
	l.UpdatedAt = now.UTC()
	return nil
}

func (l *Listing) OwnedBy(id OwnerID) bool {
	return l.OwnerID == id
}

func (l *Listing) AddPhoto(url string, now time.Time) {
	l.Photos = append(l.Photos, url)
	l.UpdatedAt = now.UTC()
}

// Repository is the listings store port. ListAll and ListByOwner return
// newest first.
type Repository interface {
	ByID(ctx context.Context, id ListingID) (*Listing, error)
	Save(ctx context.Context, listing *Listing) error
	ListAll(ctx context.Context) ([]*Listing, error)
	ListByOwner(ctx context.Context, owner OwnerID) ([]*Listing, error)
}
