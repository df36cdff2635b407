package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	domainlistings "lendr/internal/domain/listings"
	domainreservation "lendr/internal/domain/reservation"
)

// ListingRepository is an in-memory implementation for demos and tests.
type ListingRepository struct {
	mu    sync.RWMutex
	items map[domainlistings.ListingID]*domainlistings.Listing
}

func NewListingRepository() *ListingRepository {
	return &ListingRepository{
		items: make(map[domainlistings.ListingID]*domainlistings.Listing),
	}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	listing, ok := r.items[id]
	if !ok {
		return nil, domainlistings.ErrNotFound
	}
	copied := *listing
	return &copied, nil
}

func (r *ListingRepository) Save(ctx context.Context, listing *domainlistings.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *listing
	r.items[listing.ID] = &copied
	return nil
}

func (r *ListingRepository) ListAll(ctx context.Context) ([]*domainlistings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(func(*domainlistings.Listing) bool { return true }), nil
}

func (r *ListingRepository) ListByOwner(ctx context.Context, owner domainlistings.OwnerID) ([]*domainlistings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(func(l *domainlistings.Listing) bool { return l.OwnerID == owner }), nil
}

// collect copies matches sorted newest first; callers hold the lock.
func (r *ListingRepository) collect(match func(*domainlistings.Listing) bool) []*domainlistings.Listing {
	matches := make([]*domainlistings.Listing, 0, len(r.items))
	for _, listing := range r.items {
		if match(listing) {
			copied := *listing
			matches = append(matches, &copied)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches
}

// ReservationRepository stores reservations in memory. CreatedAt is assigned
// on insert, standing in for the real store's server timestamp.
type ReservationRepository struct {
	mu    sync.RWMutex
	items map[domainreservation.ReservationID]*domainreservation.Reservation
}

func NewReservationRepository() *ReservationRepository {
	return &ReservationRepository{items: make(map[domainreservation.ReservationID]*domainreservation.Reservation)}
}

func (r *ReservationRepository) ByID(ctx context.Context, id domainreservation.ReservationID) (*domainreservation.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.items[id]
	if !ok {
		return nil, domainreservation.ErrNotFound
	}
	copied := *res
	return &copied, nil
}

func (r *ReservationRepository) ListByListing(ctx context.Context, id domainlistings.ListingID) ([]*domainreservation.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(func(res *domainreservation.Reservation) bool { return res.ListingID == id }), nil
}

func (r *ReservationRepository) ListByHolder(ctx context.Context, holderID string) ([]*domainreservation.Reservation, error) {
	holderID = strings.TrimSpace(holderID)
	if holderID == "" {
		return nil, domainreservation.ErrHolderRequired
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(func(res *domainreservation.Reservation) bool { return res.HolderID == holderID }), nil
}

func (r *ReservationRepository) Create(ctx context.Context, res *domainreservation.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	res.CreatedAt = time.Now().UTC()
	copied := *res
	r.items[res.ID] = &copied
	return nil
}

func (r *ReservationRepository) Save(ctx context.Context, res *domainreservation.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *res
	r.items[res.ID] = &copied
	return nil
}

// collect copies matches ordered by range start ascending; callers hold the
// lock.
func (r *ReservationRepository) collect(match func(*domainreservation.Reservation) bool) []*domainreservation.Reservation {
	matches := make([]*domainreservation.Reservation, 0, len(r.items))
	for _, res := range r.items {
		if match(res) {
			copied := *res
			matches = append(matches, &copied)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Range.Start.Equal(matches[j].Range.Start) {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].Range.Start.Before(matches[j].Range.Start)
	})
	return matches
}

var _ domainlistings.Repository = (*ListingRepository)(nil)
var _ domainreservation.Repository = (*ReservationRepository)(nil)
