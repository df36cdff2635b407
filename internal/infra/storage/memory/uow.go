package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"lendr/internal/app/uow"
	domainlistings "lendr/internal/domain/listings"
	domainreservation "lendr/internal/domain/reservation"
)

// ErrFactoryMisconfigured indicates missing repositories.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Factory wires the in-memory repositories into a unit-of-work boundary.
// Units are serialized behind one mutex held from Begin until Commit or
// Rollback, which is the pessimistic variant of the store contract: two
// concurrent booking attempts on the same listing cannot interleave their
// conflict check and write, so at most one of two overlapping candidates
// commits.
type Factory struct {
	mu           sync.Mutex
	ListingsRepo *ListingRepository
	ReservRepo   *ReservationRepository
}

func NewFactory() *Factory {
	return &Factory{
		ListingsRepo: NewListingRepository(),
		ReservRepo:   NewReservationRepository(),
	}
}

// Begin blocks until the previous unit finishes, then hands out a unit whose
// writes are staged and only reach the shared repositories on Commit.
func (f *Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.ListingsRepo == nil || f.ReservRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	f.mu.Lock()
	unit := &Unit{factory: f}
	unit.listings = &txListings{base: f.ListingsRepo, staged: make(map[domainlistings.ListingID]*domainlistings.Listing)}
	unit.reservations = &txReservations{base: f.ReservRepo, staged: make(map[domainreservation.ReservationID]*domainreservation.Reservation)}
	return unit, nil
}

// Unit is a uow.UnitOfWork with buffered writes. Abandoning it without
// Commit or Rollback deadlocks the factory, same as leaking a session.
type Unit struct {
	factory      *Factory
	listings     *txListings
	reservations *txReservations
	done         sync.Once
}

func (u *Unit) Listings() domainlistings.Repository { return u.listings }

func (u *Unit) Reservations() domainreservation.Repository { return u.reservations }

func (u *Unit) Commit(ctx context.Context) error {
	var err error
	u.done.Do(func() {
		defer u.factory.mu.Unlock()
		for _, listing := range u.listings.staged {
			if err = u.listings.base.Save(ctx, listing); err != nil {
				return
			}
		}
		for _, res := range u.reservations.staged {
			if err = u.reservations.base.Save(ctx, res); err != nil {
				return
			}
		}
	})
	return err
}

func (u *Unit) Rollback(ctx context.Context) error {
	u.done.Do(func() {
		u.listings.staged = nil
		u.reservations.staged = nil
		u.factory.mu.Unlock()
	})
	return nil
}

// txListings overlays staged writes on the shared listing repository so a
// unit reads its own uncommitted documents.
type txListings struct {
	base   *ListingRepository
	staged map[domainlistings.ListingID]*domainlistings.Listing
}

func (r *txListings) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	if l, ok := r.staged[id]; ok {
		copied := *l
		return &copied, nil
	}
	return r.base.ByID(ctx, id)
}

func (r *txListings) Save(ctx context.Context, listing *domainlistings.Listing) error {
	copied := *listing
	r.staged[listing.ID] = &copied
	return nil
}

func (r *txListings) ListAll(ctx context.Context) ([]*domainlistings.Listing, error) {
	committed, err := r.base.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return overlayListings(committed, r.staged, func(*domainlistings.Listing) bool { return true }), nil
}

func (r *txListings) ListByOwner(ctx context.Context, owner domainlistings.OwnerID) ([]*domainlistings.Listing, error) {
	committed, err := r.base.ListByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	return overlayListings(committed, r.staged, func(l *domainlistings.Listing) bool { return l.OwnerID == owner }), nil
}

func overlayListings(committed []*domainlistings.Listing, staged map[domainlistings.ListingID]*domainlistings.Listing, match func(*domainlistings.Listing) bool) []*domainlistings.Listing {
	byID := make(map[domainlistings.ListingID]*domainlistings.Listing, len(committed)+len(staged))
	for _, l := range committed {
		byID[l.ID] = l
	}
	for id, l := range staged {
		if match(l) {
			copied := *l
			byID[id] = &copied
		} else {
			delete(byID, id)
		}
	}
	out := make([]*domainlistings.Listing, 0, len(byID))
	for _, l := range byID {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// txReservations overlays staged reservations on the shared repository. The
// booking transaction's re-read goes through here, so it observes both
// committed reservations and ones staged earlier in the same unit.
type txReservations struct {
	base   *ReservationRepository
	staged map[domainreservation.ReservationID]*domainreservation.Reservation
}

func (r *txReservations) ByID(ctx context.Context, id domainreservation.ReservationID) (*domainreservation.Reservation, error) {
	if res, ok := r.staged[id]; ok {
		copied := *res
		return &copied, nil
	}
	return r.base.ByID(ctx, id)
}

func (r *txReservations) Create(ctx context.Context, res *domainreservation.Reservation) error {
	res.CreatedAt = time.Now().UTC()
	copied := *res
	r.staged[res.ID] = &copied
	return nil
}

func (r *txReservations) Save(ctx context.Context, res *domainreservation.Reservation) error {
	copied := *res
	r.staged[res.ID] = &copied
	return nil
}

func (r *txReservations) ListByListing(ctx context.Context, id domainlistings.ListingID) (
	[]*domainreservation.Reservation, error) {
	committed, err := r.base.ListByListing(ctx, id)
	if err != nil {
		return nil, err
	}
	return overlayReservations(committed, r.staged, func(res *domainreservation.Reservation) bool { return res.ListingID == id }), nil
}

func (r *txReservations) ListByHolder(ctx context.Context, holderID string) ([]*domainreservation.Reservation, error) {
	if strings.TrimSpace(holderID) == "" {
		return nil, domainreservation.ErrHolderRequired
	}
	committed, err := r.base.ListByHolder(ctx, holderID)
	if err != nil {
		return nil, err
	}
	return overlayReservations(committed, r.staged, func(res *domainreservation.Reservation) bool { return res.HolderID == holderID }), nil
}

func overlayReservations(committed []*domainreservation.Reservation, staged map[domainreservation.ReservationID]*domainreservation.Reservation, match func(*domainreservation.Reservation) bool) []*domainreservation.Reservation {
	byID := make(map[domainreservation.ReservationID]*domainreservation.Reservation, len(committed)+len(staged))
	for _, res := range committed {
		byID[res.ID] = res
	}
	for id, res := range staged {
		if match(res) {
			copied := *res
			byID[id] = &copied
		} else {
			delete(byID, id)
		}
	}
	out := make([]*domainreservation.Reservation, 0, len(byID))
	for _, res := range byID {
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Range.Start.Equal(out[j].Range.Start) {
			return out[i].ID < out[j].ID
		}
		return out[i].Range.Start.Before(out[j].Range.Start)
	})
	return out
}

var _ uow.Factory = (*Factory)(nil)
var _ uow.UnitOfWork = (*Unit)(nil)
