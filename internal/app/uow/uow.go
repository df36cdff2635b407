package uow

import (
	"context"

	domainlistings "lendr/internal/domain/listings"
	domainreservation "lendr/internal/domain/reservation"
)

// UnitOfWork scopes repository access to one transaction boundary. Reads and
// writes performed through the same unit commit atomically or not at all;
// this is the isolation the booking conflict check depends on.
type UnitOfWork interface {
	Listings() domainlistings.Repository
	Reservations() domainreservation.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Factory starts unit of work instances.
type Factory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
