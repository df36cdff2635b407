package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"lendr/internal/app/uow"
	domainlistings "lendr/internal/domain/listings"
	domainreservation "lendr/internal/domain/reservation"
)

var ErrFactoryNotConfigured = errors.New("mongo: unit of work factory missing database")

// Factory wires Mongo sessions into the generic UnitOfWork port. Every unit
// runs inside a driver transaction, so the booking handler's re-read and
// insert are isolated from concurrent writers.
type Factory struct {
	DB *mongo.Database

	ListingsRepo domainlistings.Repository
	ReservRepo   domainreservation.Repository
}

func NewFactory(db *mongo.Database) *Factory {
	return &Factory{
		DB:           db,
		ListingsRepo: NewListingRepository(db),
		ReservRepo:   NewReservationRepository(db),
	}
}

func (f *Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrFactoryNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, storeErr("start session", err)
	}
	txnOpts := options.Transaction().
		SetReadConcern(f.DB.ReadConcern()).
		SetWriteConcern(f.DB.WriteConcern())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, storeErr("start transaction", err)
	}
	return &Unit{
		session:      session,
		listings:     f.ListingsRepo,
		reservations: f.ReservRepo,
	}, nil
}

type Unit struct {
	session mongo.Session

	listings     domainlistings.Repository
	reservations domainreservation.Repository
}

func (u *Unit) Listings() domainlistings.Repository {
	return u.listings
}

func (u *Unit) Reservations() domainreservation.Repository {
	return u.reservations
}

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	if err := u.session.CommitTransaction(ctx); err != nil {
		return storeErr("commit transaction", err)
	}
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext binds the session so repository calls made with the returned
// context participate in this unit's transaction.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

var _ uow.Factory = (*Factory)(nil)
var _ uow.UnitOfWork = (*Unit)(nil)
