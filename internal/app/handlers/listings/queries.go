package listings

import (
	"context"

	"lendr/internal/app/dto"
	"lendr/internal/app/queries"
	"lendr/internal/app/uow"
	domainlistings "lendr/internal/domain/listings"
)

const (
	getListingKey = "listings.get"
	catalogKey    = "listings.catalog"
	myListingsKey = "listings.mine"
)

type GetListingQuery struct {
	ListingID string
}

func (q GetListingQuery) Key() string { return getListingKey }

type GetListingHandler struct {
	UoWFactory uow.Factory
}

func (h *GetListingHandler) Handle(ctx context.Context, q GetListingQuery) (dto.Listing, error) {
	ctx, unit, done, err := readUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Listing{}, err
	}
	defer done()

	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(q.ListingID))
	if err != nil {
		return dto.Listing{}, err
	}
	return dto.MapListing(listing), nil
}

type CatalogQuery struct{}

func (q CatalogQuery) Key() string { return catalogKey }

type CatalogHandler struct {
	UoWFactory uow.Factory
}

func (h *CatalogHandler) Handle(ctx context.Context, q CatalogQuery) (dto.ListingCollection, error) {
	ctx, unit, done, err := readUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ListingCollection{}, err
	}
	defer done()

	items, err := unit.Listings().ListAll(ctx)
	if err != nil {
		return dto.ListingCollection{}, err
	}
	return dto.MapListingCollection(items), nil
}

type MyListingsQuery struct {
	OwnerID string
}

func (q MyListingsQuery) Key() string { return myListingsKey }

type MyListingsHandler struct {
	UoWFactory uow.Factory
}

func (h *MyListingsHandler) Handle(ctx context.Context, q MyListingsQuery) (dto.ListingCollection, error) {
	ctx, unit, done, err := readUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ListingCollection{}, err
	}
	defer done()

	items, err := unit.Listings().ListByOwner(ctx, domainlistings.OwnerID(q.OwnerID))
	if err != nil {
		return dto.ListingCollection{}, err
	}
	return dto.MapListingCollection(items), nil
}

// readUnit resolves a read-only unit of work and the context repository calls
// must run under; done is a no-op when the unit came from the surrounding
// context.
func readUnit(ctx context.Context, factory uow.Factory) (context.Context, uow.UnitOfWork, func(), error) {
	if unit, ok := uow.FromContext(ctx); ok {
		return ctx, unit, func() {}, nil
	}
	if factory == nil {
		return ctx, nil, nil, uow.ErrUnitOfWorkMissing
	}
	unit, err := factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return ctx, nil, nil, err
	}
	ctx = uow.BindContext(ctx, unit)
	return ctx, unit, func() { _ = unit.Rollback(ctx) }, nil
}

var _ queries.Handler[GetListingQuery, dto.Listing] = (*GetListingHandler)(nil)
var _ queries.Handler[CatalogQuery, dto.ListingCollection] = (*CatalogHandler)(nil)
var _ queries.Handler[MyListingsQuery, dto.ListingCollection] = (*MyListingsHandler)(nil)
