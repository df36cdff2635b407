package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainlistings "lendr/internal/domain/listings"
)

// ListingRepository persists listings in the "listings" collection.
type ListingRepository struct {
	col *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	return &ListingRepository{col: db.Collection("listings")}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	var doc listingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainlistings.ErrNotFound
		}
		return nil, storeErr("find listing", err)
	}
	return doc.toAggregate(), nil
}

func (r *ListingRepository) Save(ctx context.Context, listing *domainlistings.Listing) error {
	filter := bson.M{"_id": string(listing.ID)}
	update := bson.M{"$set": newListingDocument(listing)}
	if _, err := r.col.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return storeErr("save listing", err)
	}
	return nil
}

func (r *ListingRepository) ListAll(ctx context.Context) ([]*domainlistings.Listing, error) {
	return r.find(ctx, bson.M{})
}

func (r *ListingRepository) ListByOwner(ctx context.Context, owner domainlistings.OwnerID) ([]*domainlistings.Listing, error) {
	return r.find(ctx, bson.M{"owner_id": string(owner)})
}

func (r *ListingRepository) find(ctx context.Context, filter bson.M) ([]*domainlistings.Listing, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, storeErr("list listings", err)
	}
	defer cur.Close(ctx)

	var out []*domainlistings.Listing
	for cur.Next(ctx) {
		var doc listingDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, storeErr("decode listing", err)
		}
		out = append(out, doc.toAggregate())
	}
	if err := cur.Err(); err != nil {
		return nil, storeErr("iterate listings", err)
	}
	return out, nil
}

type listingDocument struct {
	ID             string   `bson:"_id"`
	OwnerID        string   `bson:"owner_id"`
	Title          string   `bson:"title"`
	Description    string   `bson:"description"`
	PricePerDay    int64    `bson:"price_per_day"`
	DepositCents   int64    `bson:"deposit_cents"`
	Photos         []string `bson:"photos"`
	CategoryID     string   `bson:"category_id"`
	CategoryLabel  string   `bson:"category_label"`
	LocationText   string   `bson:"location_text"`
	Delivery       string   `bson:"delivery"`
	ConditionNotes string   `bson:"condition_notes"`
	Specs          string   `bson:"specs"`
	CreatedAt      int64    `bson:"created_at"`
	UpdatedAt      int64    `bson:"updated_at"`
}

func newListingDocument(l *domainlistings.Listing) listingDocument {
	return listingDocument{
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
		CreatedAt:      l.CreatedAt.UnixMilli(),
		UpdatedAt:      l.UpdatedAt.UnixMilli(),
	}
}

func (d listingDocument) toAggregate() *domainlistings.Listing {
	return &domainlistings.Listing{
		ID:             domainlistings.ListingID(d.ID),
		OwnerID:        domainlistings.OwnerID(d.OwnerID),
		Title:          d.Title,
		Description:    d.Description,
		PricePerDay:    d.PricePerDay,
		DepositCents:   d.DepositCents,
		Photos:         d.Photos,
		CategoryID:     d.CategoryID,
		CategoryLabel:  d.CategoryLabel,
		LocationText:   d.LocationText,
		Delivery:       d.Delivery,
		ConditionNotes: d.ConditionNotes,
		Specs:          d.Specs,
		CreatedAt:      timestampToTime(d.CreatedAt),
		UpdatedAt:      timestampToTime(d.UpdatedAt),
	}
}

var _ domainlistings.Repository = (*ListingRepository)(nil)
