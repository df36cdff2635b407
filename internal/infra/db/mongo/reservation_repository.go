package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainlistings "lendr/internal/domain/listings"
	domainreservation "lendr/internal/domain/reservation"
	domainrange "lendr/internal/domain/shared/daterange"
)

// ReservationRepository persists reservations in the "reservations"
// collection. All reads and writes honor a session bound to the context, so
// inside a unit of work the conflict re-read and the insert are one
// transaction.
type ReservationRepository struct {
	col *mongo.Collection
}

func NewReservationRepository(db *mongo.Database) *ReservationRepository {
	return &ReservationRepository{col: db.Collection("reservations")}
}

func (r *ReservationRepository) ByID(ctx context.Context, id domainreservation.ReservationID) (*domainreservation.Reservation, error) {
	var doc reservationDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainreservation.ErrNotFound
		}
		return nil, storeErr("find reservation", err)
	}
	return doc.toAggregate(), nil
}

func (r *ReservationRepository) ListByListing(ctx context.Context, id domainlistings.ListingID) ([]*domainreservation.Reservation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "range.start", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"listing_id": string(id)}, opts)
	if err != nil {
		return nil, storeErr("list reservations", err)
	}
	return decodeAll(ctx, cur)
}

func (r *ReservationRepository) ListByHolder(ctx context.Context, holderID string) ([]*domainreservation.Reservation, error) {
	if holderID == "" {
		return nil, domainreservation.ErrHolderRequired
	}
	opts := options.Find().SetSort(bson.D{{Key: "range.start", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"holder_id": holderID}, opts)
	if err != nil {
		return nil, storeErr("list reservations", err)
	}
	return decodeAll(ctx, cur)
}

// Create inserts the reservation with a server-assigned timestamp.
func (r *ReservationRepository) Create(ctx context.Context, res *domainreservation.Reservation) error {
	res.CreatedAt = time.Now().UTC()
	if _, err := r.col.InsertOne(ctx, newReservationDocument(res)); err != nil {
		return storeErr("insert reservation", err)
	}
	return nil
}

// Save updates mutable state; in practice only the status flip on cancel.
func (r *ReservationRepository) Save(ctx context.Context, res *domainreservation.Reservation) error {
	update := bson.M{"$set": bson.M{"status": string(res.Status)}}
	result, err := r.col.UpdateOne(ctx, bson.M{"_id": string(res.ID)}, update)
	if err != nil {
		return storeErr("update reservation", err)
	}
	if result.MatchedCount == 0 {
		return domainreservation.ErrNotFound
	}
	return nil
}

func decodeAll(ctx context.Context, cur *mongo.Cursor) ([]*domainreservation.Reservation, error) {
	defer cur.Close(ctx)
	var out []*domainreservation.Reservation
	for cur.Next(ctx) {
		var doc reservationDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, storeErr("decode reservation", err)
		}
		out = append(out, doc.toAggregate())
	}
	if err := cur.Err(); err != nil {
		return nil, storeErr("iterate reservations", err)
	}
	return out, nil
}

type reservationDocument struct {
	ID        string        `bson:"_id"`
	ListingID string        `bson:"listing_id"`
	HolderID  string        `bson:"holder_id"`
	Range     rangeDocument `bson:"range"`
	Status    string        `bson:"status"`
	CreatedAt int64         `bson:"created_at"`
}

type rangeDocument struct {
	Start int64 `bson:"start"`
	End   int64 `bson:"end"`
}

func newReservationDocument(res *domainreservation.Reservation) reservationDocument {
	return reservationDocument{
		ID:        string(res.ID),
		ListingID: string(res.ListingID),
		HolderID:  res.HolderID,
		Range:     rangeDocument{Start: res.Range.Start.UnixMilli(), End: res.Range.End.UnixMilli()},
		Status:    string(res.Status),
		CreatedAt: res.CreatedAt.UnixMilli(),
	}
}

func (d reservationDocument) toAggregate() *domainreservation.Reservation {
	return &domainreservation.Reservation{
		ID:        domainreservation.ReservationID(d.ID),
		ListingID: domainlistings.ListingID(d.ListingID),
		HolderID:  d.HolderID,
		Range: domainrange.DateRange{
			Start: timestampToTime(d.Range.Start),
			End:   timestampToTime(d.Range.End),
		},
		Status:    domainreservation.Status(d.Status),
		CreatedAt: timestampToTime(d.CreatedAt),
	}
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// storeErr tags driver failures as store-unavailable so the application can
// separate them from conflicts and validation errors.
func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", domainreservation.ErrStoreUnavailable, op, err)
}

var _ domainreservation.Repository = (*ReservationRepository)(nil)
