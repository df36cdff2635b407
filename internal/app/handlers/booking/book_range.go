package booking

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"lendr/internal/app/commands"
	"lendr/internal/app/dto"
	"lendr/internal/app/middleware"
	"lendr/internal/app/outbox"
	"lendr/internal/app/uow"
	domainlistings "lendr/internal/domain/listings"
	domainreservation "lendr/internal/domain/reservation"
	domainrange "lendr/internal/domain/shared/daterange"
	"lendr/internal/domain/shared/events"
)

const bookRangeKey = "reservation.book"

type BookRangeCommand struct {
	CommandID       string
	ListingID       string
	HolderID        string
	Start           time.Time
	End             time.Time
	IdempotencyKeyV string
}

func (c BookRangeCommand) Key() string { return bookRangeKey }

func (c BookRangeCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c BookRangeCommand) ResultPrototype() any { return &BookRangeResult{} }

type BookRangeResult struct {
	Reservation dto.Reservation `json:"reservation"`
}

// BookRangeHandler is the single write path for reservations and owner
// blocks. The conflict check and the insert happen inside one unit of work:
// all reservations of the listing are re-read through the transaction (a
// pre-fetched set would reintroduce exactly the staleness this guards
// against), any overlap with a non-cancelled reservation aborts, otherwise
// a confirmed reservation commits atomically.
type BookRangeHandler struct {
	UoWFactory uow.Factory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *BookRangeHandler) Handle(ctx context.Context, cmd BookRangeCommand) (*BookRangeResult, error) {
	// Validation happens before any store access.
	if strings.TrimSpace(cmd.ListingID) == "" {
		return nil, domainreservation.ErrListingRequired
	}
	if strings.TrimSpace(cmd.HolderID) == "" {
		return nil, domainreservation.ErrHolderRequired
	}
	dr, err := domainrange.New(cmd.Start, cmd.End)
	if err != nil {
		return nil, err
	}

	unit, managed, err := resolveUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if managed {
		ctx = uow.BindContext(ctx, unit)
	}
	committed := false
	if managed {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	if _, err := unit.Listings().ByID(ctx, domainlistings.ListingID(cmd.ListingID)); err != nil {
		return nil, err
	}

	existing, err := unit.Reservations().ListByListing(ctx, domainlistings.ListingID(cmd.ListingID))
	if err != nil {
		return nil, err
	}
	for _, other := range existing {
		if other.IsActive() && other.Range.Overlaps(dr) {
			// The rejection is a fact worth emitting even though the unit
			// rolls back; the outbox lives outside the transaction. The flush
			// middleware only runs after successful commands, so the record
			// is flushed here or it would sit pending until the next win.
			_ = outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), []events.DomainEvent{
				domainreservation.BookingConflictRejected{
					ListingID: domainlistings.ListingID(cmd.ListingID),
					HolderID:  cmd.HolderID,
					Range:     dr,
					At:        time.Now().UTC(),
				},
			})
			if h.Outbox != nil {
				if err := h.Outbox.Flush(ctx); err != nil && h.Logger != nil {
					h.Logger.Warn("conflict event flush failed", "listing_id", cmd.ListingID, "error", err)
				}
			}
			if h.Logger != nil {
				h.Logger.Info("booking conflict", "listing_id", cmd.ListingID, "range", dr.String())
			}
			return nil, domainreservation.ErrDatesUnavailable
		}
	}

	res, err := domainreservation.NewConfirmed(domainreservation.CreateParams{
		ID:        domainreservation.ReservationID(cmd.CommandID),
		ListingID: domainlistings.ListingID(cmd.ListingID),
		HolderID:  cmd.HolderID,
		Range:     dr,
		Now:       time.Now(),
	})
	if err != nil {
		return nil, err
	}
	if err := unit.Reservations().Create(ctx, res); err != nil {
		return nil, err
	}

	pending := res.PendingEvents()
	res.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}

	if h.Logger != nil {
		h.Logger.Info("range booked", "reservation_id", res.ID, "listing_id", cmd.ListingID, "range", res.Range.String())
	}
	return &BookRangeResult{Reservation: dto.MapReservation(res)}, nil
}

func (h *BookRangeHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

// resolveUnit reuses a unit of work already injected by the transaction
// middleware, or begins one that the caller must finish. A freshly begun
// unit must be bound with uow.BindContext before any repository call, or a
// session-backed store would run the reads and writes outside the
// transaction.
func resolveUnit(ctx context.Context, factory uow.Factory) (unit uow.UnitOfWork, managed bool, err error) {
	if unit, ok := uow.FromContext(ctx); ok {
		return unit, false, nil
	}
	if factory == nil {
		return nil, false, uow.ErrUnitOfWorkMissing
	}
	unit, err = factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return nil, false, err
	}
	return unit, true, nil
}

var _ commands.Handler[BookRangeCommand, *BookRangeResult] = (*BookRangeHandler)(nil)
var _ middleware.IdempotentCommand = (*BookRangeCommand)(nil)
