package booking

import (
	"context"
	"log/slog"
	"time"

	"lendr/internal/app/commands"
	"lendr/internal/app/dto"
	"lendr/internal/app/outbox"
	"lendr/internal/app/uow"
	domainreservation "lendr/internal/domain/reservation"
)

const cancelReservationKey = "reservation.cancel"

type CancelReservationCommand struct {
	ReservationID string
	RequestedBy   string
}

func (c CancelReservationCommand) Key() string { return cancelReservationKey }

type CancelReservationResult struct {
	Reservation dto.Reservation `json:"reservation"`
}

// CancelReservationHandler soft-deletes a reservation. Cancellation never
// competes for range ownership, it only releases it, so no conflict re-read
// is needed; the freed range is immediately bookable again.
type CancelReservationHandler struct {
	UoWFactory uow.Factory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *CancelReservationHandler) Handle(ctx context.Context, cmd CancelReservationCommand) (*CancelReservationResult, error) {
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

	res, err := unit.Reservations().ByID(ctx, domainreservation.ReservationID(cmd.ReservationID))
	if err != nil {
		return nil, err
	}
	if err := res.Cancel(cmd.RequestedBy, time.Now()); err != nil {
		return nil, err
	}
	if err := unit.Reservations().Save(ctx, res); err != nil {
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
		h.Logger.Info("reservation cancelled", "reservation_id", res.ID, "listing_id", res.ListingID)
	}
	return &CancelReservationResult{Reservation: dto.MapReservation(res)}, nil
}

func (h *CancelReservationHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[CancelReservationCommand, *CancelReservationResult] = (*CancelReservationHandler)(nil)
