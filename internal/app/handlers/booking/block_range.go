package booking

import (
	"context"
	"errors"
	"time"

	"lendr/internal/app/commands"
	"lendr/internal/app/middleware"
	"lendr/internal/app/uow"
	domainavailability "lendr/internal/domain/availability"
	domainlistings "lendr/internal/domain/listings"
	domainrange "lendr/internal/domain/shared/daterange"
)

const blockRangeKey = "reservation.block"

var ErrBookHandlerRequired = errors.New("booking: block handler needs a book handler")

type BlockRangeCommand struct {
	CommandID       string
	ListingID       string
	OwnerID         string
	Start           time.Time
	End             time.Time
	IdempotencyKeyV string

	// Draft holds the owner's not-yet-published blocks; a cheap advisory
	// check against it rejects obviously conflicting selections before the
	// store round-trip. It may miss ranges committed by racing writers,
	// which is fine: the transactional check below stays authoritative.
	Draft *domainavailability.DraftBlockSet
}

func (c BlockRangeCommand) Key() string { return blockRangeKey }

func (c BlockRangeCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c BlockRangeCommand) ResultPrototype() any { return &BookRangeResult{} }

// BlockRangeHandler carves out owner-imposed unavailability. A block is a
// reservation whose holder is the listing owner; the write goes through the
// exact same transactional path as a borrower booking.
type BlockRangeHandler struct {
	Book *BookRangeHandler
}

func (h *BlockRangeHandler) Handle(ctx context.Context, cmd BlockRangeCommand) (*BookRangeResult, error) {
	if h.Book == nil {
		return nil, ErrBookHandlerRequired
	}
	dr, err := domainrange.New(cmd.Start, cmd.End)
	if err != nil {
		return nil, err
	}
	if cmd.Draft != nil && cmd.Draft.Conflicts(dr) {
		return nil, domainavailability.ErrDraftOverlap
	}

	unit, managed, err := resolveUnit(ctx, h.Book.UoWFactory)
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

	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(cmd.ListingID))
	if err != nil {
		return nil, err
	}
	if !listing.OwnedBy(domainlistings.OwnerID(cmd.OwnerID)) {
		return nil, domainlistings.ErrNotOwner
	}

	result, err := h.Book.Handle(ctx, BookRangeCommand{
		CommandID: cmd.CommandID,
		ListingID: cmd.ListingID,
		HolderID:  cmd.OwnerID,
		Start:     cmd.Start,
		End:       cmd.End,
	})
	if err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}
	return result, nil
}

var _ commands.Handler[BlockRangeCommand, *BookRangeResult] = (*BlockRangeHandler)(nil)
var _ middleware.IdempotentCommand = (*BlockRangeCommand)(nil)
