package listings

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"lendr/internal/app/commands"
	"lendr/internal/app/dto"
	bookingapp "lendr/internal/app/handlers/booking"
	"lendr/internal/app/uow"
	domainavailability "lendr/internal/domain/availability"
	domainlistings "lendr/internal/domain/listings"
	domainrange "lendr/internal/domain/shared/daterange"
)

const (
	createListingKey = "listings.create"
	updateListingKey = "listings.update"
	attachPhotoKey   = "listings.attach_photo"
)

type ListingPayload struct {
	Title          string
	Description    string
	PricePerDay    int64
	DepositCents   int64
	Photos         []string
	CategoryID     string
	CategoryLabel  string
	LocationText   string
	Delivery       string
	ConditionNotes string
	Specs          string
}

// BlockRange carries a raw draft block from the wizard; validation and
// normalization happen in the domain.
type BlockRange struct {
	Start time.Time
	End   time.Time
}

type CreateListingCommand struct {
	OwnerID string
	Payload ListingPayload
	// Blocks are the wizard's accumulated draft blocks; each becomes an
	// owner reservation once the listing exists.
	Blocks []BlockRange
}

func (c CreateListingCommand) Key() string { return createListingKey }

// CreateListingHandler publishes a wizard draft: it stores the listing and
// then commits every draft block through the booking transaction with the
// owner as holder.
type CreateListingHandler struct {
	UoWFactory uow.Factory
	Book       *bookingapp.BookRangeHandler
	Logger     *slog.Logger
}

func (h *CreateListingHandler) Handle(ctx context.Context, cmd CreateListingCommand) (*dto.Listing, error) {
	unit, ok := uow.FromContext(ctx)
	managed := false
	if !ok {
		if h.UoWFactory == nil {
			return nil, uow.ErrUnitOfWorkMissing
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return nil, err
		}
		ctx = uow.BindContext(ctx, unit)
		managed = true
	}
	committed := false
	if managed {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	// Re-apply the wizard's draft invariant before touching the store:
	// blocks must not overlap or touch each other.
	draft := domainavailability.NewDraftBlockSet()
	for _, b := range cmd.Blocks {
		dr, err := domainrange.New(b.Start, b.End)
		if err != nil {
			return nil, err
		}
		if err := draft.Add(dr); err != nil {
			return nil, err
		}
	}

	listing, err := domainlistings.New(domainlistings.CreateParams{
		ID:             domainlistings.ListingID(uuid.NewString()),
		OwnerID:        domainlistings.OwnerID(cmd.OwnerID),
		Title:          cmd.Payload.Title,
		Description:    cmd.Payload.Description,
		PricePerDay:    cmd.Payload.PricePerDay,
		DepositCents:   cmd.Payload.DepositCents,
		Photos:         cmd.Payload.Photos,
		CategoryID:     cmd.Payload.CategoryID,
		CategoryLabel:  cmd.Payload.CategoryLabel,
		LocationText:   cmd.Payload.LocationText,
		Delivery:       cmd.Payload.Delivery,
		ConditionNotes: cmd.Payload.ConditionNotes,
		Specs:          cmd.Payload.Specs,
		Now:            time.Now(),
	})
	if err != nil {
		return nil, err
	}
	if err := unit.Listings().Save(ctx, listing); err != nil {
		return nil, err
	}

	if h.Book != nil {
		for _, dr := range draft.Ranges() {
			if _, err := h.Book.Handle(ctx, bookingapp.BookRangeCommand{
				CommandID: uuid.NewString(),
				ListingID: string(listing.ID),
				HolderID:  cmd.OwnerID,
				Start:     dr.Start,
				End:       dr.End,
			}); err != nil {
				return nil, err
			}
		}
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}

	if h.Logger != nil {
		h.Logger.Info("listing created", "listing_id", listing.ID, "owner_id", cmd.OwnerID, "blocks", draft.Len())
	}
	result := dto.MapListing(listing)
	return &result, nil
}

type UpdateListingCommand struct {
	OwnerID   string
	ListingID string
	Patch     domainlistings.Patch
}

func (c UpdateListingCommand) Key() string { return updateListingKey }

type UpdateListingHandler struct {
	UoWFactory uow.Factory
	Logger     *slog.Logger
}

func (h *UpdateListingHandler) Handle(ctx context.Context, cmd UpdateListingCommand) (*dto.Listing, error) {
	unit, ok := uow.FromContext(ctx)
	managed := false
	if !ok {
		if h.UoWFactory == nil {
			return nil, uow.ErrUnitOfWorkMissing
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return nil, err
		}
		ctx = uow.BindContext(ctx, unit)
		managed = true
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
	if err := listing.Apply(cmd.Patch, time.Now()); err != nil {
		return nil, err
	}
	if err := unit.Listings().Save(ctx, listing); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}
	result := dto.MapListing(listing)
	return &result, nil
}

type AttachPhotoCommand struct {
	OwnerID   string
	ListingID string
	URL       string
}

func (c AttachPhotoCommand) Key() string { return attachPhotoKey }

type AttachPhotoHandler struct {
	UoWFactory uow.Factory
}

func (h *AttachPhotoHandler) Handle(ctx context.Context, cmd AttachPhotoCommand) (*dto.Listing, error) {
	unit, ok := uow.FromContext(ctx)
	managed := false
	if !ok {
		if h.UoWFactory == nil {
			return nil, uow.ErrUnitOfWorkMissing
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return nil, err
		}
		ctx = uow.BindContext(ctx, unit)
		managed = true
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
	listing.AddPhoto(cmd.URL, time.Now())
	if err := unit.Listings().Save(ctx, listing); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}
	result := dto.MapListing(listing)
	return &result, nil
}

var _ commands.Handler[CreateListingCommand, *dto.Listing] = (*CreateListingHandler)(nil)
var _ commands.Handler[UpdateListingCommand, *dto.Listing] = (*UpdateListingHandler)(nil)
var _ commands.Handler[AttachPhotoCommand, *dto.Listing] = (*AttachPhotoHandler)(nil)
