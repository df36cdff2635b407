package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	meapp "lendr/internal/app/handlers/me"
	appoutbox "lendr/internal/app/outbox"
	domainavailability "lendr/internal/domain/availability"
	domainlistings "lendr/internal/domain/listings"
	domainreservation "lendr/internal/domain/reservation"
	domainrange "lendr/internal/domain/shared/daterange"
	"lendr/internal/infra/storage/memory"
)

func day(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t
}

func newFixture(t *testing.T) (*memory.Factory, domainlistings.ListingID) {
	t.Helper()
	factory := memory.NewFactory()
	listing, err := domainlistings.New(domainlistings.CreateParams{
		ID:          "listing-1",
		OwnerID:     "owner-1",
		Title:       "Cordless drill",
		PricePerDay: 1500,
		Now:         time.Now(),
	})
	if err != nil {
		t.Fatalf("fixture listing: %v", err)
	}
	if err := factory.ListingsRepo.Save(context.Background(), listing); err != nil {
		t.Fatalf("fixture save: %v", err)
	}
	return factory, listing.ID
}

func bookHandler(factory *memory.Factory) (*BookRangeHandler, *memory.Outbox) {
	box := memory.NewOutbox()
	return &BookRangeHandler{UoWFactory: factory, Outbox: box}, box
}

func TestBookRangeCommits(t *testing.T) {
	factory, listingID := newFixture(t)
	handler, box := bookHandler(factory)

	result, err := handler.Handle(context.Background(), BookRangeCommand{
		CommandID: "res-1",
		ListingID: string(listingID),
		HolderID:  "borrower-1",
		Start:     day("2026-09-10"),
		End:       day("2026-09-12"),
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if result.Reservation.ID != "res-1" {
		t.Fatalf("reservation id = %q", result.Reservation.ID)
	}
	if result.Reservation.Status != string(domainreservation.StatusConfirmed) {
		t.Fatalf("status = %q", result.Reservation.Status)
	}

	stored, err := factory.ReservRepo.ListByListing(context.Background(), listingID)
	if err != nil {
		t.Fatalf("ListByListing: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("stored reservations = %d, want 1", len(stored))
	}
	if len(box.Pending()) == 0 {
		t.Fatal("expected a pending outbox record")
	}
}

func TestBookRangeValidatesBeforeStoreAccess(t *testing.T) {
	// A nil factory would fail the moment a unit of work is requested, so
	// getting a validation error back proves the store was never touched.
	handler := &BookRangeHandler{UoWFactory: nil, Outbox: memory.NewOutbox()}

	tests := []struct {
		name string
		cmd  BookRangeCommand
		want error
	}{
		{
			name: "missing listing",
			cmd:  BookRangeCommand{CommandID: "x", HolderID: "h", Start: day("2026-09-10"), End: day("2026-09-11")},
			want: domainreservation.ErrListingRequired,
		},
		{
			name: "missing holder",
			cmd:  BookRangeCommand{CommandID: "x", ListingID: "l", Start: day("2026-09-10"), End: day("2026-09-11")},
			want: domainreservation.ErrHolderRequired,
		},
		{
			name: "end before start",
			cmd:  BookRangeCommand{CommandID: "x", ListingID: "l", HolderID: "h", Start: day("2026-09-11"), End: day("2026-09-10")},
			want: domainrange.ErrEndBeforeStart,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := handler.Handle(context.Background(), tt.cmd); !errors.Is(err, tt.want) {
				t.Fatalf("Handle error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestBookRangeRejectsOverlap(t *testing.T) {
	factory, listingID := newFixture(t)
	handler, _ := bookHandler(factory)

	if _, err := handler.Handle(context.Background(), BookRangeCommand{
		CommandID: "res-1",
		ListingID: string(listingID),
		HolderID:  "borrower-1",
		Start:     day("2026-09-10"),
		End:       day("2026-09-12"),
	}); err != nil {
		t.Fatalf("first booking: %v", err)
	}

	tests := []struct {
		name       string
		start, end string
		wantErr    bool
	}{
		{"identical range", "2026-09-10", "2026-09-12", true},
		{"touching end day", "2026-09-12", "2026-09-14", true},
		{"touching start day", "2026-09-08", "2026-09-10", true},
		{"contained", "2026-09-11", "2026-09-11", true},
		{"day after", "2026-09-13", "2026-09-15", false},
		{"day before", "2026-09-07", "2026-09-09", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := handler.Handle(context.Background(), BookRangeCommand{
				CommandID: "res-" + tt.name,
				ListingID: string(listingID),
				HolderID:  "borrower-2",
				Start:     day(tt.start),
				End:       day(tt.end),
			})
			if tt.wantErr {
				if !errors.Is(err, domainreservation.ErrDatesUnavailable) {
					t.Fatalf("error = %v, want ErrDatesUnavailable", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestBookRangeConflictLeavesNoTrace(t *testing.T) {
	factory, listingID := newFixture(t)
	handler, box := bookHandler(factory)
	var published []appoutbox.EventRecord
	box.Publisher = func(_ context.Context, record appoutbox.EventRecord) error {
		published = append(published, record)
		return nil
	}

	if _, err := handler.Handle(context.Background(), BookRangeCommand{
		CommandID: "res-1",
		ListingID: string(listingID),
		HolderID:  "borrower-1",
		Start:     day("2026-09-10"),
		End:       day("2026-09-12"),
	}); err != nil {
		t.Fatalf("first booking: %v", err)
	}
	// The flush middleware would run here after the successful command.
	if err := box.Flush(context.Background()); err != nil {
		t.Fatalf("flush after first booking: %v", err)
	}
	before := len(published)

	if _, err := handler.Handle(context.Background(), BookRangeCommand{
		CommandID: "res-2",
		ListingID: string(listingID),
		HolderID:  "borrower-2",
		Start:     day("2026-09-11"),
		End:       day("2026-09-13"),
	}); !errors.Is(err, domainreservation.ErrDatesUnavailable) {
		t.Fatalf("error = %v, want ErrDatesUnavailable", err)
	}

	stored, err := factory.ReservRepo.ListByListing(context.Background(), listingID)
	if err != nil {
		t.Fatalf("ListByListing: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("stored reservations = %d, want 1 after rejected attempt", len(stored))
	}

	// The rejection is published right away rather than waiting for the next
	// successful command to flush it, and no confirmation leaks out.
	added := published[before:]
	if len(added) == 0 {
		t.Fatal("conflict record was not published")
	}
	for _, record := range added {
		if record.Name != "reservation.conflict_rejected" {
			t.Fatalf("unexpected record %q published after rejection", record.Name)
		}
	}
	if remaining := box.Pending(); len(remaining) != 0 {
		t.Fatalf("records left pending after rejection: %+v", remaining)
	}
}

func TestBookRangeUnknownListing(t *testing.T) {
	factory, _ := newFixture(t)
	handler, _ := bookHandler(factory)

	_, err := handler.Handle(context.Background(), BookRangeCommand{
		CommandID: "res-1",
		ListingID: "no-such-listing",
		HolderID:  "borrower-1",
		Start:     day("2026-09-10"),
		End:       day("2026-09-12"),
	})
	if !errors.Is(err, domainlistings.ErrNotFound) {
		t.Fatalf("error = %v, want listings.ErrNotFound", err)
	}
}

func TestBookRangeConcurrentAtMostOneWinner(t *testing.T) {
	factory, listingID := newFixture(t)
	handler, _ := bookHandler(factory)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = handler.Handle(context.Background(), BookRangeCommand{
				CommandID: "res-" + string(rune('a'+i)),
				ListingID: string(listingID),
				HolderID:  "borrower",
				Start:     day("2026-09-10"),
				End:       day("2026-09-12"),
			})
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, domainreservation.ErrDatesUnavailable):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if winners != 1 {
		t.Fatalf("winners = %d, want exactly 1", winners)
	}

	stored, err := factory.ReservRepo.ListByListing(context.Background(), listingID)
	if err != nil {
		t.Fatalf("ListByListing: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("stored reservations = %d, want 1", len(stored))
	}
}

func TestCancelFreesRange(t *testing.T) {
	factory, listingID := newFixture(t)
	handler, _ := bookHandler(factory)
	cancel := &CancelReservationHandler{UoWFactory: factory, Outbox: memory.NewOutbox()}

	if _, err := handler.Handle(context.Background(), BookRangeCommand{
		CommandID: "res-1",
		ListingID: string(listingID),
		HolderID:  "borrower-1",
		Start:     day("2026-09-10"),
		End:       day("2026-09-12"),
	}); err != nil {
		t.Fatalf("booking: %v", err)
	}

	if _, err := cancel.Handle(context.Background(), CancelReservationCommand{
		ReservationID: "res-1",
		RequestedBy:   "borrower-1",
	}); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	// The same range books again immediately.
	if _, err := handler.Handle(context.Background(), BookRangeCommand{
		CommandID: "res-2",
		ListingID: string(listingID),
		HolderID:  "borrower-2",
		Start:     day("2026-09-10"),
		End:       day("2026-09-12"),
	}); err != nil {
		t.Fatalf("rebooking after cancel: %v", err)
	}
}

func TestCancelAuthorization(t *testing.T) {
	factory, listingID := newFixture(t)
	handler, _ := bookHandler(factory)
	cancel := &CancelReservationHandler{UoWFactory: factory, Outbox: memory.NewOutbox()}

	if _, err := handler.Handle(context.Background(), BookRangeCommand{
		CommandID: "res-1",
		ListingID: string(listingID),
		HolderID:  "borrower-1",
		Start:     day("2026-09-10"),
		End:       day("2026-09-12"),
	}); err != nil {
		t.Fatalf("booking: %v", err)
	}

	if _, err := cancel.Handle(context.Background(), CancelReservationCommand{
		ReservationID: "res-1",
		RequestedBy:   "someone-else",
	}); !errors.Is(err, domainreservation.ErrNotHolder) {
		t.Fatalf("error = %v, want ErrNotHolder", err)
	}

	if _, err := cancel.Handle(context.Background(), CancelReservationCommand{
		ReservationID: "res-1",
		RequestedBy:   "borrower-1",
	}); err != nil {
		t.Fatalf("holder cancel: %v", err)
	}

	if _, err := cancel.Handle(context.Background(), CancelReservationCommand{
		ReservationID: "res-1",
		RequestedBy:   "borrower-1",
	}); !errors.Is(err, domainreservation.ErrAlreadyCancelled) {
		t.Fatalf("error = %v, want ErrAlreadyCancelled", err)
	}
}

func TestBlockRangeRequiresOwner(t *testing.T) {
	factory, listingID := newFixture(t)
	handler, _ := bookHandler(factory)
	block := &BlockRangeHandler{Book: handler}

	if _, err := block.Handle(context.Background(), BlockRangeCommand{
		CommandID: "blk-1",
		ListingID: string(listingID),
		OwnerID:   "not-the-owner",
		Start:     day("2026-09-10"),
		End:       day("2026-09-12"),
	}); !errors.Is(err, domainlistings.ErrNotOwner) {
		t.Fatalf("error = %v, want ErrNotOwner", err)
	}
}

func TestBlockRangeBlocksBorrowers(t *testing.T) {
	factory, listingID := newFixture(t)
	handler, _ := bookHandler(factory)
	block := &BlockRangeHandler{Book: handler}

	result, err := block.Handle(context.Background(), BlockRangeCommand{
		CommandID: "blk-1",
		ListingID: string(listingID),
		OwnerID:   "owner-1",
		Start:     day("2026-09-10"),
		End:       day("2026-09-12"),
	})
	if err != nil {
		t.Fatalf("block: %v", err)
	}
	if result.Reservation.HolderID != "owner-1" {
		t.Fatalf("block holder = %q, want owner-1", result.Reservation.HolderID)
	}

	if _, err := handler.Handle(context.Background(), BookRangeCommand{
		CommandID: "res-1",
		ListingID: string(listingID),
		HolderID:  "borrower-1",
		Start:     day("2026-09-11"),
		End:       day("2026-09-13"),
	}); !errors.Is(err, domainreservation.ErrDatesUnavailable) {
		t.Fatalf("error = %v, want ErrDatesUnavailable", err)
	}
}

func TestBlockRangeAdvisoryDraftCheck(t *testing.T) {
	factory, listingID := newFixture(t)
	handler, _ := bookHandler(factory)
	block := &BlockRangeHandler{Book: handler}

	draft := domainavailability.NewDraftBlockSet()
	dr, err := domainrange.New(day("2026-09-10"), day("2026-09-12"))
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if err := draft.Add(dr); err != nil {
		t.Fatalf("draft add: %v", err)
	}

	if _, err := block.Handle(context.Background(), BlockRangeCommand{
		CommandID: "blk-1",
		ListingID: string(listingID),
		OwnerID:   "owner-1",
		Start:     day("2026-09-11"),
		End:       day("2026-09-13"),
		Draft:     draft,
	}); !errors.Is(err, domainavailability.ErrDraftOverlap) {
		t.Fatalf("error = %v, want ErrDraftOverlap", err)
	}
}

func TestOwnerBlocksAppearInHolderList(t *testing.T) {
	factory, listingID := newFixture(t)
	handler, _ := bookHandler(factory)
	block := &BlockRangeHandler{Book: handler}

	if _, err := block.Handle(context.Background(), BlockRangeCommand{
		CommandID: "blk-1",
		ListingID: string(listingID),
		OwnerID:   "owner-1",
		Start:     day("2026-09-10"),
		End:       day("2026-09-12"),
	}); err != nil {
		t.Fatalf("block: %v", err)
	}

	mine := &meapp.MyReservationsHandler{UoWFactory: factory}
	result, err := mine.Handle(context.Background(), meapp.MyReservationsQuery{HolderID: "owner-1"})
	if err != nil {
		t.Fatalf("my reservations: %v", err)
	}
	if len(result.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(result.Items))
	}
	if result.Items[0].ListingTitle != "Cordless drill" {
		t.Fatalf("listing title = %q", result.Items[0].ListingTitle)
	}
}
