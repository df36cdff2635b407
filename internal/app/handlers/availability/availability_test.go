package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	bookingapp "lendr/internal/app/handlers/booking"
	"lendr/internal/app/uow"
	domainavailability "lendr/internal/domain/availability"
	domainlistings "lendr/internal/domain/listings"
	domainreservation "lendr/internal/domain/reservation"
	"lendr/internal/infra/storage/memory"
)

func day(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t
}

func seed(t *testing.T, ranges ...[2]string) *memory.Factory {
	t.Helper()
	factory := memory.NewFactory()
	listing, err := domainlistings.New(domainlistings.CreateParams{
		ID:          "listing-1",
		OwnerID:     "owner-1",
		Title:       "Pressure washer",
		PricePerDay: 900,
		Now:         time.Now(),
	})
	if err != nil {
		t.Fatalf("fixture listing: %v", err)
	}
	if err := factory.ListingsRepo.Save(context.Background(), listing); err != nil {
		t.Fatalf("fixture save: %v", err)
	}

	book := &bookingapp.BookRangeHandler{UoWFactory: factory, Outbox: memory.NewOutbox()}
	for i, r := range ranges {
		if _, err := book.Handle(context.Background(), bookingapp.BookRangeCommand{
			CommandID: "res-" + string(rune('a'+i)),
			ListingID: "listing-1",
			HolderID:  "borrower",
			Start:     day(r[0]),
			End:       day(r[1]),
		}); err != nil {
			t.Fatalf("seed booking %d: %v", i, err)
		}
	}
	return factory
}

func TestUnavailableRangesMerged(t *testing.T) {
	factory := seed(t,
		[2]string{"2026-09-01", "2026-09-03"},
		[2]string{"2026-09-04", "2026-09-05"}, // adjacent, merges
		[2]string{"2026-09-10", "2026-09-11"},
	)
	handler := &UnavailableRangesHandler{UoWFactory: factory}

	raw, err := handler.Handle(context.Background(), UnavailableRangesQuery{ListingID: "listing-1"})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(raw.Ranges) != 3 {
		t.Fatalf("raw ranges = %d, want 3", len(raw.Ranges))
	}

	merged, err := handler.Handle(context.Background(), UnavailableRangesQuery{ListingID: "listing-1", Merged: true})
	if err != nil {
		t.Fatalf("Handle merged: %v", err)
	}
	if len(merged.Ranges) != 2 {
		t.Fatalf("merged ranges = %d, want 2", len(merged.Ranges))
	}
	if !merged.Ranges[0].Start.Equal(day("2026-09-01")) || !merged.Ranges[0].End.Equal(day("2026-09-05")) {
		t.Fatalf("merged first range = %v..%v", merged.Ranges[0].Start, merged.Ranges[0].End)
	}
}

func TestUnavailableRangesSkipCancelled(t *testing.T) {
	factory := seed(t, [2]string{"2026-09-01", "2026-09-03"})
	cancel := &bookingapp.CancelReservationHandler{UoWFactory: factory, Outbox: memory.NewOutbox()}
	if _, err := cancel.Handle(context.Background(), bookingapp.CancelReservationCommand{
		ReservationID: "res-a",
		RequestedBy:   "borrower",
	}); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	handler := &UnavailableRangesHandler{UoWFactory: factory}
	result, err := handler.Handle(context.Background(), UnavailableRangesQuery{ListingID: "listing-1"})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(result.Ranges) != 0 {
		t.Fatalf("ranges = %d, want 0 after cancellation", len(result.Ranges))
	}
}

func TestIsRangeFree(t *testing.T) {
	factory := seed(t, [2]string{"2026-09-10", "2026-09-12"})
	handler := &IsRangeFreeHandler{UoWFactory: factory}

	tests := []struct {
		name       string
		start, end string
		free       bool
	}{
		{"identical", "2026-09-10", "2026-09-12", false},
		{"touching end", "2026-09-12", "2026-09-14", false},
		{"touching start", "2026-09-08", "2026-09-10", false},
		{"day after", "2026-09-13", "2026-09-15", true},
		{"day before", "2026-09-07", "2026-09-09", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := handler.Handle(context.Background(), IsRangeFreeQuery{
				ListingID: "listing-1",
				Start:     day(tt.start),
				End:       day(tt.end),
			})
			if err != nil {
				t.Fatalf("Handle: %v", err)
			}
			if result.Free != tt.free {
				t.Fatalf("Free = %v, want %v", result.Free, tt.free)
			}
		})
	}
}

func TestCalendarMarks(t *testing.T) {
	factory := seed(t, [2]string{"2026-09-10", "2026-09-12"})
	handler := &CalendarMarksHandler{UoWFactory: factory}

	result, err := handler.Handle(context.Background(), CalendarMarksQuery{ListingID: "listing-1"})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(result.Marks) != 3 {
		t.Fatalf("marks = %d, want 3", len(result.Marks))
	}
	first := result.Marks["2026-09-10"]
	if first.Kind != domainavailability.MarkUnavailable || !first.RangeStart || first.RangeEnd {
		t.Fatalf("start mark = %+v", first)
	}
	last := result.Marks["2026-09-12"]
	if !last.RangeEnd || last.RangeStart {
		t.Fatalf("end mark = %+v", last)
	}
}

func TestCalendarMarksSelectionWins(t *testing.T) {
	factory := seed(t, [2]string{"2026-09-10", "2026-09-12"})
	handler := &CalendarMarksHandler{UoWFactory: factory}

	result, err := handler.Handle(context.Background(), CalendarMarksQuery{
		ListingID:      "listing-1",
		SelectionStart: day("2026-09-12"),
		SelectionEnd:   day("2026-09-14"),
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	contested := result.Marks["2026-09-12"]
	if contested.Kind != domainavailability.MarkSelected {
		t.Fatalf("contested day kind = %v, want selection to win", contested.Kind)
	}
	if len(result.Marks) != 5 {
		t.Fatalf("marks = %d, want 5", len(result.Marks))
	}
}

// The memory factory ignores InjectContext, but a session-backed store does
// not: reads made outside the injected context run outside the transaction.
// The guarded fakes below make the read helper fail if it skips the binding.

type readSessionKey struct{}

type readSessionFactory struct {
	inner *memory.Factory
}

func (f *readSessionFactory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	unit, err := f.inner.Begin(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &readSessionUnit{UnitOfWork: unit}, nil
}

type readSessionUnit struct {
	uow.UnitOfWork
}

func (u *readSessionUnit) InjectContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, readSessionKey{}, true)
}

func (u *readSessionUnit) Reservations() domainreservation.Repository {
	return guardedReservations{u.UnitOfWork.Reservations()}
}

type guardedReservations struct {
	domainreservation.Repository
}

func (r guardedReservations) ListByListing(ctx context.Context, id domainlistings.ListingID) ([]*domainreservation.Reservation, error) {
	if bound, _ := ctx.Value(readSessionKey{}).(bool); !bound {
		return nil, errors.New("read outside the unit's session")
	}
	return r.Repository.ListByListing(ctx, id)
}

func TestUnavailableRangesBindsSession(t *testing.T) {
	inner := seed(t, [2]string{"2026-09-01", "2026-09-03"})
	handler := &UnavailableRangesHandler{UoWFactory: &readSessionFactory{inner: inner}}

	result, err := handler.Handle(context.Background(), UnavailableRangesQuery{ListingID: "listing-1"})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(result.Ranges) != 1 {
		t.Fatalf("ranges = %d, want 1", len(result.Ranges))
	}
}

var _ uow.Factory = (*readSessionFactory)(nil)
