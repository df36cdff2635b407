package availability

import (
	"context"
	"time"

	"lendr/internal/app/dto"
	"lendr/internal/app/queries"
	"lendr/internal/app/uow"
	domainavailability "lendr/internal/domain/availability"
	domainlistings "lendr/internal/domain/listings"
	domainrange "lendr/internal/domain/shared/daterange"
)

const calendarMarksKey = "availability.calendar_marks"

type CalendarMarksQuery struct {
	ListingID string
	// Optional current selection; zero times mean no selection overlay.
	SelectionStart time.Time
	SelectionEnd   time.Time
}

func (q CalendarMarksQuery) Key() string { return calendarMarksKey }

// CalendarMarksHandler projects the listing's unavailable cover into
// day-keyed marks and overlays the caller's in-progress selection, selection
// winning on contested days.
type CalendarMarksHandler struct {
	UoWFactory uow.Factory
}

func (h *CalendarMarksHandler) Handle(ctx context.Context, q CalendarMarksQuery) (dto.CalendarMarks, error) {
	ranges, err := unavailableRanges(ctx, h.UoWFactory, domainlistings.ListingID(q.ListingID))
	if err != nil {
		return dto.CalendarMarks{}, err
	}
	marks := domainavailability.UnavailableMarks(domainrange.Merge(ranges))
	if !q.SelectionStart.IsZero() && !q.SelectionEnd.IsZero() {
		selection, err := domainrange.New(q.SelectionStart, q.SelectionEnd)
		if err != nil {
			return dto.CalendarMarks{}, err
		}
		marks = domainavailability.MergeMarks(marks, domainavailability.SelectionMarks(selection))
	}
	return dto.CalendarMarks{ListingID: q.ListingID, Marks: marks}, nil
}

var _ queries.Handler[CalendarMarksQuery, dto.CalendarMarks] = (*CalendarMarksHandler)(nil)
