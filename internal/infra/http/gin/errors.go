package ginserver

import (
	"errors"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	domainavailability "lendr/internal/domain/availability"
	domainlistings "lendr/internal/domain/listings"
	domainreservation "lendr/internal/domain/reservation"
	domainrange "lendr/internal/domain/shared/daterange"
)

// respondError maps domain errors onto HTTP statuses. The three booking
// failure classes get distinct codes so clients can tell a retryable store
// outage from a lost race and from bad input.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domainrange.ErrEndBeforeStart),
		errors.Is(err, domainreservation.ErrHolderRequired),
		errors.Is(err, domainreservation.ErrListingRequired),
		errors.Is(err, domainlistings.ErrTitleRequired),
		errors.Is(err, domainlistings.ErrOwnerRequired),
		errors.Is(err, domainlistings.ErrNegativePrice),
		errors.Is(err, domainavailability.ErrDraftIndex):
		status = http.StatusBadRequest
	case errors.Is(err, domainreservation.ErrDatesUnavailable),
		errors.Is(err, domainavailability.ErrDraftOverlap),
		errors.Is(err, domainreservation.ErrAlreadyCancelled):
		status = http.StatusConflict
	case errors.Is(err, domainreservation.ErrNotFound),
		errors.Is(err, domainlistings.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domainlistings.ErrNotOwner),
		errors.Is(err, domainreservation.ErrNotHolder):
		status = http.StatusForbidden
	case errors.Is(err, domainreservation.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

const dayLayout = "2006-01-02"

// parseDay reads a YYYY-MM-DD value; the domain truncates to UTC days, so
// the transport refuses anything finer-grained.
func parseDay(value string) (time.Time, error) {
	return time.Parse(dayLayout, value)
}
