package ginserver

import (
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"lendr/internal/app/commands"
	bookingapp "lendr/internal/app/handlers/booking"
	domainreservation "lendr/internal/domain/reservation"
	"lendr/internal/infra/obs"
)

type BookingHandler struct {
	Commands commands.Bus
	Metrics  *obs.Metrics
}

type createReservationRequest struct {
	ListingID string `json:"listing_id"`
	Start     string `json:"start"`
	End       string `json:"end"`
}

func (h BookingHandler) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req createReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	start, err := parseDay(req.Start)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start must be YYYY-MM-DD"})
		return
	}
	end, err := parseDay(req.End)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end must be YYYY-MM-DD"})
		return
	}
	cmd := bookingapp.BookRangeCommand{
		CommandID:       generateCommandID(),
		ListingID:       req.ListingID,
		HolderID:        user,
		Start:           start,
		End:             end,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[bookingapp.BookRangeCommand, *bookingapp.BookRangeResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.countFailure(err)
		respondError(c, err)
		return
	}
	if h.Metrics != nil {
		h.Metrics.ReservationsConfirmed.Inc()
	}
	c.JSON(http.StatusCreated, result)
}

func (h BookingHandler) Cancel(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	cmd := bookingapp.CancelReservationCommand{
		ReservationID: c.Param("id"),
		RequestedBy:   user,
	}
	result, err := commands.Dispatch[bookingapp.CancelReservationCommand, *bookingapp.CancelReservationResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	if h.Metrics != nil {
		h.Metrics.ReservationsCancelled.Inc()
	}
	c.JSON(http.StatusOK, result)
}

type blockRangeRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func (h BookingHandler) Block(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req blockRangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	start, err := parseDay(req.Start)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start must be YYYY-MM-DD"})
		return
	}
	end, err := parseDay(req.End)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end must be YYYY-MM-DD"})
		return
	}
	cmd := bookingapp.BlockRangeCommand{
		CommandID:       generateCommandID(),
		ListingID:       c.Param("id"),
		OwnerID:         user,
		Start:           start,
		End:             end,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[bookingapp.BlockRangeCommand, *bookingapp.BookRangeResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.countFailure(err)
		respondError(c, err)
		return
	}
	if h.Metrics != nil {
		h.Metrics.ReservationsConfirmed.Inc()
	}
	c.JSON(http.StatusCreated, result)
}

func (h BookingHandler) countFailure(err error) {
	if h.Metrics != nil && errors.Is(err, domainreservation.ErrDatesUnavailable) {
		h.Metrics.BookingConflicts.Inc()
	}
}

func generateCommandID() string {
	return uuid.NewString()
}

var _ BookingHTTP = BookingHandler{}
