package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	availabilityapp "lendr/internal/app/handlers/availability"
	"lendr/internal/app/dto"
	"lendr/internal/app/queries"
)

type AvailabilityHandler struct {
	Queries queries.Bus
}

func (h AvailabilityHandler) Unavailable(c *gin.Context) {
	q := availabilityapp.UnavailableRangesQuery{
		ListingID: c.Param("id"),
		Merged:    c.Query("merged") == "true",
	}
	result, err := queries.Ask[availabilityapp.UnavailableRangesQuery, dto.UnavailableRanges](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AvailabilityHandler) Check(c *gin.Context) {
	start, err := parseDay(c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start must be YYYY-MM-DD"})
		return
	}
	end, err := parseDay(c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end must be YYYY-MM-DD"})
		return
	}
	q := availabilityapp.IsRangeFreeQuery{
		ListingID: c.Param("id"),
		Start:     start,
		End:       end,
	}
	result, err := queries.Ask[availabilityapp.IsRangeFreeQuery, dto.RangeAvailability](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AvailabilityHandler) Calendar(c *gin.Context) {
	q := availabilityapp.CalendarMarksQuery{ListingID: c.Param("id")}
	if raw := c.Query("selection_start"); raw != "" {
		start, err := parseDay(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "selection_start must be YYYY-MM-DD"})
			return
		}
		q.SelectionStart = start
	}
	if raw := c.Query("selection_end"); raw != "" {
		end, err := parseDay(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "selection_end must be YYYY-MM-DD"})
			return
		}
		q.SelectionEnd = end
	}
	result, err := queries.Ask[availabilityapp.CalendarMarksQuery, dto.CalendarMarks](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ AvailabilityHTTP = AvailabilityHandler{}
