package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"lendr/internal/app/dto"
	meapp "lendr/internal/app/handlers/me"
	"lendr/internal/app/queries"
)

type MeHandler struct {
	Queries queries.Bus
}

func (h MeHandler) ListReservations(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	q := meapp.MyReservationsQuery{HolderID: user}
	result, err := queries.Ask[meapp.MyReservationsQuery, dto.HolderReservationCollection](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ MeHTTP = MeHandler{}
