package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lendr/internal/infra/config"
	"lendr/internal/infra/obs"
)

type BookingHTTP interface {
	Create(c *gin.Context)
	Cancel(c *gin.Context)
	Block(c *gin.Context)
}

type AvailabilityHTTP interface {
	Unavailable(c *gin.Context)
	Check(c *gin.Context)
	Calendar(c *gin.Context)
}

type ListingHTTP interface {
	Catalog(c *gin.Context)
	Get(c *gin.Context)
	Create(c *gin.Context)
	Update(c *gin.Context)
	Mine(c *gin.Context)
	UploadPhoto(c *gin.Context)
}

type MeHTTP interface {
	ListReservations(c *gin.Context)
}

type Handlers struct {
	Booking      BookingHTTP
	Availability AvailabilityHTTP
	Listing      ListingHTTP
	Me           MeHTTP
	Identity     gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "X-User-ID", "Idempotency-Key"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))
	if h.Identity != nil {
		router.Use(h.Identity)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	if h.Booking != nil {
		api.POST("/reservations", h.Booking.Create)
		api.POST("/reservations/:id/cancel", h.Booking.Cancel)
		api.POST("/listings/:id/blocks", h.Booking.Block)
	}
	if h.Availability != nil {
		api.GET("/listings/:id/unavailable", h.Availability.Unavailable)
		api.GET("/listings/:id/availability", h.Availability.Check)
		api.GET("/listings/:id/calendar", h.Availability.Calendar)
	}
	if h.Listing != nil {
		api.GET("/listings", h.Listing.Catalog)
		api.POST("/listings", h.Listing.Create)
		api.GET("/listings/:id", h.Listing.Get)
		api.PATCH("/listings/:id", h.Listing.Update)
		api.POST("/listings/:id/photos", h.Listing.UploadPhoto)
		api.GET("/me/listings", h.Listing.Mine)
	}
	if h.Me != nil {
		api.GET("/me/reservations", h.Me.ListReservations)
	}

	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
