package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"lendr/internal/app/commands"
	"lendr/internal/app/dto"
	listingsapp "lendr/internal/app/handlers/listings"
	"lendr/internal/app/queries"
	domainlistings "lendr/internal/domain/listings"
	"lendr/internal/infra/obs"
	"lendr/internal/infra/storage/s3"
)

type ListingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Photos   s3.PhotoStore
	Metrics  *obs.Metrics
}

type listingPayloadRequest struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	PricePerDay    int64    `json:"price_per_day"`
	DepositCents   int64    `json:"deposit_cents"`
	Photos         []string `json:"photos"`
	CategoryID     string   `json:"category_id"`
	CategoryLabel  string   `json:"category_label"`
	LocationText   string   `json:"location_text"`
	Delivery       string   `json:"delivery"`
	ConditionNotes string   `json:"condition_notes"`
	Specs          string   `json:"specs"`
}

type blockRangeSpec struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type createListingRequest struct {
	listingPayloadRequest
	Blocks []blockRangeSpec `json:"blocks"`
}

func (h ListingHandler) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req createListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := listingsapp.CreateListingCommand{
		OwnerID: user,
		Payload: listingsapp.ListingPayload{
			Title:          req.Title,
			Description:    req.Description,
			PricePerDay:    req.PricePerDay,
			DepositCents:   req.DepositCents,
			Photos:         req.Photos,
			CategoryID:     req.CategoryID,
			CategoryLabel:  req.CategoryLabel,
			LocationText:   req.LocationText,
			Delivery:       req.Delivery,
			ConditionNotes: req.ConditionNotes,
			Specs:          req.Specs,
		},
	}
	for _, b := range req.Blocks {
		start, err := parseDay(b.Start)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "block start must be YYYY-MM-DD"})
			return
		}
		end, err := parseDay(b.End)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "block end must be YYYY-MM-DD"})
			return
		}
		cmd.Blocks = append(cmd.Blocks, listingsapp.BlockRange{Start: start, End: end})
	}
	result, err := commands.Dispatch[listingsapp.CreateListingCommand, *dto.Listing](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	if h.Metrics != nil {
		h.Metrics.ListingsCreated.Inc()
	}
	c.JSON(http.StatusCreated, result)
}

type updateListingRequest struct {
	Title          *string  `json:"title"`
	Description    *string  `json:"description"`
	PricePerDay    *int64   `json:"price_per_day"`
	DepositCents   *int64   `json:"deposit_cents"`
	Photos         []string `json:"photos"`
	CategoryID     *string  `json:"category_id"`
	CategoryLabel  *string  `json:"category_label"`
	LocationText   *string  `json:"location_text"`
	Delivery       *string  `json:"delivery"`
	ConditionNotes *string  `json:"condition_notes"`
	Specs          *string  `json:"specs"`
}

func (h ListingHandler) Update(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req updateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := listingsapp.UpdateListingCommand{
		OwnerID:   user,
		ListingID: c.Param("id"),
		Patch: domainlistings.Patch{
			Title:          req.Title,
			Description:    req.Description,
			PricePerDay:    req.PricePerDay,
			DepositCents:   req.DepositCents,
			Photos:         req.Photos,
			CategoryID:     req.CategoryID,
			CategoryLabel:  req.CategoryLabel,
			LocationText:   req.LocationText,
			Delivery:       req.Delivery,
			ConditionNotes: req.ConditionNotes,
			Specs:          req.Specs,
		},
	}
	result, err := commands.Dispatch[listingsapp.UpdateListingCommand, *dto.Listing](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) Get(c *gin.Context) {
	q := listingsapp.GetListingQuery{ListingID: c.Param("id")}
	result, err := queries.Ask[listingsapp.GetListingQuery, dto.Listing](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) Catalog(c *gin.Context) {
	result, err := queries.Ask[listingsapp.CatalogQuery, dto.ListingCollection](c.Request.Context(), h.Queries, listingsapp.CatalogQuery{})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) Mine(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	q := listingsapp.MyListingsQuery{OwnerID: user}
	result, err := queries.Ask[listingsapp.MyListingsQuery, dto.ListingCollection](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// UploadPhoto streams a multipart file to object storage and attaches the
// resulting public URL to the listing.
func (h ListingHandler) UploadPhoto(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	if h.Photos == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "photo storage unavailable"})
		return
	}
	file, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo file is required"})
		return
	}
	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer src.Close()

	listingID := c.Param("id")
	url, err := h.Photos.UploadListingPhoto(c.Request.Context(), listingID, file.Filename, src, file.Header.Get("Content-Type"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	cmd := listingsapp.AttachPhotoCommand{
		OwnerID:   user,
		ListingID: listingID,
		URL:       url,
	}
	result, err := commands.Dispatch[listingsapp.AttachPhotoCommand, *dto.Listing](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

var _ ListingHTTP = ListingHandler{}
