package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/sirupsen/logrus"

	"homeradar/server/internal/database"
	"homeradar/server/internal/geocoding"
	"homeradar/server/internal/geometry"
	"homeradar/server/internal/models"
	"homeradar/server/internal/queue"
	"homeradar/server/internal/tracks"
)

// Uploaded track files larger than this are rejected outright.
const maxTrackUploadBytes = 8 << 20

type Handler struct {
	db       *database.Database
	corridor *geometry.CorridorBuilder
	enricher *geocoding.Enricher
	queue    *queue.ListingQueue
	logger   *logrus.Logger
}

func NewHandler(db *database.Database, corridor *geometry.CorridorBuilder, enricher *geocoding.Enricher, listingQueue *queue.ListingQueue, logger *logrus.Logger) *Handler {
	return &Handler{
		db:       db,
		corridor: corridor,
		enricher: enricher,
		queue:    listingQueue,
		logger:   logger,
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// IngestListings accepts a scraped listing batch and hands it to the batch
// pipeline.
func (h *Handler) IngestListings(c *gin.Context) {
	var batch []*models.Listing
	if err := c.ShouldBindJSON(&batch); err != nil {
		h.logger.WithError(err).Error("Failed to parse listings batch")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listings payload"})
		return
	}
	if len(batch) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Empty listings batch"})
		return
	}
	for _, listing := range batch {
		if listing.ExternalID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Every listing needs an external_id"})
			return
		}
	}

	if err := h.queue.Push(batch); err != nil {
		h.logger.WithError(err).Error("Failed to enqueue listings batch")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Ingestion queue unavailable"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"queued": len(batch)})
}

func (h *Handler) GetListings(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))

	listings, err := h.db.GetListings(c.Query("status"), c.Query("city"), page, pageSize)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get listings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get listings"})
		return
	}

	c.JSON(http.StatusOK, listings)
}

type coordinateOverrideRequest struct {
	Latitude  float64 `json:"latitude" binding:"required"`
	Longitude float64 `json:"longitude" binding:"required"`
}

// SetListingCoordinates applies a manual coordinate override. Manual
// overrides are never touched by the enrichment pipeline afterwards.
func (h *Handler) SetListingCoordinates(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listing id"})
		return
	}

	var req coordinateOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "latitude and longitude are required"})
		return
	}
	if req.Latitude < -90 || req.Latitude > 90 || req.Longitude < -180 || req.Longitude > 180 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Coordinates out of range"})
		return
	}

	err = h.db.SetListingCoordinates(id, req.Latitude, req.Longitude, models.GeocodeSourceManual)
	if errors.Is(err, database.ErrListingNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to set listing coordinates")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update coordinates"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

// GetAllPoints returns every geocoded listing as a GeoJSON feature
// collection for map rendering. The query is hard-capped.
func (h *Handler) GetAllPoints(c *gin.Context) {
	points, err := h.db.GetAllPoints()
	if err != nil {
		h.logger.WithError(err).Error("Failed to get listing points")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get listing points"})
		return
	}

	fc := geojson.NewFeatureCollection()
	for _, p := range points {
		feature := geojson.NewFeature(orb.Point{p.Longitude, p.Latitude})
		feature.Properties = geojson.Properties{
			"id":            p.ID,
			"title":         p.Title,
			"price":         p.Price,
			"property_type": p.PropertyType,
			"offer_type":    p.OfferType,
			"thumbnail_url": p.ThumbnailURL,
		}
		fc.Append(feature)
	}

	c.JSON(http.StatusOK, fc)
}

// SearchInArea runs a proximity search with a polygon or bbox predicate.
func (h *Handler) SearchInArea(c *gin.Context) {
	var req models.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid search request"})
		return
	}

	results, err := h.db.SearchInArea(req.SearchFilter, req.Page, req.PageSize)
	if models.IsValidation(err) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Search failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}

// BuildCorridor builds a buffered corridor between two places and counts
// the listings inside it.
func (h *Handler) BuildCorridor(c *gin.Context) {
	var req models.CorridorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start, end and buffer_m are required"})
		return
	}

	result, err := h.corridor.BuildCorridorBetween(c.Request.Context(), req)
	if err != nil {
		h.respondCorridorError(c, err)
		return
	}

	if req.SaveAs != "" {
		buffer := result.BufferMeters
		id, err := h.db.SaveArea(models.SavedArea{
			Name:         req.SaveAs,
			AreaType:     models.AreaTypeCorridor,
			Geometry:     result.PolygonWKT,
			StartLabel:   req.Start,
			EndLabel:     req.End,
			BufferMeters: &buffer,
		})
		if err != nil {
			h.logger.WithError(err).Error("Failed to save corridor area")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Corridor built but saving the area failed"})
			return
		}
		result.SavedAreaID = &id
	}

	c.JSON(http.StatusOK, result)
}

// BuildCorridorFromTrack builds a corridor around an uploaded GPS track.
func (h *Handler) BuildCorridorFromTrack(c *gin.Context) {
	fileHeader, err := c.FormFile("track")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A track file is required"})
		return
	}
	if fileHeader.Size > maxTrackUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Track file too large"})
		return
	}

	bufferMeters, err := strconv.ParseFloat(c.PostForm("buffer_m"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "buffer_m is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read track file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read track file"})
		return
	}

	line, _, _, err := tracks.ParseTrack(data)
	if errors.Is(err, tracks.ErrDegenerateTrack) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Track has fewer than two points"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Not a recognizable track file"})
		return
	}

	result, err := h.corridor.BuildCorridorFromLine(c.Request.Context(), line, bufferMeters)
	if err != nil {
		h.respondCorridorError(c, err)
		return
	}

	if saveAs := c.PostForm("save_as"); saveAs != "" {
		buffer := result.BufferMeters
		id, err := h.db.SaveArea(models.SavedArea{
			Name:         saveAs,
			AreaType:     models.AreaTypeTrackCorridor,
			Geometry:     result.PolygonWKT,
			BufferMeters: &buffer,
		})
		if err != nil {
			h.logger.WithError(err).Error("Failed to save track corridor area")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Corridor built but saving the area failed"})
			return
		}
		result.SavedAreaID = &id
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) respondCorridorError(c *gin.Context, err error) {
	switch {
	case models.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, geocoding.ErrNotFound):
		// The wrapped message names which endpoint failed to resolve.
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.logger.WithError(err).Error("Corridor build failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Corridor build failed"})
	}
}

type bulkGeocodeRequest struct {
	BatchSize int `json:"batch_size"`
}

// RunBulkGeocode triggers one enrichment batch. The call always reports
// counts, even when some or all items failed to resolve.
func (h *Handler) RunBulkGeocode(c *gin.Context) {
	var req bulkGeocodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid bulk geocode request"})
		return
	}

	report, err := h.enricher.EnrichBatch(c.Request.Context(), req.BatchSize)
	if err != nil {
		h.logger.WithError(err).Error("Bulk geocoding failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Bulk geocoding failed"})
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h *Handler) ListAreas(c *gin.Context) {
	areas, err := h.db.ListAreas(true)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list saved areas")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list saved areas"})
		return
	}

	c.JSON(http.StatusOK, areas)
}

func (h *Handler) DeleteArea(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid area id"})
		return
	}

	err = h.db.DeactivateArea(id)
	if errors.Is(err, database.ErrAreaNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Saved area not found"})
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to deactivate saved area")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete saved area"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.db.GetListingStats()
	if err != nil {
		h.logger.WithError(err).Error("Failed to get listing stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get listing stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}
