package api

import (
	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine, handler *Handler) {
	api := router.Group("/api")
	{
		api.GET("/health", handler.Health)

		api.POST("/listings", handler.IngestListings)
		api.GET("/listings", handler.GetListings)
		api.PUT("/listings/:id/coordinates", handler.SetListingCoordinates)
		api.GET("/points", handler.GetAllPoints)
		api.GET("/stats", handler.GetStats)

		api.POST("/search", handler.SearchInArea)
		api.POST("/corridor", handler.BuildCorridor)
		api.POST("/corridor/track", handler.BuildCorridorFromTrack)
		api.POST("/geocode/batch", handler.RunBulkGeocode)

		api.GET("/areas", handler.ListAreas)
		api.DELETE("/areas/:id", handler.DeleteArea)
	}
}
