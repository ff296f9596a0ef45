package venues

import (
	"venuely/internal/shared/config"
	"venuely/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupVenueRoutes(rg *gin.RouterGroup, controller *Controller, cfg *config.Config) {
	// Public catalog
	venues := rg.Group("/venues")
	{
		venues.GET("", controller.ListVenues)                       // GET /api/v1/venues
		venues.GET("/:id", controller.GetVenue)                     // GET /api/v1/venues/:id
		venues.GET("/:id/availability", controller.GetAvailability) // GET /api/v1/venues/:id/availability
	}

	// Venue management
	admin := rg.Group("/admin/venues")
	admin.Use(middleware.JWTAuth(cfg), middleware.RequireAdmin())
	{
		admin.POST("", controller.CreateVenue)       // POST /api/v1/admin/venues
		admin.PUT("/:id", controller.UpdateVenue)    // PUT /api/v1/admin/venues/:id
		admin.DELETE("/:id", controller.DeleteVenue) // DELETE /api/v1/admin/venues/:id
	}

	rg.POST("/ratings", middleware.JWTAuth(cfg), controller.SubmitRating) // POST /api/v1/ratings
}
