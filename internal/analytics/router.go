package analytics

import (
	"venuely/internal/shared/config"
	"venuely/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupAnalyticsRoutes(rg *gin.RouterGroup, controller *Controller, cfg *config.Config) {
	admin := rg.Group("/admin/analytics")
	admin.Use(middleware.JWTAuth(cfg), middleware.RequireAdmin())
	{
		admin.GET("/dashboard", controller.GetDashboard)                 // GET /api/v1/admin/analytics/dashboard
		admin.GET("/venues", controller.GetVenueOccupancy)               // GET /api/v1/admin/analytics/venues
		admin.GET("/bookings/daily", controller.GetDailyBookingStats)    // GET /api/v1/admin/analytics/bookings/daily?days=30
		admin.GET("/cancellations", controller.GetCancellationAnalytics) // GET /api/v1/admin/analytics/cancellations
		admin.GET("/capacity-drift", controller.GetCapacityDrift)        // GET /api/v1/admin/analytics/capacity-drift
	}
}
