package cancellation

import (
	"venuely/internal/shared/config"
	"venuely/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupCancellationRoutes(rg *gin.RouterGroup, controller *Controller, cfg *config.Config) {
	bookings := rg.Group("/bookings")
	bookings.Use(middleware.JWTAuth(cfg))
	{
		bookings.POST("/cancel", controller.CancelBooking)            // POST /api/v1/bookings/cancel
		bookings.GET("/:id/refund-quote", controller.GetRefundQuote)  // GET /api/v1/bookings/:id/refund-quote
		bookings.GET("/:id/cancellation", controller.GetCancellation) // GET /api/v1/bookings/:id/cancellation
	}
}
