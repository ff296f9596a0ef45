package bookings

import (
	"venuely/internal/shared/config"
	"venuely/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupBookingRoutes configures the booking admission and ledger read routes
func SetupBookingRoutes(rg *gin.RouterGroup, controller *Controller, cfg *config.Config) {
	bookings := rg.Group("/bookings")
	bookings.Use(middleware.JWTAuth(cfg))
	{
		bookings.POST("", controller.CreateBooking) // POST /api/v1/bookings
		bookings.GET("/:id", controller.GetBooking) // GET /api/v1/bookings/:id
	}

	users := rg.Group("/users")
	users.Use(middleware.JWTAuth(cfg))
	{
		users.GET("/bookings", controller.GetUserBookings) // GET /api/v1/users/bookings
	}
}

// SetupAdminRoutes exposes on-demand reconciliation to admins
func SetupAdminRoutes(rg *gin.RouterGroup, reconciler *Reconciler, cfg *config.Config) {
	admin := rg.Group("/admin")
	admin.Use(middleware.JWTAuth(cfg), middleware.RequireAdmin())
	admin.POST("/reconcile", ReconcileNow(reconciler)) // POST /api/v1/admin/reconcile
}

// Route definitions for reference:
//
// BOOKING ADMISSION
// POST   /api/v1/bookings                    - Book a venue
// Request body: { "venueId": "...", "guests": 4, "bookingDate": "2025-03-01", "bookingTime": "19:30" }
// Optional header: Idempotency-Key
//
// BOOKING RETRIEVAL
// GET    /api/v1/bookings/:id                - Get a specific booking
// GET    /api/v1/users/bookings?page=1       - Caller's bookings
//
// ADMIN
// POST   /api/v1/admin/reconcile             - One reconciliation pass
//
// Cancellation lives in the cancellation package:
// POST   /api/v1/bookings/cancel             - Cancel with refund policy
// GET    /api/v1/bookings/:id/refund-quote   - Refund preview
