package bookings

import (
	"net/http"

	"venuely/internal/shared/middleware"
	"venuely/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

const (
	HeaderIdempotencyKey     = "Idempotency-Key"
	HeaderIdempotentReplayed = "Idempotent-Replayed"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// CreateBooking godoc
// @Summary Book a table for a party
// @Description Admits the booking only if the time is within opening hours and the venue has room.
// @Tags bookings
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Client retry key"
// @Param request body CreateBookingRequest true "Booking"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Security BearerAuth
// @Router /bookings [post]
func (c *Controller) CreateBooking(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req CreateBookingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	result, err := c.service.Book(ctx.Request.Context(), userID, req, ctx.GetHeader(HeaderIdempotencyKey))
	if err != nil {
		response.RespondPlainError(ctx, err, "venue not found")
		return
	}

	if result.Replayed {
		ctx.Header(HeaderIdempotentReplayed, "true")
	}
	ctx.JSON(http.StatusOK, gin.H{
		"message": result.Message(),
		"data":    result.Booking,
	})
}

// GetBooking godoc
// @Summary Get one of the caller's bookings
// @Tags bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Security BearerAuth
// @Router /bookings/{id} [get]
func (c *Controller) GetBooking(ctx *gin.Context) {
	userID, _ := middleware.UserID(ctx)

	booking, err := c.service.GetBooking(ctx.Request.Context(), userID, middleware.IsAdmin(ctx), ctx.Param("id"))
	if err != nil {
		response.RespondPlainError(ctx, err, "booking not found")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Booking retrieved successfully",
		"data":    booking,
	})
}

// GetUserBookings godoc
// @Summary List the caller's bookings, latest first
// @Tags bookings
// @Produce json
// @Param status query string false "CONFIRMED, CANCELLED or COMPLETED"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /users/bookings [get]
func (c *Controller) GetUserBookings(ctx *gin.Context) {
	userID, _ := middleware.UserID(ctx)

	var query BookingListQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameters",
			"details": err.Error(),
		})
		return
	}

	page, err := c.service.GetUserBookings(ctx.Request.Context(), userID, query)
	if err != nil {
		response.RespondPlainError(ctx, err, "")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Bookings retrieved successfully",
		"data":    page,
	})
}

// ReconcileNow godoc
// @Summary Run one capacity reconciliation pass
// @Description Compares each venue's booked count with its confirmed reservations. Repairs only when the job is configured to.
// @Tags admin-bookings
// @Produce json
// @Success 200 {object} ReconcileReport
// @Failure 503 {object} map[string]interface{}
// @Security BearerAuth
// @Router /admin/reconcile [post]
func ReconcileNow(reconciler *Reconciler) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		report, err := reconciler.RunOnce(ctx.Request.Context())
		if err != nil {
			response.RespondPlainError(ctx, err, "")
			return
		}
		ctx.JSON(http.StatusOK, gin.H{
			"message": "Reconciliation complete",
			"data":    report,
		})
	}
}
