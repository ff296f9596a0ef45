package cancellation

import (
	"fmt"
	"net/http"

	"venuely/internal/shared/middleware"
	"venuely/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// CancelBooking godoc
// @Summary Cancel a confirmed booking
// @Description Releases the booked guests. Refunds only when cancelled more than the refund window ahead.
// @Tags cancellations
// @Accept json
// @Produce json
// @Param request body CancelRequest true "Cancellation"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Security BearerAuth
// @Router /bookings/cancel [post]
func (c *Controller) CancelBooking(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req CancelRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	result, err := c.service.Cancel(ctx.Request.Context(), userID, middleware.IsAdmin(ctx), req)
	if err != nil {
		response.RespondPlainError(ctx, err, "booking not found")
		return
	}

	body := gin.H{"success": true}
	if result.Refunded {
		body["message"] = fmt.Sprintf("Booking cancelled. Refund of %.2f %s initiated.",
			result.RefundAmount, result.Booking.Currency)
		body["refundId"] = *result.RefundID
	} else {
		body["message"] = "Booking cancelled. No refund is due this close to the booking time."
	}
	ctx.JSON(http.StatusOK, body)
}

// GetRefundQuote godoc
// @Summary Preview the refund a cancel would produce now
// @Tags cancellations
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} RefundQuote
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Security BearerAuth
// @Router /bookings/{id}/refund-quote [get]
func (c *Controller) GetRefundQuote(ctx *gin.Context) {
	userID, _ := middleware.UserID(ctx)

	quote, err := c.service.Quote(ctx.Request.Context(), userID, middleware.IsAdmin(ctx), ctx.Param("id"))
	if err != nil {
		response.RespondPlainError(ctx, err, "booking not found")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"data": quote})
}

// GetCancellation godoc
// @Summary Get the cancellation record of a booking
// @Tags cancellations
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} Cancellation
// @Failure 404 {object} map[string]interface{}
// @Security BearerAuth
// @Router /bookings/{id}/cancellation [get]
func (c *Controller) GetCancellation(ctx *gin.Context) {
	userID, _ := middleware.UserID(ctx)

	record, err := c.service.GetCancellation(ctx.Request.Context(), userID, middleware.IsAdmin(ctx), ctx.Param("id"))
	if err != nil {
		response.RespondPlainError(ctx, err, "cancellation not found")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"data": record})
}
