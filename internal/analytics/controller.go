package analytics

import (
	"net/http"
	"strconv"

	"venuely/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// GetDashboard godoc
// @Summary Capacity and ledger overview
// @Tags admin-analytics
// @Produce json
// @Success 200 {object} response.StandardApiResponse
// @Security BearerAuth
// @Router /admin/analytics/dashboard [get]
func (c *Controller) GetDashboard(ctx *gin.Context) {
	dashboard, err := c.service.GetDashboard(ctx.Request.Context())
	if err != nil {
		response.RespondError(ctx, "Failed to get dashboard analytics", err)
		return
	}

	response.RespondSuccess(ctx, "Dashboard analytics retrieved successfully", dashboard)
}

// GetVenueOccupancy godoc
// @Summary Occupancy per venue, fullest first
// @Tags admin-analytics
// @Produce json
// @Success 200 {object} response.StandardApiResponse
// @Security BearerAuth
// @Router /admin/analytics/venues [get]
func (c *Controller) GetVenueOccupancy(ctx *gin.Context) {
	rows, err := c.service.GetVenueOccupancy(ctx.Request.Context())
	if err != nil {
		response.RespondError(ctx, "Failed to get venue occupancy", err)
		return
	}

	response.RespondSuccess(ctx, "Venue occupancy retrieved successfully", rows)
}

// GetDailyBookingStats godoc
// @Summary Active bookings grouped by booking date
// @Tags admin-analytics
// @Produce json
// @Param days query int false "Look back this many days (default 30)"
// @Success 200 {object} response.StandardApiResponse
// @Security BearerAuth
// @Router /admin/analytics/bookings/daily [get]
func (c *Controller) GetDailyBookingStats(ctx *gin.Context) {
	days := defaultDays
	if raw := ctx.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid days parameter", nil, "days must be a positive integer")
			return
		}
		days = parsed
	}

	rows, err := c.service.GetDailyBookingStats(ctx.Request.Context(), days)
	if err != nil {
		response.RespondError(ctx, "Failed to get daily booking stats", err)
		return
	}

	response.RespondSuccess(ctx, "Daily booking stats retrieved successfully", rows)
}

// GetCancellationAnalytics godoc
// @Summary Refund rate and cancellation reasons
// @Tags admin-analytics
// @Produce json
// @Success 200 {object} response.StandardApiResponse
// @Security BearerAuth
// @Router /admin/analytics/cancellations [get]
func (c *Controller) GetCancellationAnalytics(ctx *gin.Context) {
	analytics, err := c.service.GetCancellationAnalytics(ctx.Request.Context())
	if err != nil {
		response.RespondError(ctx, "Failed to get cancellation analytics", err)
		return
	}

	response.RespondSuccess(ctx, "Cancellation analytics retrieved successfully", analytics)
}

// GetCapacityDrift godoc
// @Summary Venues whose booked count disagrees with confirmed reservations
// @Tags admin-analytics
// @Produce json
// @Success 200 {object} response.StandardApiResponse
// @Security BearerAuth
// @Router /admin/analytics/capacity-drift [get]
func (c *Controller) GetCapacityDrift(ctx *gin.Context) {
	rows, err := c.service.GetCapacityDrift(ctx.Request.Context())
	if err != nil {
		response.RespondError(ctx, "Failed to get capacity drift", err)
		return
	}

	response.RespondSuccess(ctx, "Capacity drift retrieved successfully", rows)
}
