package venues

import (
	"net/http"

	"venuely/internal/shared/apperrors"
	"venuely/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// CreateVenue godoc
// @Summary Create a venue
// @Tags admin-venues
// @Accept json
// @Produce json
// @Param request body CreateVenueRequest true "Venue"
// @Success 201 {object} response.StandardApiResponse
// @Failure 400 {object} response.StandardApiResponse
// @Security BearerAuth
// @Router /admin/venues [post]
func (c *Controller) CreateVenue(ctx *gin.Context) {
	var req CreateVenueRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	venue, err := c.service.CreateVenue(ctx.Request.Context(), req)
	if err != nil {
		response.RespondError(ctx, "Failed to create venue", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Venue created successfully", venue, nil)
}

// GetVenue godoc
// @Summary Get a venue with its table layout
// @Tags venues
// @Produce json
// @Param id path string true "Venue ID"
// @Success 200 {object} response.StandardApiResponse
// @Failure 404 {object} response.StandardApiResponse
// @Router /venues/{id} [get]
func (c *Controller) GetVenue(ctx *gin.Context) {
	venue, err := c.service.GetVenue(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		response.RespondError(ctx, "Failed to get venue", err)
		return
	}

	response.RespondSuccess(ctx, "Venue retrieved successfully", venue)
}

// ListVenues godoc
// @Summary List venues
// @Tags venues
// @Produce json
// @Param kind query string false "RESTAURANT or COWORKING"
// @Param q query string false "Search name or address"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.StandardApiResponse
// @Router /venues [get]
func (c *Controller) ListVenues(ctx *gin.Context) {
	var filters VenueFilters
	if err := ctx.ShouldBindQuery(&filters); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	result, err := c.service.ListVenues(ctx.Request.Context(), filters)
	if err != nil {
		response.RespondError(ctx, "Failed to list venues", err)
		return
	}

	response.RespondSuccess(ctx, "Venues retrieved successfully", result)
}

// UpdateVenue godoc
// @Summary Update whitelisted venue fields
// @Tags admin-venues
// @Accept json
// @Produce json
// @Param id path string true "Venue ID"
// @Param request body VenueUpdate true "Fields to change"
// @Success 200 {object} response.StandardApiResponse
// @Failure 409 {object} response.StandardApiResponse
// @Security BearerAuth
// @Router /admin/venues/{id} [put]
func (c *Controller) UpdateVenue(ctx *gin.Context) {
	var upd VenueUpdate
	if err := ctx.ShouldBindJSON(&upd); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	venue, err := c.service.UpdateVenue(ctx.Request.Context(), ctx.Param("id"), upd)
	if err != nil {
		response.RespondError(ctx, "Failed to update venue", err)
		return
	}

	response.RespondSuccess(ctx, "Venue updated successfully", venue)
}

// DeleteVenue godoc
// @Summary Delete a venue without confirmed reservations
// @Tags admin-venues
// @Param id path string true "Venue ID"
// @Success 200 {object} response.StandardApiResponse
// @Failure 409 {object} response.StandardApiResponse
// @Security BearerAuth
// @Router /admin/venues/{id} [delete]
func (c *Controller) DeleteVenue(ctx *gin.Context) {
	if err := c.service.DeleteVenue(ctx.Request.Context(), ctx.Param("id")); err != nil {
		response.RespondError(ctx, "Failed to delete venue", err)
		return
	}

	response.RespondSuccess(ctx, "Venue deleted successfully", nil)
}

// GetAvailability godoc
// @Summary Remaining capacity for a venue
// @Tags venues
// @Produce json
// @Param id path string true "Venue ID"
// @Success 200 {object} response.StandardApiResponse
// @Router /venues/{id}/availability [get]
func (c *Controller) GetAvailability(ctx *gin.Context) {
	availability, err := c.service.Availability(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		response.RespondError(ctx, "Failed to get availability", err)
		return
	}

	response.RespondSuccess(ctx, "Availability retrieved successfully", availability)
}

// SubmitRating godoc
// @Summary Rate a venue from 1 to 5
// @Tags ratings
// @Accept json
// @Produce json
// @Param request body SubmitRatingRequest true "Rating"
// @Success 200 {object} RatingResponse
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /ratings [post]
func (c *Controller) SubmitRating(ctx *gin.Context) {
	var req SubmitRatingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid rating", "details": err.Error()})
		return
	}

	venue, err := c.service.SubmitRating(ctx.Request.Context(), req.VenueID, req.Rating)
	if err != nil {
		if apperrors.StatusCode(err) == http.StatusBadRequest {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid rating", "details": err.Error()})
			return
		}
		response.RespondPlainError(ctx, err, "venue not found")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Rating submitted",
		"data": RatingResponse{
			VenueID:     venue.ID,
			Rating:      venue.Rating,
			ReviewCount: venue.ReviewCount,
		},
	})
}
