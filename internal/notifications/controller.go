package notifications

import (
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

// ListNotifications godoc
// @Summary List the caller's notifications, newest first
// @Tags notifications
// @Produce json
// @Param unread query bool false "Only unread"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.StandardApiResponse
// @Security BearerAuth
// @Router /notifications [get]
func (c *Controller) ListNotifications(ctx *gin.Context) {
	userID, _ := middleware.UserID(ctx)

	var query ListQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	list, err := c.service.List(ctx.Request.Context(), userID, query)
	if err != nil {
		response.RespondError(ctx, "Failed to list notifications", err)
		return
	}
	response.RespondSuccess(ctx, "Notifications retrieved successfully", list)
}

// UnreadCount godoc
// @Summary Number of unread notifications
// @Tags notifications
// @Produce json
// @Success 200 {object} response.StandardApiResponse
// @Security BearerAuth
// @Router /notifications/unread-count [get]
func (c *Controller) UnreadCount(ctx *gin.Context) {
	userID, _ := middleware.UserID(ctx)

	count, err := c.service.UnreadCount(ctx.Request.Context(), userID)
	if err != nil {
		response.RespondError(ctx, "Failed to count notifications", err)
		return
	}
	response.RespondSuccess(ctx, "Unread count retrieved successfully", UnreadCountResponse{Unread: count})
}

// MarkRead godoc
// @Summary Mark a notification as read
// @Tags notifications
// @Param id path string true "Notification ID"
// @Success 200 {object} response.StandardApiResponse
// @Failure 404 {object} response.StandardApiResponse
// @Security BearerAuth
// @Router /notifications/{id}/read [post]
func (c *Controller) MarkRead(ctx *gin.Context) {
	userID, _ := middleware.UserID(ctx)

	if err := c.service.MarkRead(ctx.Request.Context(), userID, ctx.Param("id")); err != nil {
		response.RespondError(ctx, "Failed to mark notification as read", err)
		return
	}
	response.RespondSuccess(ctx, "Notification marked as read", nil)
}
