package connections

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

// RequestConnection godoc
// @Summary Ask another user to connect
// @Tags connections
// @Accept json
// @Produce json
// @Param request body ConnectRequest true "Recipient"
// @Success 201 {object} response.StandardApiResponse
// @Failure 400 {object} response.StandardApiResponse
// @Failure 409 {object} response.StandardApiResponse
// @Security BearerAuth
// @Router /connections [post]
func (c *Controller) RequestConnection(ctx *gin.Context) {
	userID, _ := middleware.UserID(ctx)

	var req ConnectRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	conn, err := c.service.Request(ctx.Request.Context(), userID, req)
	if err != nil {
		response.RespondError(ctx, "Failed to request connection", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Connection requested", conn, nil)
}

// RespondToConnection godoc
// @Summary Accept or reject a pending connection
// @Tags connections
// @Accept json
// @Produce json
// @Param id path string true "Connection ID"
// @Param request body RespondRequest true "Decision"
// @Success 200 {object} response.StandardApiResponse
// @Failure 400 {object} response.StandardApiResponse
// @Failure 403 {object} response.StandardApiResponse
// @Security BearerAuth
// @Router /connections/{id}/respond [post]
func (c *Controller) RespondToConnection(ctx *gin.Context) {
	userID, _ := middleware.UserID(ctx)

	var req RespondRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	conn, err := c.service.Respond(ctx.Request.Context(), userID, ctx.Param("id"), *req.Accept)
	if err != nil {
		response.RespondError(ctx, "Failed to respond to connection", err)
		return
	}

	response.RespondSuccess(ctx, "Connection updated", conn)
}

// ListConnections godoc
// @Summary List the caller's connections
// @Tags connections
// @Produce json
// @Param status query string false "PENDING, ACCEPTED or REJECTED"
// @Param direction query string false "incoming or outgoing"
// @Success 200 {object} response.StandardApiResponse
// @Security BearerAuth
// @Router /connections [get]
func (c *Controller) ListConnections(ctx *gin.Context) {
	userID, _ := middleware.UserID(ctx)

	var query ListQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	items, err := c.service.List(ctx.Request.Context(), userID, query)
	if err != nil {
		response.RespondError(ctx, "Failed to list connections", err)
		return
	}

	response.RespondSuccess(ctx, "Connections retrieved successfully", items)
}
