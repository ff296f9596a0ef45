package connections

import (
	"venuely/internal/shared/config"
	"venuely/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupConnectionRoutes(rg *gin.RouterGroup, controller *Controller, cfg *config.Config) {
	connections := rg.Group("/connections")
	connections.Use(middleware.JWTAuth(cfg))
	{
		connections.POST("", controller.RequestConnection)               // POST /api/v1/connections
		connections.GET("", controller.ListConnections)                  // GET /api/v1/connections
		connections.POST("/:id/respond", controller.RespondToConnection) // POST /api/v1/connections/:id/respond
	}
}
