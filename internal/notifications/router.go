package notifications

import (
	"venuely/internal/shared/config"
	"venuely/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupNotificationRoutes(rg *gin.RouterGroup, controller *Controller, cfg *config.Config) {
	notifications := rg.Group("/notifications")
	notifications.Use(middleware.JWTAuth(cfg))
	{
		notifications.GET("", controller.ListNotifications)        // GET /api/v1/notifications
		notifications.GET("/unread-count", controller.UnreadCount) // GET /api/v1/notifications/unread-count
		notifications.POST("/:id/read", controller.MarkRead)       // POST /api/v1/notifications/:id/read
	}
}
