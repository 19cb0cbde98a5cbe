package routes

import (
	"clientdesk_backend/internal/handlers"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все HTTP маршруты приложения.
func RegisterRoutes(
	ginRouter *gin.Engine,
	appHandlers *handlers.AppHandlers,
	mw *handlers.Middlewares,
) {
	api := ginRouter.Group("/api/v1")
	{
		appHandlers.AuthHandler.RegisterRoutes(api, mw)
		appHandlers.UserHandler.RegisterRoutes(api, mw)
		appHandlers.DocumentHandler.RegisterRoutes(api, mw)
		appHandlers.VideoHandler.RegisterRoutes(api, mw)
		appHandlers.MeetingHandler.RegisterRoutes(api, mw)
		appHandlers.SubscriptionHandler.RegisterRoutes(api, mw)
		appHandlers.NotificationHandler.RegisterRoutes(api, mw)
		appHandlers.AdminHandler.RegisterRoutes(api, mw)
	}
}
