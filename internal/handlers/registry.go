package handlers

import "github.com/gin-gonic/gin"

// AppHandlers содержит все хэндлеры приложения.
type AppHandlers struct {
	AuthHandler         *AuthHandler
	UserHandler         *UserHandler
	DocumentHandler     *DocumentHandler
	VideoHandler        *VideoHandler
	MeetingHandler      *MeetingHandler
	SubscriptionHandler *SubscriptionHandler
	NotificationHandler *NotificationHandler
	AdminHandler        *AdminHandler
}

// Middlewares - цепочки, которые маршруты навешивают поверх хэндлеров.
// Собираются на старте приложения, здесь только прокидываются.
type Middlewares struct {
	Auth      gin.HandlerFunc // Bearer-токен + перечитывание статуса пользователя
	Admin     gin.HandlerFunc // только роль admin
	TwoFactor gin.HandlerFunc // код из X-2FA-Token для пользователей с включенным 2FA
	RateLimit gin.HandlerFunc // лимит попыток на чувствительных маршрутах
}
