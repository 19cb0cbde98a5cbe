package handlers

import (
	"errors"
	"io"
	"net/http"

	"clientdesk_backend/internal/billing"
	"clientdesk_backend/internal/logger"
	"clientdesk_backend/internal/services"
	"clientdesk_backend/internal/services/dto"
	"clientdesk_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// Лимит на тело вебхука, защита от произвольно больших запросов
const maxWebhookBody = 64 * 1024

type SubscriptionHandler struct {
	*BaseHandler
	subscriptionService services.SubscriptionService
	webhookSecret       string
}

func NewSubscriptionHandler(base *BaseHandler, subscriptionService services.SubscriptionService, webhookSecret string) *SubscriptionHandler {
	return &SubscriptionHandler{
		BaseHandler:         base,
		subscriptionService: subscriptionService,
		webhookSecret:       webhookSecret,
	}
}

// RegisterRoutes регистрирует маршруты биллинга.
// Вебхук публичный: шлюз аутентифицируется подписью, а не токеном.
func (h *SubscriptionHandler) RegisterRoutes(rg *gin.RouterGroup, mw *Middlewares) {
	rg.POST("/billing/webhook", h.Webhook)

	subscription := rg.Group("/subscription")
	subscription.Use(mw.Auth)
	{
		subscription.POST("/checkout", h.Checkout)
		subscription.POST("/verify", h.VerifySession)
		subscription.GET("", h.GetMySubscription)
		subscription.POST("/cancel", h.Cancel)
	}
}

func (h *SubscriptionHandler) Checkout(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CheckoutRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)

	response, err := h.subscriptionService.Checkout(c.Request.Context(), db, userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *SubscriptionHandler) VerifySession(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.VerifySessionRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)

	subscription, err := h.subscriptionService.VerifySession(c.Request.Context(), db, userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, subscription)
}

func (h *SubscriptionHandler) GetMySubscription(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)

	subscription, err := h.subscriptionService.GetMySubscription(db, userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, subscription)
}

func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)

	subscription, err := h.subscriptionService.Cancel(c.Request.Context(), db, userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, subscription)
}

// Webhook принимает события платежного шлюза. Подпись проверяется по
// сырому телу, поэтому тело читается до любого разбора JSON.
func (h *SubscriptionHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Failed to read webhook body"))
		return
	}

	event, err := billing.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), h.webhookSecret)
	if err != nil {
		if errors.Is(err, billing.ErrInvalidSignature) || errors.Is(err, billing.ErrStaleTimestamp) {
			logger.CtxWarn(c.Request.Context(), "rejected billing webhook", "reason", err.Error(), "ip", c.ClientIP())
			apperrors.HandleError(c, apperrors.NewBadRequestError("Invalid webhook signature"))
			return
		}
		apperrors.HandleError(c, apperrors.NewBadRequestError("Malformed webhook payload"))
		return
	}

	db := h.GetDB(c)

	if err := h.subscriptionService.HandleWebhookEvent(db, event); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
