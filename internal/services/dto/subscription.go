package dto

import (
	"time"

	"clientdesk_backend/internal/models"
)

// SubscriptionDTO - публичное представление подписки
type SubscriptionDTO struct {
	Plan             models.SubscriptionPlan   `json:"plan"`
	Status           models.SubscriptionStatus `json:"status"`
	CurrentPeriodEnd *time.Time                `json:"currentPeriodEnd,omitempty"`
}

func NewSubscriptionDTO(sub *models.Subscription) *SubscriptionDTO {
	return &SubscriptionDTO{
		Plan:             sub.Plan,
		Status:           sub.Status,
		CurrentPeriodEnd: sub.CurrentPeriodEnd,
	}
}

// CheckoutRequest - запрос создания сессии оплаты
type CheckoutRequest struct {
	Plan string `json:"plan" binding:"required"`
}

// CheckoutResponse - ссылка на hosted-страницу оплаты
type CheckoutResponse struct {
	CheckoutURL string `json:"checkoutUrl"`
}

// VerifySessionRequest - сверка завершенной сессии оплаты со шлюзом.
// Фронтенд дергает ее со страницы успеха, не дожидаясь вебхука.
type VerifySessionRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
}
