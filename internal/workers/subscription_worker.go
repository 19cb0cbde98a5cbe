package workers

import (
	"context"
	"time"

	"clientdesk_backend/internal/logger"
	"clientdesk_backend/internal/models"

	"gorm.io/gorm"
)

// SubscriptionWorker помечает истекшие подписки. Основной источник
// истины - вебхуки шлюза, воркер страхует от пропущенных событий.
type SubscriptionWorker struct {
	db       *gorm.DB
	interval time.Duration
}

func NewSubscriptionWorker(db *gorm.DB) *SubscriptionWorker {
	return &SubscriptionWorker{
		db:       db,
		interval: 6 * time.Hour,
	}
}

func (w *SubscriptionWorker) Start(ctx context.Context) {
	go w.checkExpiredSubscriptions(ctx)
}

func (w *SubscriptionWorker) checkExpiredSubscriptions(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("subscription worker stopped")
			return
		case <-ticker.C:
			// Отмененная подписка доживает до конца оплаченного периода
			statuses := []models.SubscriptionStatus{
				models.SubscriptionStatusActive,
				models.SubscriptionStatusCanceled,
			}
			result := w.db.Model(&models.User{}).
				Where("subscription_status IN ? AND subscription_current_period_end < ?",
					statuses, time.Now()).
				Update("subscription_status", models.SubscriptionStatusExpired)

			logger.WorkerLog("subscription_worker", "check_expired", result.Error)
			if result.Error == nil && result.RowsAffected > 0 {
				logger.Info("marked subscriptions as expired", "count", result.RowsAffected)
			}
		}
	}
}
