package workers

import (
	"context"
	"time"

	"clientdesk_backend/internal/logger"
	"clientdesk_backend/internal/repositories"

	"gorm.io/gorm"
)

// ChallengeWorker подчищает просроченные коды верификации.
// Просроченный код и так отклоняется при проверке, воркер лишь не дает
// мертвым записям копиться в таблице.
type ChallengeWorker struct {
	db            *gorm.DB
	challengeRepo repositories.ChallengeRepository
	interval      time.Duration
}

func NewChallengeWorker(db *gorm.DB, challengeRepo repositories.ChallengeRepository) *ChallengeWorker {
	return &ChallengeWorker{
		db:            db,
		challengeRepo: challengeRepo,
		interval:      15 * time.Minute,
	}
}

func (w *ChallengeWorker) Start(ctx context.Context) {
	go w.purgeExpired(ctx)
}

func (w *ChallengeWorker) purgeExpired(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("challenge worker stopped")
			return
		case <-ticker.C:
			deleted, err := w.challengeRepo.DeleteExpired(w.db, time.Now())
			logger.WorkerLog("challenge_worker", "purge_expired", err)
			if err == nil && deleted > 0 {
				logger.Info("purged expired verification codes", "count", deleted)
			}
		}
	}
}
