package challenge

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"time"

	"clientdesk_backend/internal/logger"
	"clientdesk_backend/internal/models"
	"clientdesk_backend/internal/repositories"
	"clientdesk_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// DeliverFunc доставляет код получателю (письмо, смс). Вызывается ДО
// сохранения кода: если доставка провалилась, код не попадает в базу
// и старый код назначения остается действующим.
type DeliverFunc func(code string) error

// Engine выдает и проверяет одноразовые коды подтверждения
type Engine struct {
	challengeRepo repositories.ChallengeRepository
	codeTTL       time.Duration
}

func NewEngine(challengeRepo repositories.ChallengeRepository, codeTTL time.Duration) *Engine {
	return &Engine{
		challengeRepo: challengeRepo,
		codeTTL:       codeTTL,
	}
}

// GenerateCode возвращает криптослучайный шестизначный код.
// Ведущие нули допустимы: равномерное распределение по [000000, 999999].
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// Issue создает код для пары (пользователь, назначение), доставляет его
// через deliver и только после успешной доставки сохраняет. Действующий
// код того же назначения при этом заменяется; коды других назначений
// не затрагиваются.
func (e *Engine) Issue(db *gorm.DB, userID string, purpose models.ChallengePurpose, deliver DeliverFunc) error {
	code, err := GenerateCode()
	if err != nil {
		return apperrors.InternalError(err)
	}

	if err := deliver(code); err != nil {
		logger.WithError(err).Error("verification code delivery failed",
			"user_id", userID,
			"purpose", string(purpose),
		)
		return apperrors.ErrDeliveryFailed(err)
	}

	challenge := &models.VerificationChallenge{
		UserID:    userID,
		Purpose:   purpose,
		Code:      code,
		ExpiresAt: time.Now().Add(e.codeTTL),
	}
	if err := e.challengeRepo.Upsert(db, challenge); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

// Validate проверяет код и при успехе немедленно удаляет его: повторное
// предъявление того же кода всегда проваливается. Неверный, просроченный
// и отсутствующий коды неразличимы для вызывающего.
func (e *Engine) Validate(db *gorm.DB, userID string, purpose models.ChallengePurpose, code string) error {
	challenge, err := e.challengeRepo.Find(db, userID, purpose)
	if err != nil {
		if errors.Is(err, repositories.ErrChallengeNotFound) {
			return apperrors.ErrInvalidCode
		}
		return apperrors.InternalError(err)
	}

	if challenge.Expired(time.Now()) {
		// Просроченную запись чистим сразу, не дожидаясь фонового воркера
		if err := e.challengeRepo.Delete(db, userID, purpose); err != nil {
			logger.WithError(err).Warn("failed to delete expired verification code", "user_id", userID)
		}
		return apperrors.ErrInvalidCode
	}

	if subtle.ConstantTimeCompare([]byte(challenge.Code), []byte(code)) != 1 {
		return apperrors.ErrInvalidCode
	}

	if err := e.challengeRepo.Delete(db, userID, purpose); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

// Revoke снимает действующий код назначения, если он есть
func (e *Engine) Revoke(db *gorm.DB, userID string, purpose models.ChallengePurpose) error {
	return e.challengeRepo.Delete(db, userID, purpose)
}
