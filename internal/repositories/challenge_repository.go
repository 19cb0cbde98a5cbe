package repositories

import (
	"errors"
	"time"

	"clientdesk_backend/internal/models"

	"gorm.io/gorm"
)

var ErrChallengeNotFound = errors.New("verification challenge not found")

type ChallengeRepository interface {
	// Upsert заменяет действующий код данного назначения новым.
	// Код другого назначения не затрагивается.
	Upsert(db *gorm.DB, challenge *models.VerificationChallenge) error
	Find(db *gorm.DB, userID string, purpose models.ChallengePurpose) (*models.VerificationChallenge, error)
	Delete(db *gorm.DB, userID string, purpose models.ChallengePurpose) error
	DeleteAllForUser(db *gorm.DB, userID string) error
	DeleteExpired(db *gorm.DB, now time.Time) (int64, error)
}

type ChallengeRepositoryImpl struct{}

func NewChallengeRepository() ChallengeRepository {
	return &ChallengeRepositoryImpl{}
}

func (r *ChallengeRepositoryImpl) Upsert(db *gorm.DB, challenge *models.VerificationChallenge) error {
	// Удаляем старый код этого назначения, затем вставляем новый.
	// Пара (user_id, purpose) под уникальным индексом.
	err := db.Where("user_id = ? AND purpose = ?", challenge.UserID, challenge.Purpose).
		Delete(&models.VerificationChallenge{}).Error
	if err != nil {
		return err
	}
	return db.Create(challenge).Error
}

func (r *ChallengeRepositoryImpl) Find(db *gorm.DB, userID string, purpose models.ChallengePurpose) (*models.VerificationChallenge, error) {
	var challenge models.VerificationChallenge
	err := db.First(&challenge, "user_id = ? AND purpose = ?", userID, purpose).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChallengeNotFound
		}
		return nil, err
	}
	return &challenge, nil
}

func (r *ChallengeRepositoryImpl) Delete(db *gorm.DB, userID string, purpose models.ChallengePurpose) error {
	return db.Where("user_id = ? AND purpose = ?", userID, purpose).
		Delete(&models.VerificationChallenge{}).Error
}

func (r *ChallengeRepositoryImpl) DeleteAllForUser(db *gorm.DB, userID string) error {
	return db.Where("user_id = ?", userID).Delete(&models.VerificationChallenge{}).Error
}

func (r *ChallengeRepositoryImpl) DeleteExpired(db *gorm.DB, now time.Time) (int64, error) {
	res := db.Where("expires_at < ?", now).Delete(&models.VerificationChallenge{})
	return res.RowsAffected, res.Error
}
