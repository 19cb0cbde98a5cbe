package repositories

import (
	"errors"

	"clientdesk_backend/internal/models"

	"gorm.io/gorm"
)

var ErrVideoNotFound = errors.New("video not found")

type VideoRepository interface {
	Create(db *gorm.DB, video *models.Video) error
	FindOwned(db *gorm.DB, id, userID string) (*models.Video, error)
	FindForUser(db *gorm.DB, userID string, limit, offset int) ([]models.Video, int64, error)
	FindAllForUser(db *gorm.DB, userID string) ([]models.Video, error)
	Update(db *gorm.DB, video *models.Video) error
	Delete(db *gorm.DB, id string) error
	DeleteAllForUser(db *gorm.DB, userID string) error
	CountAll(db *gorm.DB) (int64, error)
}

type VideoRepositoryImpl struct{}

func NewVideoRepository() VideoRepository {
	return &VideoRepositoryImpl{}
}

func (r *VideoRepositoryImpl) Create(db *gorm.DB, video *models.Video) error {
	return db.Create(video).Error
}

func (r *VideoRepositoryImpl) FindOwned(db *gorm.DB, id, userID string) (*models.Video, error) {
	var video models.Video
	err := db.First(&video, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, err
	}
	return &video, nil
}

func (r *VideoRepositoryImpl) FindForUser(db *gorm.DB, userID string, limit, offset int) ([]models.Video, int64, error) {
	var total int64
	if err := db.Model(&models.Video{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var videos []models.Video
	err := db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&videos).Error
	return videos, total, err
}

func (r *VideoRepositoryImpl) FindAllForUser(db *gorm.DB, userID string) ([]models.Video, error) {
	var videos []models.Video
	err := db.Where("user_id = ?", userID).Find(&videos).Error
	return videos, err
}

func (r *VideoRepositoryImpl) Update(db *gorm.DB, video *models.Video) error {
	return db.Save(video).Error
}

func (r *VideoRepositoryImpl) Delete(db *gorm.DB, id string) error {
	return db.Delete(&models.Video{}, "id = ?", id).Error
}

func (r *VideoRepositoryImpl) DeleteAllForUser(db *gorm.DB, userID string) error {
	return db.Where("user_id = ?", userID).Delete(&models.Video{}).Error
}

func (r *VideoRepositoryImpl) CountAll(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&models.Video{}).Count(&count).Error
	return count, err
}
