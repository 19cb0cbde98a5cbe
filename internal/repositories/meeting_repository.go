package repositories

import (
	"errors"

	"clientdesk_backend/internal/models"

	"gorm.io/gorm"
)

var ErrMeetingNotFound = errors.New("meeting not found")

type MeetingRepository interface {
	Create(db *gorm.DB, meeting *models.Meeting) error
	FindByID(db *gorm.DB, id string) (*models.Meeting, error)
	FindForUser(db *gorm.DB, userID string) ([]models.Meeting, error)
	UpdateStatus(db *gorm.DB, id string, status models.MeetingStatus) error
	DeleteAllForUser(db *gorm.DB, userID string) error
	CountAll(db *gorm.DB) (int64, error)
}

type MeetingRepositoryImpl struct{}

func NewMeetingRepository() MeetingRepository {
	return &MeetingRepositoryImpl{}
}

func (r *MeetingRepositoryImpl) Create(db *gorm.DB, meeting *models.Meeting) error {
	return db.Create(meeting).Error
}

func (r *MeetingRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Meeting, error) {
	var meeting models.Meeting
	err := db.Preload("Participants").First(&meeting, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMeetingNotFound
		}
		return nil, err
	}
	return &meeting, nil
}

// FindForUser - встречи, созданные пользователем или с его участием
func (r *MeetingRepositoryImpl) FindForUser(db *gorm.DB, userID string) ([]models.Meeting, error) {
	var meetings []models.Meeting
	err := db.Preload("Participants").
		Where("created_by = ? OR id IN (?)",
			userID,
			db.Model(&models.MeetingParticipant{}).Select("meeting_id").Where("user_id = ?", userID),
		).
		Order("datetime ASC").
		Find(&meetings).Error
	return meetings, err
}

func (r *MeetingRepositoryImpl) UpdateStatus(db *gorm.DB, id string, status models.MeetingStatus) error {
	res := db.Model(&models.Meeting{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrMeetingNotFound
	}
	return nil
}

func (r *MeetingRepositoryImpl) DeleteAllForUser(db *gorm.DB, userID string) error {
	err := db.Where("meeting_id IN (?)",
		db.Model(&models.Meeting{}).Select("id").Where("created_by = ?", userID),
	).Delete(&models.MeetingParticipant{}).Error
	if err != nil {
		return err
	}
	return db.Where("created_by = ?", userID).Delete(&models.Meeting{}).Error
}

func (r *MeetingRepositoryImpl) CountAll(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&models.Meeting{}).Count(&count).Error
	return count, err
}
