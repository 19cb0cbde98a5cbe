package services

import (
	"clientdesk_backend/internal/repositories"
	"clientdesk_backend/internal/services/dto"
	"clientdesk_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type NotificationService interface {
	List(db *gorm.DB, userID string) ([]*dto.NotificationDTO, error)
	MarkRead(db *gorm.DB, id, userID string) error
	MarkAllRead(db *gorm.DB, userID string) error
	Delete(db *gorm.DB, id, userID string) error
}

type NotificationServiceImpl struct {
	notificationRepo repositories.NotificationRepository
}

func NewNotificationService(notificationRepo repositories.NotificationRepository) NotificationService {
	return &NotificationServiceImpl{notificationRepo: notificationRepo}
}

func (s *NotificationServiceImpl) List(db *gorm.DB, userID string) ([]*dto.NotificationDTO, error) {
	items, err := s.notificationRepo.FindForUser(db, userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return dto.NewNotificationDTOs(items), nil
}

func (s *NotificationServiceImpl) MarkRead(db *gorm.DB, id, userID string) error {
	if err := s.notificationRepo.MarkRead(db, id, userID); err != nil {
		if apperrors.Is(err, repositories.ErrNotificationNotFound) {
			return apperrors.NewNotFoundError("Notification not found")
		}
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *NotificationServiceImpl) MarkAllRead(db *gorm.DB, userID string) error {
	if err := s.notificationRepo.MarkAllRead(db, userID); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *NotificationServiceImpl) Delete(db *gorm.DB, id, userID string) error {
	if err := s.notificationRepo.Delete(db, id, userID); err != nil {
		if apperrors.Is(err, repositories.ErrNotificationNotFound) {
			return apperrors.NewNotFoundError("Notification not found")
		}
		return apperrors.InternalError(err)
	}
	return nil
}
