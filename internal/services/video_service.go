package services

import (
	"context"
	"io"

	"clientdesk_backend/internal/logger"
	"clientdesk_backend/internal/mediahost"
	"clientdesk_backend/internal/models"
	"clientdesk_backend/internal/repositories"
	"clientdesk_backend/internal/services/dto"
	"clientdesk_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type VideoService interface {
	Upload(ctx context.Context, db *gorm.DB, ownerID, uploaderID, title, description string, size int64, content io.Reader) (*dto.VideoDTO, error)
	List(db *gorm.DB, userID string, page, pageSize int) (*dto.PaginatedResponse, error)
	Delete(ctx context.Context, db *gorm.DB, id, userID string) error
}

type VideoServiceImpl struct {
	videoRepo repositories.VideoRepository
	host      *mediahost.Client
}

func NewVideoService(videoRepo repositories.VideoRepository, host *mediahost.Client) VideoService {
	return &VideoServiceImpl{
		videoRepo: videoRepo,
		host:      host,
	}
}

// Upload - загрузка ролика на внешний хостинг.
// Локальная запись появляется только после успешной загрузки файла.
func (s *VideoServiceImpl) Upload(ctx context.Context, db *gorm.DB, ownerID, uploaderID, title, description string, size int64, content io.Reader) (*dto.VideoDTO, error) {
	hosted, err := s.host.Upload(ctx, title, description, size, content)
	if err != nil {
		return nil, apperrors.ExternalServiceError(err, "Failed to upload video")
	}

	video := &models.Video{
		UserID:      ownerID,
		Title:       title,
		Description: description,
		HostURI:     hosted.URI,
		PlaybackURL: hosted.PlayerURL,
		Status:      models.VideoStatusProcessing,
		UploadedBy:  uploaderID,
	}
	if err := s.videoRepo.Create(db, video); err != nil {
		// Запись не создалась - ролик на хостинге никому не принадлежит
		if delErr := s.host.Delete(ctx, hosted.URI); delErr != nil {
			logger.WithError(delErr).Warn("failed to clean up orphaned hosted video", "uri", hosted.URI)
		}
		return nil, apperrors.InternalError(err)
	}

	return dto.NewVideoDTO(video), nil
}

func (s *VideoServiceImpl) List(db *gorm.DB, userID string, page, pageSize int) (*dto.PaginatedResponse, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}

	videos, total, err := s.videoRepo.FindForUser(db, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return dto.NewPaginatedResponse(dto.NewVideoDTOs(videos), total, page, pageSize), nil
}

// Delete удаляет запись и сам ролик на хостинге.
// Отсутствие ролика у хостера не считается ошибкой.
func (s *VideoServiceImpl) Delete(ctx context.Context, db *gorm.DB, id, userID string) error {
	video, err := s.videoRepo.FindOwned(db, id, userID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrVideoNotFound) {
			return apperrors.NewNotFoundError("Video not found")
		}
		return apperrors.InternalError(err)
	}

	if err := s.videoRepo.Delete(db, video.ID); err != nil {
		return apperrors.InternalError(err)
	}

	if err := s.host.Delete(ctx, video.HostURI); err != nil && !apperrors.Is(err, mediahost.ErrVideoNotFound) {
		logger.WithError(err).Warn("failed to delete hosted video", "uri", video.HostURI)
	}
	return nil
}
