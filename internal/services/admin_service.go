package services

import (
	"context"

	"clientdesk_backend/internal/email"
	"clientdesk_backend/internal/logger"
	"clientdesk_backend/internal/mediahost"
	"clientdesk_backend/internal/models"
	"clientdesk_backend/internal/repositories"
	"clientdesk_backend/internal/services/dto"
	"clientdesk_backend/internal/storage"
	"clientdesk_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type AdminService interface {
	ListUsers(db *gorm.DB, query *dto.ListUsersQuery) (*dto.PaginatedResponse, error)
	GetUserDetails(db *gorm.DB, userID string) (*dto.AdminUserDetails, error)
	BanUser(db *gorm.DB, userID string) error
	UnbanUser(db *gorm.DB, userID string) error
	DeleteUser(ctx context.Context, db *gorm.DB, userID string) (*dto.DeleteUserResult, error)
	SendEmail(db *gorm.DB, adminID string, req *dto.SendEmailRequest, attachments []email.Attachment) error
	EmailHistory(db *gorm.DB, search string, page, pageSize int) (*dto.PaginatedResponse, error)
	Stats(db *gorm.DB) (*dto.AdminStats, error)
}

type AdminServiceImpl struct {
	userRepo         repositories.UserRepository
	documentRepo     repositories.DocumentRepository
	videoRepo        repositories.VideoRepository
	meetingRepo      repositories.MeetingRepository
	notificationRepo repositories.NotificationRepository
	challengeRepo    repositories.ChallengeRepository
	emailLogRepo     repositories.EmailLogRepository
	emailProvider    email.Provider
	store            storage.Storage
	host             *mediahost.Client
}

func NewAdminService(
	userRepo repositories.UserRepository,
	documentRepo repositories.DocumentRepository,
	videoRepo repositories.VideoRepository,
	meetingRepo repositories.MeetingRepository,
	notificationRepo repositories.NotificationRepository,
	challengeRepo repositories.ChallengeRepository,
	emailLogRepo repositories.EmailLogRepository,
	emailProvider email.Provider,
	store storage.Storage,
	host *mediahost.Client,
) AdminService {
	return &AdminServiceImpl{
		userRepo:         userRepo,
		documentRepo:     documentRepo,
		videoRepo:        videoRepo,
		meetingRepo:      meetingRepo,
		notificationRepo: notificationRepo,
		challengeRepo:    challengeRepo,
		emailLogRepo:     emailLogRepo,
		emailProvider:    emailProvider,
		store:            store,
		host:             host,
	}
}

func (s *AdminServiceImpl) ListUsers(db *gorm.DB, query *dto.ListUsersQuery) (*dto.PaginatedResponse, error) {
	page, pageSize := query.Page, query.PageSize
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	users, total, err := s.userRepo.Search(db, query.Search, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	items := make([]*dto.UserDTO, 0, len(users))
	for i := range users {
		items = append(items, dto.NewUserDTO(&users[i]))
	}
	return dto.NewPaginatedResponse(items, total, page, pageSize), nil
}

// GetUserDetails - карточка пользователя со всеми его артефактами
func (s *AdminServiceImpl) GetUserDetails(db *gorm.DB, userID string) (*dto.AdminUserDetails, error) {
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.InternalError(err)
	}

	documents, err := s.documentRepo.FindAllForUser(db, userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	videos, err := s.videoRepo.FindAllForUser(db, userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	meetings, err := s.meetingRepo.FindForUser(db, userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	return &dto.AdminUserDetails{
		User:      dto.NewUserDTO(user),
		Documents: dto.NewDocumentDTOs(documents),
		Videos:    dto.NewVideoDTOs(videos),
		Meetings:  dto.NewMeetingDTOs(meetings),
	}, nil
}

// BanUser блокирует аккаунт. Выданные токены отклоняются со
// следующего же запроса за счет перечитывания статуса в middleware
func (s *AdminServiceImpl) BanUser(db *gorm.DB, userID string) error {
	return s.setStatus(db, userID, models.UserStatusBanned)
}

func (s *AdminServiceImpl) UnbanUser(db *gorm.DB, userID string) error {
	return s.setStatus(db, userID, models.UserStatusActive)
}

func (s *AdminServiceImpl) setStatus(db *gorm.DB, userID string, status models.UserStatus) error {
	if err := s.userRepo.UpdateStatus(db, userID, status); err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return apperrors.ErrUserNotFound
		}
		return apperrors.InternalError(err)
	}
	return nil
}

// DeleteUser удаляет аккаунт и каскадом все его артефакты.
// Записи в базе уходят одной транзакцией; внешние объекты (файлы,
// ролики на хостинге) чистятся после, неудача там оставляет только
// сирот снаружи, но не полузаписанное состояние в базе. Такие
// сироты перечисляются в результате, а не прячутся в логах.
func (s *AdminServiceImpl) DeleteUser(ctx context.Context, db *gorm.DB, userID string) (*dto.DeleteUserResult, error) {
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.InternalError(err)
	}

	documents, err := s.documentRepo.FindAllForUser(db, userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	videos, err := s.videoRepo.FindAllForUser(db, userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := s.documentRepo.DeleteAllForUser(tx, userID); err != nil {
			return err
		}
		if err := s.videoRepo.DeleteAllForUser(tx, userID); err != nil {
			return err
		}
		if err := s.meetingRepo.DeleteAllForUser(tx, userID); err != nil {
			return err
		}
		if err := s.notificationRepo.DeleteAllForUser(tx, userID); err != nil {
			return err
		}
		if err := s.challengeRepo.DeleteAllForUser(tx, userID); err != nil {
			return err
		}
		return s.userRepo.Delete(tx, userID)
	})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	result := &dto.DeleteUserResult{}
	for _, doc := range documents {
		if err := s.store.Delete(ctx, doc.StorageKey); err != nil {
			logger.WithError(err).Warn("failed to delete document object during cascade", "key", doc.StorageKey)
			result.FailedCleanups = append(result.FailedCleanups, doc.StorageKey)
		}
	}
	for _, video := range videos {
		if err := s.host.Delete(ctx, video.HostURI); err != nil && !apperrors.Is(err, mediahost.ErrVideoNotFound) {
			logger.WithError(err).Warn("failed to delete hosted video during cascade", "uri", video.HostURI)
			result.FailedCleanups = append(result.FailedCleanups, video.HostURI)
		}
	}

	logger.Info("user account deleted",
		"user_id", userID,
		"email", user.Email,
		"failed_cleanups", len(result.FailedCleanups),
	)
	return result, nil
}

// SendEmail отправляет письмо от имени админки.
// Запись в истории появляется только после успешной доставки.
func (s *AdminServiceImpl) SendEmail(db *gorm.DB, adminID string, req *dto.SendEmailRequest, attachments []email.Attachment) error {
	msg := &email.Message{
		To:          req.To,
		Cc:          req.Cc,
		Subject:     req.Subject,
		Body:        req.Message,
		Attachments: attachments,
	}
	if err := s.emailProvider.Send(msg); err != nil {
		return apperrors.ErrDeliveryFailed(err)
	}

	attachmentNames := make([]string, 0, len(attachments))
	for _, a := range attachments {
		attachmentNames = append(attachmentNames, a.Name)
	}

	record := &models.EmailLog{
		To:          req.To,
		Cc:          req.Cc,
		Subject:     req.Subject,
		Message:     req.Message,
		Attachments: attachmentNames,
		SentBy:      adminID,
	}
	if err := s.emailLogRepo.Create(db, record); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *AdminServiceImpl) EmailHistory(db *gorm.DB, search string, page, pageSize int) (*dto.PaginatedResponse, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	logs, total, err := s.emailLogRepo.FindWithFilter(db, repositories.EmailLogFilter{
		Search:   search,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	items := make([]*dto.EmailLogDTO, 0, len(logs))
	for i := range logs {
		items = append(items, dto.NewEmailLogDTO(&logs[i]))
	}
	return dto.NewPaginatedResponse(items, total, page, pageSize), nil
}

func (s *AdminServiceImpl) Stats(db *gorm.DB) (*dto.AdminStats, error) {
	totalUsers, err := s.userRepo.CountAll(db)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	usersByPlan, err := s.userRepo.CountByPlan(db)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	totalDocuments, err := s.documentRepo.CountAll(db)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	totalVideos, err := s.videoRepo.CountAll(db)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	totalMeetings, err := s.meetingRepo.CountAll(db)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	return &dto.AdminStats{
		TotalUsers:     totalUsers,
		UsersByPlan:    usersByPlan,
		TotalDocuments: totalDocuments,
		TotalVideos:    totalVideos,
		TotalMeetings:  totalMeetings,
	}, nil
}
