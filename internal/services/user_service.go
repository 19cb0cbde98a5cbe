package services

import (
	"context"
	"io"
	"path"
	"strings"

	"clientdesk_backend/internal/auth"
	"clientdesk_backend/internal/challenge"
	"clientdesk_backend/internal/email"
	"clientdesk_backend/internal/imageprocessor"
	"clientdesk_backend/internal/logger"
	"clientdesk_backend/internal/models"
	"clientdesk_backend/internal/repositories"
	"clientdesk_backend/internal/services/dto"
	"clientdesk_backend/internal/storage"
	"clientdesk_backend/pkg/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxAvatarSize = 5 * 1024 * 1024

var avatarTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

type UserService interface {
	GetMe(db *gorm.DB, userID string) (*dto.UserDTO, error)
	UpdateProfile(db *gorm.DB, userID string, req *dto.UpdateProfileRequest) (*dto.UserDTO, error)
	ChangeEmailDirect(db *gorm.DB, userID string, req *dto.ChangeEmailRequest) (*dto.UserDTO, error)
	InitiateEmailChange(db *gorm.DB, userID string, req *dto.InitiateEmailChangeRequest) error
	ConfirmEmailChange(db *gorm.DB, userID string, req *dto.ConfirmEmailChangeRequest) (*dto.UserDTO, error)
	ToggleTwoFactor(db *gorm.DB, userID string, req *dto.ToggleTwoFactorRequest) (*dto.UserDTO, error)
	UploadProfilePicture(ctx context.Context, db *gorm.DB, userID, contentType string, size int64, content io.Reader) (*dto.UserDTO, error)
}

type UserServiceImpl struct {
	userRepo      repositories.UserRepository
	engine        *challenge.Engine
	emailProvider email.Provider
	store         storage.Storage
	images        *imageprocessor.Processor
}

func NewUserService(
	userRepo repositories.UserRepository,
	engine *challenge.Engine,
	emailProvider email.Provider,
	store storage.Storage,
	images *imageprocessor.Processor,
) UserService {
	return &UserServiceImpl{
		userRepo:      userRepo,
		engine:        engine,
		emailProvider: emailProvider,
		store:         store,
		images:        images,
	}
}

func (s *UserServiceImpl) GetMe(db *gorm.DB, userID string) (*dto.UserDTO, error) {
	user, err := s.findUser(db, userID)
	if err != nil {
		return nil, err
	}
	return dto.NewUserDTO(user), nil
}

// UpdateProfile - правка имени. Пустые поля запроса не трогаются
func (s *UserServiceImpl) UpdateProfile(db *gorm.DB, userID string, req *dto.UpdateProfileRequest) (*dto.UserDTO, error) {
	user, err := s.findUser(db, userID)
	if err != nil {
		return nil, err
	}

	if req.FirstName != "" {
		user.FirstName = req.FirstName
	}
	if req.LastName != "" {
		user.LastName = req.LastName
	}

	if err := s.userRepo.Update(db, user); err != nil {
		return nil, mapUserUpdateError(err)
	}
	return dto.NewUserDTO(user), nil
}

// ChangeEmailDirect - немедленная смена email с доказательством пароля
func (s *UserServiceImpl) ChangeEmailDirect(db *gorm.DB, userID string, req *dto.ChangeEmailRequest) (*dto.UserDTO, error) {
	user, err := s.findUser(db, userID)
	if err != nil {
		return nil, err
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}

	newEmail := normalizeEmail(req.NewEmail)
	if newEmail != user.Email {
		taken, err := s.userRepo.EmailTaken(db, newEmail)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		if taken {
			return nil, apperrors.ErrEmailAlreadyExists
		}
	}

	user.Email = newEmail
	user.PendingNewEmail = ""
	if err := s.userRepo.Update(db, user); err != nil {
		return nil, mapUserUpdateError(err)
	}
	return dto.NewUserDTO(user), nil
}

// InitiateEmailChange - первый шаг верифицированной смены email.
// Код уходит на НОВЫЙ адрес: владение новым ящиком авторизует смену.
// При занятом адресе pending-поля не трогаются вовсе.
func (s *UserServiceImpl) InitiateEmailChange(db *gorm.DB, userID string, req *dto.InitiateEmailChangeRequest) error {
	user, err := s.findUser(db, userID)
	if err != nil {
		return err
	}

	newEmail := normalizeEmail(req.NewEmail)
	taken, err := s.userRepo.EmailTaken(db, newEmail)
	if err != nil {
		return apperrors.InternalError(err)
	}
	if taken {
		return apperrors.ErrEmailAlreadyExists
	}

	err = s.engine.Issue(db, user.ID, models.PurposeEmailChange, func(code string) error {
		return s.emailProvider.SendVerificationCode(newEmail, user.FirstName, code, "email change")
	})
	if err != nil {
		return err
	}

	user.PendingNewEmail = newEmail
	if err := s.userRepo.Update(db, user); err != nil {
		return mapUserUpdateError(err)
	}
	return nil
}

// ConfirmEmailChange - второй шаг: смена применяется только при точном
// совпадении и кандидата, и кода
func (s *UserServiceImpl) ConfirmEmailChange(db *gorm.DB, userID string, req *dto.ConfirmEmailChangeRequest) (*dto.UserDTO, error) {
	user, err := s.findUser(db, userID)
	if err != nil {
		return nil, err
	}

	if user.PendingNewEmail == "" {
		return nil, apperrors.ErrNoPendingEmailChange
	}
	if normalizeEmail(req.NewEmail) != user.PendingNewEmail {
		return nil, apperrors.ErrInvalidCode
	}

	if err := s.engine.Validate(db, user.ID, models.PurposeEmailChange, req.Code); err != nil {
		return nil, err
	}

	// Адрес могли занять между initiate и confirm
	taken, err := s.userRepo.EmailTaken(db, user.PendingNewEmail)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if taken {
		return nil, apperrors.ErrEmailAlreadyExists
	}

	user.Email = user.PendingNewEmail
	user.PendingNewEmail = ""
	if err := s.userRepo.Update(db, user); err != nil {
		return nil, mapUserUpdateError(err)
	}
	return dto.NewUserDTO(user), nil
}

// ToggleTwoFactor - включение/выключение второго фактора с паролем
func (s *UserServiceImpl) ToggleTwoFactor(db *gorm.DB, userID string, req *dto.ToggleTwoFactorRequest) (*dto.UserDTO, error) {
	user, err := s.findUser(db, userID)
	if err != nil {
		return nil, err
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}

	user.TwoFactorEnabled = req.Enabled
	if err := s.userRepo.Update(db, user); err != nil {
		return nil, mapUserUpdateError(err)
	}
	return dto.NewUserDTO(user), nil
}

// UploadProfilePicture - загрузка аватара в объектное хранилище
func (s *UserServiceImpl) UploadProfilePicture(ctx context.Context, db *gorm.DB, userID, contentType string, size int64, content io.Reader) (*dto.UserDTO, error) {
	user, err := s.findUser(db, userID)
	if err != nil {
		return nil, err
	}

	if !avatarTypes[contentType] {
		return nil, apperrors.ErrInvalidFileType
	}
	if size > maxAvatarSize {
		return nil, apperrors.ErrFileTooLarge
	}

	// Картинка ужимается до размеров аватара и пересохраняется,
	// в хранилище не попадают исходники произвольных габаритов
	normalized, storedType, err := s.images.NormalizeAvatar(content)
	if err != nil {
		return nil, apperrors.ErrInvalidFileType
	}
	ext := ".png"
	if storedType == "image/jpeg" {
		ext = ".jpg"
	}

	key := path.Join("avatars", user.ID, uuid.NewString()+ext)
	if err := s.store.Save(ctx, key, normalized, storedType); err != nil {
		return nil, apperrors.ExternalServiceError(err, "Failed to store profile picture")
	}

	oldPicture := user.ProfilePicture
	user.ProfilePicture = s.store.URL(key)
	if err := s.userRepo.Update(db, user); err != nil {
		// Запись не обновилась, загруженный объект осиротел - подчищаем
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			logger.WithError(delErr).Warn("failed to clean up orphaned avatar", "key", key)
		}
		return nil, mapUserUpdateError(err)
	}

	if oldPicture != "" {
		if oldKey, found := strings.CutPrefix(oldPicture, s.store.URL("")); found {
			if err := s.store.Delete(ctx, strings.TrimPrefix(oldKey, "/")); err != nil {
				logger.WithError(err).Warn("failed to delete previous avatar", "user_id", user.ID)
			}
		}
	}

	return dto.NewUserDTO(user), nil
}

func (s *UserServiceImpl) findUser(db *gorm.DB, userID string) (*models.User, error) {
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.InternalError(err)
	}
	return user, nil
}

func mapUserUpdateError(err error) error {
	switch {
	case apperrors.Is(err, repositories.ErrVersionConflict):
		return apperrors.ErrVersionConflict
	case apperrors.Is(err, repositories.ErrUserAlreadyExists):
		return apperrors.ErrEmailAlreadyExists
	case apperrors.Is(err, repositories.ErrUserNotFound):
		return apperrors.ErrUserNotFound
	default:
		return apperrors.InternalError(err)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
