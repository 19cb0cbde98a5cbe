package services

import (
	"clientdesk_backend/internal/auth"
	"clientdesk_backend/internal/challenge"
	"clientdesk_backend/internal/email"
	"clientdesk_backend/internal/logger"
	"clientdesk_backend/internal/models"
	"clientdesk_backend/internal/repositories"
	"clientdesk_backend/internal/services/dto"
	"clientdesk_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type AuthService interface {
	Register(db *gorm.DB, req *dto.RegisterRequest) (*dto.RegisterResponse, error)
	Login(db *gorm.DB, req *dto.LoginRequest) (*dto.LoginResponse, error)
	VerifyCode(db *gorm.DB, req *dto.VerifyCodeRequest) (*dto.LoginResponse, error)
	ForgotPassword(db *gorm.DB, req *dto.ForgotPasswordRequest) error
	ResetPassword(db *gorm.DB, req *dto.ResetPasswordRequest) error
	ChangePassword(db *gorm.DB, userID string, req *dto.ChangePasswordRequest) error
}

type AuthServiceImpl struct {
	userRepo      repositories.UserRepository
	engine        *challenge.Engine
	emailProvider email.Provider
}

func NewAuthService(
	userRepo repositories.UserRepository,
	engine *challenge.Engine,
	emailProvider email.Provider,
) AuthService {
	return &AuthServiceImpl{
		userRepo:      userRepo,
		engine:        engine,
		emailProvider: emailProvider,
	}
}

// Register - регистрация нового пользователя.
// Завершается всегда шагом подтверждения: код уходит на указанный email.
func (s *AuthServiceImpl) Register(db *gorm.DB, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, apperrors.ErrWeakPassword
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	user := &models.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: hashedPassword,
		Role:         models.UserRoleUser,
		Status:       models.UserStatusActive,
	}

	if err := s.userRepo.Create(db, user); err != nil {
		if apperrors.Is(err, repositories.ErrUserAlreadyExists) {
			return nil, apperrors.ErrEmailAlreadyExists
		}
		return nil, apperrors.InternalError(err)
	}

	err = s.engine.Issue(db, user.ID, models.PurposeRegistration, func(code string) error {
		return s.emailProvider.SendVerificationCode(user.Email, user.FirstName, code, "registration")
	})
	if err != nil {
		// Без доставленного кода аккаунт завершить нельзя, откатываем,
		// чтобы повторная регистрация не упиралась в занятый email
		if delErr := s.userRepo.Delete(db, user.ID); delErr != nil {
			logger.WithError(delErr).Error("failed to roll back unverified registration", "user_id", user.ID)
		}
		return nil, err
	}

	return &dto.RegisterResponse{
		RequiresVerification: true,
		Email:                user.Email,
		RedirectTo:           "/verify-2fa",
	}, nil
}

// Login - аутентификация. Админ получает токен сразу, обычный
// пользователь проходит второй шаг с кодом на email.
func (s *AuthServiceImpl) Login(db *gorm.DB, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(db, req.Email)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.InternalError(err)
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}

	// Бан блокирует вход даже с верным паролем, код не выдается
	if user.Status == models.UserStatusBanned {
		return nil, apperrors.ErrUserBanned
	}

	if user.IsAdmin() {
		token, err := auth.GenerateToken(user.ID, string(user.Role))
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		return &dto.LoginResponse{
			Token: token,
			User:  dto.NewUserDTO(user),
		}, nil
	}

	err = s.engine.Issue(db, user.ID, models.PurposeLogin, func(code string) error {
		return s.emailProvider.SendVerificationCode(user.Email, user.FirstName, code, "login")
	})
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		RequiresVerification: true,
		Email:                user.Email,
	}, nil
}

// VerifyCode - второй шаг регистрации или входа, выдает токен
func (s *AuthServiceImpl) VerifyCode(db *gorm.DB, req *dto.VerifyCodeRequest) (*dto.LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(db, req.Email)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCode
		}
		return nil, apperrors.InternalError(err)
	}

	if user.Status == models.UserStatusBanned {
		return nil, apperrors.ErrUserBanned
	}

	purpose := models.PurposeRegistration
	if req.IsLogin {
		purpose = models.PurposeLogin
	}

	if err := s.engine.Validate(db, user.ID, purpose, req.Code); err != nil {
		return nil, err
	}

	token, err := auth.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	return &dto.LoginResponse{
		Token: token,
		User:  dto.NewUserDTO(user),
	}, nil
}

// ForgotPassword - выдача кода сброса пароля
func (s *AuthServiceImpl) ForgotPassword(db *gorm.DB, req *dto.ForgotPasswordRequest) error {
	user, err := s.userRepo.FindByEmail(db, req.Email)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return apperrors.ErrUserNotFound
		}
		return apperrors.InternalError(err)
	}

	if user.Status == models.UserStatusBanned {
		return apperrors.ErrUserBanned
	}

	return s.engine.Issue(db, user.ID, models.PurposePasswordReset, func(code string) error {
		return s.emailProvider.SendVerificationCode(user.Email, user.FirstName, code, "password reset")
	})
}

// ResetPassword - установка нового пароля по коду сброса
func (s *AuthServiceImpl) ResetPassword(db *gorm.DB, req *dto.ResetPasswordRequest) error {
	user, err := s.userRepo.FindByEmail(db, req.Email)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return apperrors.ErrInvalidCode
		}
		return apperrors.InternalError(err)
	}

	if err := auth.ValidatePassword(req.NewPassword); err != nil {
		return apperrors.ErrWeakPassword
	}

	if err := s.engine.Validate(db, user.ID, models.PurposePasswordReset, req.Code); err != nil {
		return err
	}

	hashedPassword, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return apperrors.InternalError(err)
	}

	user.PasswordHash = hashedPassword
	if err := s.userRepo.Update(db, user); err != nil {
		return mapUserUpdateError(err)
	}
	return nil
}

// ChangePassword - смена пароля с доказательством текущего
func (s *AuthServiceImpl) ChangePassword(db *gorm.DB, userID string, req *dto.ChangePasswordRequest) error {
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrUserNotFound) {
			return apperrors.ErrUserNotFound
		}
		return apperrors.InternalError(err)
	}

	if !auth.CheckPasswordHash(req.CurrentPassword, user.PasswordHash) {
		return apperrors.ErrInvalidCredentials
	}

	if err := auth.ValidatePassword(req.NewPassword); err != nil {
		return apperrors.ErrWeakPassword
	}

	hashedPassword, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return apperrors.InternalError(err)
	}

	user.PasswordHash = hashedPassword
	if err := s.userRepo.Update(db, user); err != nil {
		return mapUserUpdateError(err)
	}
	return nil
}
