package dto

import (
	"time"

	"clientdesk_backend/internal/models"
)

// RegisterRequest - запрос регистрации
type RegisterRequest struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
}

// RegisterResponse - регистрация всегда заканчивается шагом подтверждения
type RegisterResponse struct {
	RequiresVerification bool   `json:"requiresVerification"`
	Email                string `json:"email"`
	RedirectTo           string `json:"redirectTo"`
}

// LoginRequest - запрос входа
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse - либо токен сразу (админ), либо шаг подтверждения
type LoginResponse struct {
	RequiresVerification bool     `json:"requiresVerification,omitempty"`
	Email                string   `json:"email,omitempty"`
	Token                string   `json:"token,omitempty"`
	User                 *UserDTO `json:"user,omitempty"`
}

// VerifyCodeRequest - подтверждение кода второго шага
type VerifyCodeRequest struct {
	Email   string `json:"email" binding:"required,email"`
	Code    string `json:"code" binding:"required,len=6"`
	IsLogin bool   `json:"isLogin"`
}

// ForgotPasswordRequest - запрос кода сброса пароля
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest - сброс пароля по коду
type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Code        string `json:"code" binding:"required,len=6"`
	NewPassword string `json:"newPassword" binding:"required,min=8"`
}

// ChangePasswordRequest - смена пароля с доказательством текущего
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8"`
}

// UserDTO - публичное представление пользователя
type UserDTO struct {
	ID               string                  `json:"id"`
	FirstName        string                  `json:"firstName"`
	LastName         string                  `json:"lastName"`
	Email            string                  `json:"email"`
	Role             models.UserRole         `json:"role"`
	Status           models.UserStatus       `json:"status"`
	TwoFactorEnabled bool                    `json:"twoFactorEnabled"`
	ProfilePicture   string                  `json:"profilePicture,omitempty"`
	Subscription     *SubscriptionDTO        `json:"subscription,omitempty"`
	CreatedAt        time.Time               `json:"createdAt"`
}

// NewUserDTO собирает публичное представление из модели
func NewUserDTO(user *models.User) *UserDTO {
	dto := &UserDTO{
		ID:               user.ID,
		FirstName:        user.FirstName,
		LastName:         user.LastName,
		Email:            user.Email,
		Role:             user.Role,
		Status:           user.Status,
		TwoFactorEnabled: user.TwoFactorEnabled,
		ProfilePicture:   user.ProfilePicture,
		CreatedAt:        user.CreatedAt,
	}
	if user.Subscription.Plan != "" {
		dto.Subscription = NewSubscriptionDTO(&user.Subscription)
	}
	return dto
}
