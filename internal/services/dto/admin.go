package dto

import (
	"time"

	"clientdesk_backend/internal/models"
)

// ListUsersQuery - фильтры списка пользователей в админке
type ListUsersQuery struct {
	Search   string `form:"search"`
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
}

// AdminUserDetails - карточка пользователя со всеми артефактами
type AdminUserDetails struct {
	User      *UserDTO       `json:"user"`
	Documents []*DocumentDTO `json:"documents"`
	Videos    []*VideoDTO    `json:"videos"`
	Meetings  []*MeetingDTO  `json:"meetings"`
}

// SendEmailRequest - отправка письма из админки
type SendEmailRequest struct {
	To      []string `json:"to" binding:"required,min=1,dive,email"`
	Cc      []string `json:"cc" binding:"omitempty,dive,email"`
	Subject string   `json:"subject" binding:"required"`
	Message string   `json:"message" binding:"required"`
}

// EmailLogDTO - запись истории отправленных писем
type EmailLogDTO struct {
	ID          string    `json:"id"`
	To          []string  `json:"to"`
	Cc          []string  `json:"cc,omitempty"`
	Subject     string    `json:"subject"`
	Message     string    `json:"message"`
	Attachments []string  `json:"attachments,omitempty"`
	SentBy      string    `json:"sentBy"`
	CreatedAt   time.Time `json:"createdAt"`
}

func NewEmailLogDTO(log *models.EmailLog) *EmailLogDTO {
	return &EmailLogDTO{
		ID:          log.ID,
		To:          log.To,
		Cc:          log.Cc,
		Subject:     log.Subject,
		Message:     log.Message,
		Attachments: log.Attachments,
		SentBy:      log.SentBy,
		CreatedAt:   log.CreatedAt,
	}
}

// DeleteUserResult - итог каскадного удаления аккаунта.
// FailedCleanups перечисляет внешние объекты (ключи хранилища,
// URI хостинга), которые не удалось почистить: записи в базе при
// этом удалены полностью.
type DeleteUserResult struct {
	FailedCleanups []string `json:"failedCleanups,omitempty"`
}

// AdminStats - сводка по платформе
type AdminStats struct {
	TotalUsers     int64            `json:"totalUsers"`
	UsersByPlan    map[string]int64 `json:"usersByPlan"`
	TotalDocuments int64            `json:"totalDocuments"`
	TotalVideos    int64            `json:"totalVideos"`
	TotalMeetings  int64            `json:"totalMeetings"`
}
