package dto

import (
	"time"

	"clientdesk_backend/internal/models"
)

// NotificationDTO - публичное представление уведомления
type NotificationDTO struct {
	ID               string    `json:"id"`
	Type             string    `json:"type"`
	Message          string    `json:"message"`
	Read             bool      `json:"read"`
	RelatedMeetingID string    `json:"relatedMeetingId,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

func NewNotificationDTO(n *models.Notification) *NotificationDTO {
	return &NotificationDTO{
		ID:               n.ID,
		Type:             n.Type,
		Message:          n.Message,
		Read:             n.Read,
		RelatedMeetingID: n.RelatedMeetingID,
		CreatedAt:        n.CreatedAt,
	}
}

func NewNotificationDTOs(items []models.Notification) []*NotificationDTO {
	out := make([]*NotificationDTO, 0, len(items))
	for i := range items {
		out = append(out, NewNotificationDTO(&items[i]))
	}
	return out
}
