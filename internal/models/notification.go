package models

// Notification - уведомление пользователя (встречи, биллинг)
type Notification struct {
	BaseModel
	UserID           string `gorm:"not null;index" json:"userId"`
	Type             string `gorm:"not null" json:"type"`
	Message          string `gorm:"not null" json:"message"`
	Read             bool   `gorm:"default:false" json:"read"`
	RelatedMeetingID string `json:"relatedMeetingId,omitempty"`
}
