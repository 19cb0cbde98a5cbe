package models

import "time"

// Meeting - встреча, забронированная через внешний календарный API
type Meeting struct {
	BaseModel
	Title       string        `gorm:"not null" json:"title"`
	Description string        `json:"description"`
	Datetime    time.Time     `gorm:"not null;index:idx_meeting_upcoming" json:"datetime"`
	Duration    int           `gorm:"not null" json:"duration"` // минуты
	MeetLink    string        `gorm:"not null" json:"meetLink"`
	BookingID   string        `json:"-"` // id брони в календарном сервисе
	CreatedBy   string        `gorm:"not null;index" json:"createdBy"`
	Status      MeetingStatus `gorm:"type:varchar(20);default:'scheduled';index:idx_meeting_upcoming" json:"status"`

	Participants []MeetingParticipant `gorm:"foreignKey:MeetingID;constraint:OnDelete:CASCADE" json:"participants"`
}

type MeetingParticipant struct {
	BaseModel
	MeetingID string `gorm:"not null;index" json:"-"`
	UserID    string `gorm:"index" json:"userId,omitempty"` // пустой для внешних гостей
	Email     string `gorm:"not null" json:"email"`
	Name      string `json:"name"`
}
