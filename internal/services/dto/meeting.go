package dto

import (
	"time"

	"clientdesk_backend/internal/models"
)

// CreateMeetingRequest - бронирование встречи
type CreateMeetingRequest struct {
	Title        string    `json:"title" binding:"required"`
	Description  string    `json:"description"`
	Datetime     time.Time `json:"datetime" binding:"required"`
	Duration     int       `json:"duration" binding:"required,min=5,max=480"`
	Participants []MeetingParticipantInput `json:"participants" binding:"required,min=1,dive"`
}

// MeetingParticipantInput - участник в запросе бронирования
type MeetingParticipantInput struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name"`
}

// MeetingDTO - публичное представление встречи
type MeetingDTO struct {
	ID           string                `json:"id"`
	Title        string                `json:"title"`
	Description  string                `json:"description,omitempty"`
	Datetime     time.Time             `json:"datetime"`
	Duration     int                   `json:"duration"`
	MeetLink     string                `json:"meetLink"`
	CreatedBy    string                `json:"createdBy"`
	Status       models.MeetingStatus  `json:"status"`
	Participants []ParticipantDTO      `json:"participants"`
}

// ParticipantDTO - участник встречи в ответе
type ParticipantDTO struct {
	UserID string `json:"userId,omitempty"`
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
}

func NewMeetingDTO(meeting *models.Meeting) *MeetingDTO {
	participants := make([]ParticipantDTO, 0, len(meeting.Participants))
	for _, p := range meeting.Participants {
		participants = append(participants, ParticipantDTO{
			UserID: p.UserID,
			Email:  p.Email,
			Name:   p.Name,
		})
	}
	return &MeetingDTO{
		ID:           meeting.ID,
		Title:        meeting.Title,
		Description:  meeting.Description,
		Datetime:     meeting.Datetime,
		Duration:     meeting.Duration,
		MeetLink:     meeting.MeetLink,
		CreatedBy:    meeting.CreatedBy,
		Status:       meeting.Status,
		Participants: participants,
	}
}

func NewMeetingDTOs(meetings []models.Meeting) []*MeetingDTO {
	out := make([]*MeetingDTO, 0, len(meetings))
	for i := range meetings {
		out = append(out, NewMeetingDTO(&meetings[i]))
	}
	return out
}
