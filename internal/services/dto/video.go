package dto

import (
	"time"

	"clientdesk_backend/internal/models"
)

// VideoDTO - публичное представление видео
type VideoDTO struct {
	ID          string             `json:"id"`
	UserID      string             `json:"userId"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	PlaybackURL string             `json:"playbackUrl"`
	Status      models.VideoStatus `json:"status"`
	UploadedBy  string             `json:"uploadedBy"`
	CreatedAt   time.Time          `json:"createdAt"`
}

func NewVideoDTO(video *models.Video) *VideoDTO {
	return &VideoDTO{
		ID:          video.ID,
		UserID:      video.UserID,
		Title:       video.Title,
		Description: video.Description,
		PlaybackURL: video.PlaybackURL,
		Status:      video.Status,
		UploadedBy:  video.UploadedBy,
		CreatedAt:   video.CreatedAt,
	}
}

func NewVideoDTOs(videos []models.Video) []*VideoDTO {
	out := make([]*VideoDTO, 0, len(videos))
	for i := range videos {
		out = append(out, NewVideoDTO(&videos[i]))
	}
	return out
}
