package dto

import (
	"time"

	"clientdesk_backend/internal/models"
)

// DocumentDTO - публичное представление документа
type DocumentDTO struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	FileName   string    `json:"fileName"`
	FileType   string    `json:"fileType"`
	FileSize   int64     `json:"fileSize"`
	URL        string    `json:"url"`
	Downloaded bool      `json:"downloaded"`
	UploadedBy string    `json:"uploadedBy"`
	CreatedAt  time.Time `json:"createdAt"`
}

func NewDocumentDTO(doc *models.Document) *DocumentDTO {
	return &DocumentDTO{
		ID:         doc.ID,
		UserID:     doc.UserID,
		FileName:   doc.FileName,
		FileType:   doc.FileType,
		FileSize:   doc.FileSize,
		URL:        doc.URL,
		Downloaded: doc.Downloaded,
		UploadedBy: doc.UploadedBy,
		CreatedAt:  doc.CreatedAt,
	}
}

func NewDocumentDTOs(docs []models.Document) []*DocumentDTO {
	out := make([]*DocumentDTO, 0, len(docs))
	for i := range docs {
		out = append(out, NewDocumentDTO(&docs[i]))
	}
	return out
}

// DocumentLinkDTO - временная ссылка на скачивание
type DocumentLinkDTO struct {
	URL       string    `json:"url"`
	FileName  string    `json:"fileName"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ListDocumentsQuery - фильтры списка документов
type ListDocumentsQuery struct {
	Downloaded *bool `form:"downloaded"`
	Page       int   `form:"page"`
	PageSize   int   `form:"pageSize"`
}
