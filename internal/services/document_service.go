package services

import (
	"context"
	"io"
	"path"
	"time"

	"clientdesk_backend/internal/logger"
	"clientdesk_backend/internal/models"
	"clientdesk_backend/internal/repositories"
	"clientdesk_backend/internal/services/dto"
	"clientdesk_backend/internal/storage"
	"clientdesk_backend/pkg/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var documentExtensions = map[string]string{
	"application/pdf": ".pdf",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": ".xlsx",
}

// Срок жизни подписанной ссылки на скачивание
const documentLinkTTL = time.Hour

type DocumentService interface {
	Upload(ctx context.Context, db *gorm.DB, ownerID, uploaderID, fileName, contentType string, size int64, content io.Reader) (*dto.DocumentDTO, error)
	List(db *gorm.DB, userID string, query *dto.ListDocumentsQuery) (*dto.PaginatedResponse, error)
	DownloadLink(ctx context.Context, db *gorm.DB, id, userID string) (*dto.DocumentLinkDTO, error)
	Open(ctx context.Context, db *gorm.DB, id, userID string) (*models.Document, io.ReadCloser, error)
	RemoveFromDownloads(db *gorm.DB, id, userID string) (*dto.DocumentDTO, error)
	Delete(ctx context.Context, db *gorm.DB, id, userID string) error
}

type DocumentServiceImpl struct {
	documentRepo repositories.DocumentRepository
	store        storage.Storage
	maxSize      int64
	allowedTypes map[string]string
}

func NewDocumentService(documentRepo repositories.DocumentRepository, store storage.Storage, maxSize int64, allowedMIMETypes []string) DocumentService {
	allowed := make(map[string]string)
	for _, mime := range allowedMIMETypes {
		if ext, ok := documentExtensions[mime]; ok {
			allowed[mime] = ext
		}
	}
	if len(allowed) == 0 {
		allowed = documentExtensions
	}

	return &DocumentServiceImpl{
		documentRepo: documentRepo,
		store:        store,
		maxSize:      maxSize,
		allowedTypes: allowed,
	}
}

// Upload - загрузка документа в объектное хранилище.
// Запись в базе появляется только после успешной записи файла.
func (s *DocumentServiceImpl) Upload(ctx context.Context, db *gorm.DB, ownerID, uploaderID, fileName, contentType string, size int64, content io.Reader) (*dto.DocumentDTO, error) {
	ext, ok := s.allowedTypes[contentType]
	if !ok {
		return nil, apperrors.ErrInvalidFileType
	}
	if size > s.maxSize {
		return nil, apperrors.ErrFileTooLarge
	}

	key := path.Join("documents", ownerID, uuid.NewString()+ext)
	if err := s.store.Save(ctx, key, content, contentType); err != nil {
		return nil, apperrors.ExternalServiceError(err, "Failed to store document")
	}

	doc := &models.Document{
		UserID:     ownerID,
		FileName:   fileName,
		FileType:   contentType,
		FileSize:   size,
		StorageKey: key,
		URL:        s.store.URL(key),
		UploadedBy: uploaderID,
	}
	if err := s.documentRepo.Create(db, doc); err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			logger.WithError(delErr).Warn("failed to clean up orphaned document object", "key", key)
		}
		return nil, apperrors.InternalError(err)
	}

	return dto.NewDocumentDTO(doc), nil
}

func (s *DocumentServiceImpl) List(db *gorm.DB, userID string, query *dto.ListDocumentsQuery) (*dto.PaginatedResponse, error) {
	filter := repositories.DocumentFilter{
		UserID:     userID,
		Downloaded: query.Downloaded,
		Page:       query.Page,
		PageSize:   query.PageSize,
	}

	docs, total, err := s.documentRepo.FindWithFilter(db, filter)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	page, pageSize := filter.Page, filter.PageSize
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	return dto.NewPaginatedResponse(dto.NewDocumentDTOs(docs), total, page, pageSize), nil
}

// DownloadLink выдает подписанную ссылку на документ и помечает
// его скачанным
func (s *DocumentServiceImpl) DownloadLink(ctx context.Context, db *gorm.DB, id, userID string) (*dto.DocumentLinkDTO, error) {
	doc, err := s.documentRepo.FindOwned(db, id, userID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrDocumentNotFound) {
			return nil, apperrors.NewNotFoundError("Document not found")
		}
		return nil, apperrors.InternalError(err)
	}

	signedURL, err := s.store.SignedURL(ctx, doc.StorageKey, documentLinkTTL)
	if err != nil {
		return nil, apperrors.ExternalServiceError(err, "Failed to sign download link")
	}

	s.markDownloaded(db, doc)

	return &dto.DocumentLinkDTO{
		URL:       signedURL,
		FileName:  doc.FileName,
		ExpiresAt: time.Now().Add(documentLinkTTL),
	}, nil
}

// Open открывает содержимое документа потоком и помечает его скачанным
func (s *DocumentServiceImpl) Open(ctx context.Context, db *gorm.DB, id, userID string) (*models.Document, io.ReadCloser, error) {
	doc, err := s.documentRepo.FindOwned(db, id, userID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrDocumentNotFound) {
			return nil, nil, apperrors.NewNotFoundError("Document not found")
		}
		return nil, nil, apperrors.InternalError(err)
	}

	content, err := s.store.Get(ctx, doc.StorageKey)
	if err != nil {
		if apperrors.Is(err, storage.ErrObjectNotFound) {
			return nil, nil, apperrors.NewNotFoundError("Document content is missing from storage")
		}
		return nil, nil, apperrors.ExternalServiceError(err, "Failed to read document")
	}

	s.markDownloaded(db, doc)

	return doc, content, nil
}

func (s *DocumentServiceImpl) markDownloaded(db *gorm.DB, doc *models.Document) {
	if doc.Downloaded {
		return
	}
	doc.Downloaded = true
	if err := s.documentRepo.Update(db, doc); err != nil {
		logger.WithError(err).Warn("failed to mark document as downloaded", "document_id", doc.ID)
	}
}

// RemoveFromDownloads снимает отметку о скачивании: документ уходит
// из списка загруженных, но сам файл остается
func (s *DocumentServiceImpl) RemoveFromDownloads(db *gorm.DB, id, userID string) (*dto.DocumentDTO, error) {
	doc, err := s.documentRepo.FindOwned(db, id, userID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrDocumentNotFound) {
			return nil, apperrors.NewNotFoundError("Document not found")
		}
		return nil, apperrors.InternalError(err)
	}

	if doc.Downloaded {
		doc.Downloaded = false
		if err := s.documentRepo.Update(db, doc); err != nil {
			return nil, apperrors.InternalError(err)
		}
	}
	return dto.NewDocumentDTO(doc), nil
}

func (s *DocumentServiceImpl) Delete(ctx context.Context, db *gorm.DB, id, userID string) error {
	doc, err := s.documentRepo.FindOwned(db, id, userID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrDocumentNotFound) {
			return apperrors.NewNotFoundError("Document not found")
		}
		return apperrors.InternalError(err)
	}

	if err := s.documentRepo.Delete(db, doc.ID); err != nil {
		return apperrors.InternalError(err)
	}

	// Файл чистим после записи: осиротевший объект безопаснее
	// битой ссылки в выдаче
	if err := s.store.Delete(ctx, doc.StorageKey); err != nil {
		logger.WithError(err).Warn("failed to delete document object", "key", doc.StorageKey)
	}
	return nil
}
