package repositories

import (
	"errors"

	"clientdesk_backend/internal/models"

	"gorm.io/gorm"
)

var ErrDocumentNotFound = errors.New("document not found")

type DocumentFilter struct {
	UserID     string
	Downloaded *bool
	Page       int
	PageSize   int
}

type DocumentRepository interface {
	Create(db *gorm.DB, doc *models.Document) error
	FindByID(db *gorm.DB, id string) (*models.Document, error)
	FindOwned(db *gorm.DB, id, userID string) (*models.Document, error)
	FindWithFilter(db *gorm.DB, filter DocumentFilter) ([]models.Document, int64, error)
	FindAllForUser(db *gorm.DB, userID string) ([]models.Document, error)
	Update(db *gorm.DB, doc *models.Document) error
	Delete(db *gorm.DB, id string) error
	DeleteAllForUser(db *gorm.DB, userID string) error
	CountAll(db *gorm.DB) (int64, error)
}

type DocumentRepositoryImpl struct{}

func NewDocumentRepository() DocumentRepository {
	return &DocumentRepositoryImpl{}
}

func (r *DocumentRepositoryImpl) Create(db *gorm.DB, doc *models.Document) error {
	return db.Create(doc).Error
}

func (r *DocumentRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Document, error) {
	var doc models.Document
	err := db.First(&doc, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	return &doc, nil
}

// FindOwned находит документ только среди принадлежащих пользователю
func (r *DocumentRepositoryImpl) FindOwned(db *gorm.DB, id, userID string) (*models.Document, error) {
	var doc models.Document
	err := db.First(&doc, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	return &doc, nil
}

func (r *DocumentRepositoryImpl) FindWithFilter(db *gorm.DB, filter DocumentFilter) ([]models.Document, int64, error) {
	query := db.Model(&models.Document{})

	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Downloaded != nil {
		query = query.Where("downloaded = ?", *filter.Downloaded)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}

	var docs []models.Document
	err := query.Order("created_at DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&docs).Error
	return docs, total, err
}

func (r *DocumentRepositoryImpl) FindAllForUser(db *gorm.DB, userID string) ([]models.Document, error) {
	var docs []models.Document
	err := db.Where("user_id = ?", userID).Order("created_at DESC").Find(&docs).Error
	return docs, err
}

func (r *DocumentRepositoryImpl) Update(db *gorm.DB, doc *models.Document) error {
	return db.Save(doc).Error
}

func (r *DocumentRepositoryImpl) Delete(db *gorm.DB, id string) error {
	return db.Delete(&models.Document{}, "id = ?", id).Error
}

func (r *DocumentRepositoryImpl) DeleteAllForUser(db *gorm.DB, userID string) error {
	return db.Where("user_id = ?", userID).Delete(&models.Document{}).Error
}

func (r *DocumentRepositoryImpl) CountAll(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&models.Document{}).Count(&count).Error
	return count, err
}
