package repositories

import (
	"clientdesk_backend/internal/models"

	"gorm.io/gorm"
)

type EmailLogFilter struct {
	Search   string // по to/cc/subject
	ToEmail  string
	Page     int
	PageSize int
}

type EmailLogRepository interface {
	Create(db *gorm.DB, email *models.EmailLog) error
	FindWithFilter(db *gorm.DB, filter EmailLogFilter) ([]models.EmailLog, int64, error)
}

type EmailLogRepositoryImpl struct{}

func NewEmailLogRepository() EmailLogRepository {
	return &EmailLogRepositoryImpl{}
}

func (r *EmailLogRepositoryImpl) Create(db *gorm.DB, email *models.EmailLog) error {
	return db.Create(email).Error
}

func (r *EmailLogRepositoryImpl) FindWithFilter(db *gorm.DB, filter EmailLogFilter) ([]models.EmailLog, int64, error) {
	query := db.Model(&models.EmailLog{})

	if filter.Search != "" {
		// Поля to/cc сериализованы в JSON-текст, LIKE по нему достаточно для поиска
		pattern := "%" + filter.Search + "%"
		query = query.Where("subject LIKE ? OR \"to\" LIKE ? OR cc LIKE ?", pattern, pattern, pattern)
	}
	if filter.ToEmail != "" {
		query = query.Where("\"to\" LIKE ?", "%"+filter.ToEmail+"%")
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

	var emails []models.EmailLog
	err := query.Order("created_at DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&emails).Error
	return emails, total, err
}
