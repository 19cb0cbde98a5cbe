package repositories

import (
	"errors"
	"strings"

	"clientdesk_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrVersionConflict   = errors.New("concurrent modification of user record")
)

type UserRepository interface {
	FindByID(db *gorm.DB, id string) (*models.User, error)
	FindActiveByID(db *gorm.DB, id string) (*models.User, error)
	FindByEmail(db *gorm.DB, email string) (*models.User, error)
	FindByBillingCustomer(db *gorm.DB, customerID string) (*models.User, error)
	EmailTaken(db *gorm.DB, email string) (bool, error)
	Create(db *gorm.DB, user *models.User) error
	Update(db *gorm.DB, user *models.User) error
	UpdateStatus(db *gorm.DB, userID string, status models.UserStatus) error
	Delete(db *gorm.DB, userID string) error
	Search(db *gorm.DB, query string, limit, offset int) ([]models.User, int64, error)
	CountAll(db *gorm.DB) (int64, error)
	CountByPlan(db *gorm.DB) (map[string]int64, error)
}

type UserRepositoryImpl struct{}

func NewUserRepository() UserRepository {
	return &UserRepositoryImpl{}
}

func (r *UserRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.User, error) {
	var user models.User
	err := db.First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindActiveByID - выборка для authorization middleware: забаненный
// пользователь не находится, его валидный токен отклоняется.
func (r *UserRepositoryImpl) FindActiveByID(db *gorm.DB, id string) (*models.User, error) {
	var user models.User
	err := db.First(&user, "id = ? AND status = ?", id, models.UserStatusActive).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryImpl) FindByEmail(db *gorm.DB, email string) (*models.User, error) {
	var user models.User
	err := db.First(&user, "email = ?", normalizeEmail(email)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryImpl) FindByBillingCustomer(db *gorm.DB, customerID string) (*models.User, error) {
	var user models.User
	err := db.First(&user, "subscription_customer_id = ?", customerID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryImpl) EmailTaken(db *gorm.DB, email string) (bool, error) {
	var count int64
	err := db.Model(&models.User{}).Where("email = ?", normalizeEmail(email)).Count(&count).Error
	return count > 0, err
}

func (r *UserRepositoryImpl) Create(db *gorm.DB, user *models.User) error {
	user.Email = normalizeEmail(user.Email)

	taken, err := r.EmailTaken(db, user.Email)
	if err != nil {
		return err
	}
	if taken {
		return ErrUserAlreadyExists
	}

	return db.Create(user).Error
}

// Update - compare-and-swap по колонке version. Две конкурирующие
// модификации одной записи не могут молча затереть друг друга:
// проигравшая получает ErrVersionConflict.
func (r *UserRepositoryImpl) Update(db *gorm.DB, user *models.User) error {
	user.Email = normalizeEmail(user.Email)

	currentVersion := user.Version
	user.Version = currentVersion + 1

	res := db.Model(&models.User{}).
		Where("id = ? AND version = ?", user.ID, currentVersion).
		Select("*").
		Omit("id", "created_at").
		Updates(user)
	if res.Error != nil {
		user.Version = currentVersion
		return res.Error
	}
	if res.RowsAffected == 0 {
		user.Version = currentVersion
		return ErrVersionConflict
	}
	return nil
}

func (r *UserRepositoryImpl) UpdateStatus(db *gorm.DB, userID string, status models.UserStatus) error {
	res := db.Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"status":  status,
			"version": gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepositoryImpl) Delete(db *gorm.DB, userID string) error {
	return db.Delete(&models.User{}, "id = ?", userID).Error
}

// Search - листинг для админки с необязательным поиском по имени и email
func (r *UserRepositoryImpl) Search(db *gorm.DB, query string, limit, offset int) ([]models.User, int64, error) {
	q := db.Model(&models.User{})
	if query != "" {
		pattern := "%" + strings.ToLower(query) + "%"
		q = q.Where(
			"LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR email LIKE ?",
			pattern, pattern, pattern,
		)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&users).Error
	return users, total, err
}

func (r *UserRepositoryImpl) CountAll(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&models.User{}).Count(&count).Error
	return count, err
}

// CountByPlan - распределение пользователей по планам для дашборда
func (r *UserRepositoryImpl) CountByPlan(db *gorm.DB) (map[string]int64, error) {
	type row struct {
		Plan  string
		Count int64
	}
	var rows []row
	err := db.Model(&models.User{}).
		Select("subscription_plan AS plan, COUNT(*) AS count").
		Where("subscription_plan <> ''").
		Group("subscription_plan").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make(map[string]int64, len(rows))
	for _, r := range rows {
		result[r.Plan] = r.Count
	}
	return result, nil
}

// Email уникален глобально и без учета регистра - храним в нижнем
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
