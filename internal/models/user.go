package models

import "time"

type User struct {
	BaseModel
	FirstName      string     `gorm:"not null" json:"firstName"`
	LastName       string     `gorm:"not null" json:"lastName"`
	Email          string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash   string     `gorm:"not null" json:"-"`
	ProfilePicture string     `json:"profilePicture,omitempty"`
	Role           UserRole   `gorm:"type:varchar(20);default:'user'" json:"role"`
	Status         UserStatus `gorm:"type:varchar(20);default:'active'" json:"status"`

	TwoFactorEnabled bool `gorm:"default:false" json:"twoFactorEnabled"`

	// Кандидат на новый email. Активный email не меняется, пока
	// смена не подтверждена кодом, отправленным на новый адрес.
	PendingNewEmail string `json:"-"`

	// Optimistic lock: Update в репозитории - это compare-and-swap по версии.
	Version int64 `gorm:"default:0" json:"-"`

	Subscription Subscription `gorm:"embedded;embeddedPrefix:subscription_" json:"subscription"`
}

// Subscription - метаданные подписки, принадлежат биллинг-коллаборатору.
// Для ядра это непрозрачный блок, который копируется из webhook-событий.
type Subscription struct {
	CustomerID       string             `json:"-"`
	SubscriptionID   string             `json:"-"`
	Plan             SubscriptionPlan   `gorm:"type:varchar(20)" json:"plan,omitempty"`
	Status           SubscriptionStatus `gorm:"type:varchar(20)" json:"status,omitempty"`
	CurrentPeriodEnd *time.Time         `json:"currentPeriodEnd,omitempty"`
}

// FullName - имя для писем и интеграций
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// IsAdmin - админ обходит 2FA по ролевой проверке
func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}
