package models

import "time"

// VerificationChallenge - одноразовый короткоживущий код, привязанный
// к пользователю и назначению. Хранится отдельно от User: выдача кода
// для логина не затирает незавершенный код сброса пароля.
//
// Принятый код удаляется вместе с записью, повторная проверка того же
// кода всегда проваливается.
type VerificationChallenge struct {
	BaseModel
	UserID    string           `gorm:"not null;uniqueIndex:idx_challenge_user_purpose" json:"userId"`
	Purpose   ChallengePurpose `gorm:"type:varchar(20);not null;uniqueIndex:idx_challenge_user_purpose" json:"purpose"`
	Code      string           `gorm:"not null" json:"-"`
	ExpiresAt time.Time        `gorm:"not null;index" json:"expiresAt"`
}

// Expired проверяет срок действия кода
func (ch *VerificationChallenge) Expired(now time.Time) bool {
	return now.After(ch.ExpiresAt)
}
