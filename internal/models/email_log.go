package models

import "gorm.io/datatypes"

// EmailLog - запись об отправленном из админки письме.
// Сохраняется только после успешной доставки.
type EmailLog struct {
	BaseModel
	To          datatypes.JSONSlice[string] `gorm:"not null" json:"to"`
	Cc          datatypes.JSONSlice[string] `json:"cc,omitempty"`
	Subject     string                      `gorm:"not null" json:"subject"`
	Message     string                      `gorm:"not null" json:"message"`
	Attachments datatypes.JSONSlice[string] `json:"attachments,omitempty"` // только имена файлов
	SentBy      string                      `gorm:"not null;index" json:"sentBy"`
}
