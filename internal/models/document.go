package models

// Document - файл пользователя в объектном хранилище
type Document struct {
	BaseModel
	UserID     string `gorm:"not null;index" json:"userId"`
	FileName   string `gorm:"not null" json:"fileName"`
	FileType   string `gorm:"not null" json:"fileType"`
	FileSize   int64  `gorm:"not null" json:"fileSize"`
	StorageKey string `gorm:"uniqueIndex;not null" json:"-"`
	URL        string `gorm:"not null" json:"url"`
	Downloaded bool   `gorm:"default:false" json:"downloaded"`
	UploadedBy string `gorm:"not null" json:"uploadedBy"`
}
