package models

// Video - запись о ролике на внешнем видеохостинге.
// Сам файл живет у хостера, у нас только URI и метаданные.
type Video struct {
	BaseModel
	UserID      string      `gorm:"not null;index" json:"userId"`
	Title       string      `gorm:"not null" json:"title"`
	Description string      `json:"description"`
	HostURI     string      `gorm:"uniqueIndex;not null" json:"-"`
	PlaybackURL string      `json:"playbackUrl"`
	Status      VideoStatus `gorm:"type:varchar(20);default:'processing'" json:"status"`
	UploadedBy  string      `gorm:"not null" json:"uploadedBy"`
}
