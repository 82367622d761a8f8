package model

import "time"

// Blob — бинарное содержимое изображения при STORAGE_BACKEND=db.
type Blob struct {
	ID string `gorm:"primaryKey"` // ключ хранилища

	Data        []byte `gorm:"not null"`
	ContentType string `gorm:"not null"`
	Size        int64  `gorm:"not null"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}
