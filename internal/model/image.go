package model

import "time"

// Image — изображение, принадлежащее ровно одному Item.
// Ordinal задаёт порядок в котором изображения были переданы.
type Image struct {
	ID      string `gorm:"primaryKey;type:uuid"`
	ItemID  string `gorm:"type:uuid;not null;index"`
	Ordinal int    `gorm:"not null"`

	Key              string `gorm:"not null;uniqueIndex"` // ключ в хранилище
	URL              string `gorm:"not null"`
	OriginalFilename string
	MimeType         string `gorm:"not null"`
	SizeBytes        int64  `gorm:"not null"`
	Checksum         string // blake2b-256, hex

	CreatedAt time.Time `gorm:"autoCreateTime"`
}
