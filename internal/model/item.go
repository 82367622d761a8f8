package model

import "time"

// Статусы объявления.
const (
	StatusActive   = "active"
	StatusSold     = "sold"
	StatusArchived = "archived"
)

// ValidStatus проверяет, что статус входит в перечисление.
func ValidStatus(s string) bool {
	switch s {
	case StatusActive, StatusSold, StatusArchived:
		return true
	}
	return false
}

// Item — объявление маркетплейса.
type Item struct {
	ID      string `gorm:"primaryKey;type:uuid"`
	OwnerID string `gorm:"not null;index"` // ссылка на profiles.id

	// Связи
	Owner  *Profile `gorm:"foreignKey:OwnerID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Images []Image  `gorm:"foreignKey:ItemID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`

	Title       string  `gorm:"not null"`
	Description string
	Price       float64 `gorm:"not null"`
	Category    string  `gorm:"not null;index"`
	Status      string  `gorm:"not null;default:active;index"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// ImageURL — ссылка на первое изображение, пустая строка если изображений нет.
func (it *Item) ImageURL() string {
	if len(it.Images) == 0 {
		return ""
	}
	return it.Images[0].URL
}
