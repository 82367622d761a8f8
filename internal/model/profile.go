package model

import "time"

// Роли профиля.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Profile — серверная запись, расширяющая внешнюю идентичность ролью и именем.
// ID совпадает с subject id провайдера и локально не генерируется.
type Profile struct {
	ID       string `gorm:"primaryKey" json:"id"`
	FullName string `json:"full_name,omitempty"`
	Role     string `gorm:"not null;default:user" json:"role"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// ValidRole проверяет, что роль входит в перечисление.
func ValidRole(r string) bool {
	return r == RoleUser || r == RoleAdmin
}
