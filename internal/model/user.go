package model

import "time"

// Роли пользователей.
const (
	RoleNormal = "normal"
	RoleAdmin  = "admin"
)

// User — учётная запись. Email хранится в нижнем регистре,
// уникальность e-mail за счёт этого регистронезависимая.
type User struct {
	ID       int64  `gorm:"primaryKey" json:"id"`
	Username string `gorm:"uniqueIndex;not null" json:"username"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`

	// bcrypt-хеш, наружу не сериализуется
	Password string `gorm:"not null" json:"-"`

	Role string `gorm:"not null;default:normal" json:"role"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsAdmin сообщает, есть ли у пользователя административная роль.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
