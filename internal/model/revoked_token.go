package model

import "time"

// RevokedToken — чёрный список refresh-токенов по их jti.
// Строка появляется при logout и при ротации; истёкшие записи
// можно чистить отдельно, на корректность это не влияет.
type RevokedToken struct {
	JTI       string    `gorm:"primaryKey;type:uuid"`
	UserID    int64     `gorm:"index"`
	ExpiresAt time.Time `gorm:"not null"`
	RevokedAt time.Time `gorm:"autoCreateTime"`
}
