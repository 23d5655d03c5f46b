package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryItem — позиция склада. Принадлежит ровно одному пользователю,
// владелец фиксируется при создании и не меняется.
type InventoryItem struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID int64  `gorm:"not null;index" json:"user_id"` // ссылка на users.id

	// Связи
	User *User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`

	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`

	// Инварианты: Quantity >= 0, Price > 0. Проверяются сервисом до записи.
	Quantity int64           `gorm:"not null;default:0" json:"quantity"`
	Price    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`

	Category string `json:"category"`

	DateAdded   time.Time `gorm:"autoCreateTime" json:"date_added"`
	LastUpdated time.Time `gorm:"autoUpdateTime" json:"last_updated"`
}
