package model

import "time"

// InventoryChangeLog — журнал изменений количества. Только вставка:
// записи не обновляются и не удаляются обычным потоком. Пишется ровно
// одна запись на каждое изменение quantity, в той же транзакции.
type InventoryChangeLog struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	ItemID string `gorm:"not null;index;type:uuid" json:"item_id"`

	Item *InventoryItem `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`

	PerformedBy int64 `gorm:"index" json:"performed_by"`

	QuantityBefore int64 `gorm:"not null" json:"quantity_before"`
	QuantityAfter  int64 `gorm:"not null" json:"quantity_after"`
	// Delta = QuantityAfter - QuantityBefore (фактическое, не запрошенное)
	Delta int64 `gorm:"not null" json:"delta"`

	Reason string `json:"reason"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
