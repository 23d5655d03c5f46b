package repo

import (
	"StockKeeper/internal/auth"
	"StockKeeper/internal/model"
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChangeLogRepository — чтение журнала изменений количества.
// Запись в журнал идёт только через appendChange из транзакций
// репозитория позиций, отдельного пути записи нет.
type ChangeLogRepository interface {
	// History возвращает журнал позиции, свежие записи первыми.
	// Доступ тот же, что к самой позиции: владелец или админ.
	History(ctx context.Context, p auth.Principal, itemID string) ([]model.InventoryChangeLog, error)
}

type changeLogRepo struct {
	db *gorm.DB
}

// NewChangeLogRepository создаёт реализацию репозитория журнала.
func NewChangeLogRepository(db *gorm.DB) ChangeLogRepository {
	return &changeLogRepo{db: db}
}

// appendChange дописывает запись журнала в рамках переданной транзакции.
func appendChange(tx *gorm.DB, itemID string, performedBy, before, after int64, reason string) (*model.InventoryChangeLog, error) {
	lg := &model.InventoryChangeLog{
		ID:             uuid.NewString(),
		ItemID:         itemID,
		PerformedBy:    performedBy,
		QuantityBefore: before,
		QuantityAfter:  after,
		Delta:          after - before,
		Reason:         reason,
	}
	if err := tx.Create(lg).Error; err != nil {
		return nil, err
	}
	return lg, nil
}

func (r *changeLogRepo) History(ctx context.Context, p auth.Principal, itemID string) ([]model.InventoryChangeLog, error) {
	// видимость позиции проверяется той же областью владения
	var it model.InventoryItem
	if err := scoped(r.db.WithContext(ctx), p).Where("id = ?", itemID).First(&it).Error; err != nil {
		return nil, err
	}

	logs := make([]model.InventoryChangeLog, 0)
	err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("created_at DESC, id").
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}
