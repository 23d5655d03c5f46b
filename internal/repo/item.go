package repo

import (
	"StockKeeper/internal/auth"
	"StockKeeper/internal/model"
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ItemRepository — доступ к позициям склада. Область владения применяется
// здесь, на границе хранилища: не-админ не видит и не меняет чужие строки,
// такие запросы заканчиваются gorm.ErrRecordNotFound.
type ItemRepository interface {
	// Create вставляет новую позицию. Владелец уже проставлен сервисом.
	Create(ctx context.Context, it *model.InventoryItem) error

	// GetByID возвращает позицию в пределах области видимости принципала.
	GetByID(ctx context.Context, p auth.Principal, id string) (*model.InventoryItem, error)

	// Update применяет проверенные сервисом поля. Если среди них quantity и
	// оно изменилось — в той же транзакции пишется запись журнала.
	Update(ctx context.Context, p auth.Principal, id string, updates map[string]any, reason string) (*model.InventoryItem, *model.InventoryChangeLog, error)

	// AdjustQuantity сдвигает количество на delta с прижимом к нулю и всегда
	// пишет ровно одну запись журнала, атомарно с обновлением позиции.
	AdjustQuantity(ctx context.Context, p auth.Principal, id string, delta int64, reason string) (*model.InventoryItem, *model.InventoryChangeLog, error)

	// Delete удаляет позицию в пределах области видимости.
	Delete(ctx context.Context, p auth.Principal, id string) error

	// List — область видимости + фильтры + сортировка + страница.
	List(ctx context.Context, p auth.Principal, params ListParams) (Page[model.InventoryItem], error)

	// Levels — тот же конвейер, спроецированный в компактную форму, без пагинации.
	Levels(ctx context.Context, p auth.Principal, params ListParams) ([]LevelRow, error)
}

// LevelRow — компактная проекция позиции для /inventory/levels/.
type LevelRow struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
	Quantity int64           `json:"quantity"`
}

type itemRepo struct {
	db *gorm.DB
}

// NewItemRepository создаёт реализацию репозитория позиций.
func NewItemRepository(db *gorm.DB) ItemRepository {
	return &itemRepo{db: db}
}

// scoped ограничивает запрос областью владения принципала.
func scoped(db *gorm.DB, p auth.Principal) *gorm.DB {
	if p.IsAdmin() {
		return db
	}
	return db.Where("user_id = ?", p.UserID)
}

// lockForUpdate берёт строчную блокировку там, где диалект её умеет.
// У SQLite пишущая транзакция одна, отдельная блокировка не нужна.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func (r *itemRepo) Create(ctx context.Context, it *model.InventoryItem) error {
	return r.db.WithContext(ctx).Create(it).Error
}

func (r *itemRepo) GetByID(ctx context.Context, p auth.Principal, id string) (*model.InventoryItem, error) {
	var it model.InventoryItem
	err := scoped(r.db.WithContext(ctx), p).Where("id = ?", id).First(&it).Error
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *itemRepo) Update(ctx context.Context, p auth.Principal, id string, updates map[string]any, reason string) (*model.InventoryItem, *model.InventoryChangeLog, error) {
	var (
		it model.InventoryItem
		lg *model.InventoryChangeLog
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := scoped(lockForUpdate(tx), p).Where("id = ?", id).First(&it).Error; err != nil {
			return err
		}
		before := it.Quantity

		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&it).Updates(updates).Error; err != nil {
			return err
		}
		// перечитываем строку: в it должны быть фактические значения,
		// включая last_updated
		if err := tx.Where("id = ?", id).First(&it).Error; err != nil {
			return err
		}

		if it.Quantity != before {
			entry, err := appendChange(tx, id, p.UserID, before, it.Quantity, reason)
			if err != nil {
				return err
			}
			lg = entry
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &it, lg, nil
}

func (r *itemRepo) AdjustQuantity(ctx context.Context, p auth.Principal, id string, delta int64, reason string) (*model.InventoryItem, *model.InventoryChangeLog, error) {
	var (
		it model.InventoryItem
		lg *model.InventoryChangeLog
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := scoped(lockForUpdate(tx), p).Where("id = ?", id).First(&it).Error; err != nil {
			return err
		}
		before := it.Quantity
		after := before + delta
		if after < 0 {
			after = 0 // прижим к нулю вместо отказа
		}

		if err := tx.Model(&it).Update("quantity", after).Error; err != nil {
			return err
		}
		if err := tx.Where("id = ?", id).First(&it).Error; err != nil {
			return err
		}

		// журнал пишется всегда, даже если after == before
		entry, err := appendChange(tx, id, p.UserID, before, after, reason)
		if err != nil {
			return err
		}
		lg = entry
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &it, lg, nil
}

func (r *itemRepo) Delete(ctx context.Context, p auth.Principal, id string) error {
	res := scoped(r.db.WithContext(ctx), p).Where("id = ?", id).Delete(&model.InventoryItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *itemRepo) List(ctx context.Context, p auth.Principal, params ListParams) (Page[model.InventoryItem], error) {
	q := params.Apply(scoped(r.db.WithContext(ctx).Model(&model.InventoryItem{}), p))
	return paginate[model.InventoryItem](params.OrderBy(q), params.Page)
}

func (r *itemRepo) Levels(ctx context.Context, p auth.Principal, params ListParams) ([]LevelRow, error) {
	rows := make([]LevelRow, 0)
	q := params.Apply(scoped(r.db.WithContext(ctx).Model(&model.InventoryItem{}), p)).
		Select("id, name, category, price, quantity")
	if err := params.OrderBy(q).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
