package service

import (
	"StockKeeper/internal/apperr"
	"StockKeeper/internal/auth"
	"StockKeeper/internal/model"
	"StockKeeper/internal/repo"
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// InventoryService — бизнес-логика склада: валидация, проверка владения,
// мутация и журналирование в одном месте.
type InventoryService struct {
	items  repo.ItemRepository
	logs   repo.ChangeLogRepository
	logger *zap.SugaredLogger
}

// NewInventoryService создаёт сервис склада.
func NewInventoryService(items repo.ItemRepository, logs repo.ChangeLogRepository, logger *zap.SugaredLogger) *InventoryService {
	return &InventoryService{items: items, logs: logs, logger: logger}
}

// ItemInput — клиентские поля позиции. Указатели: nil — поле не прислано.
// owner, date_added и last_updated от клиента не принимаются никогда.
type ItemInput struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Quantity    *int64           `json:"quantity"`
	Price       *decimal.Decimal `json:"price"`
	Category    *string          `json:"category"`

	// Reason попадает в журнал, если обновление меняет количество.
	Reason string `json:"reason"`
}

// validate проверяет присланные поля и собирает карту обновлений
// по колонкам. Для create требует name и price.
func (in ItemInput) validate(create bool) (map[string]any, error) {
	ve := apperr.NewValidation()
	updates := map[string]any{}

	if in.Name != nil {
		if *in.Name == "" {
			ve.Add("name", "must not be empty")
		} else {
			updates["name"] = *in.Name
		}
	} else if create {
		ve.Add("name", "this field is required")
	}

	if in.Description != nil {
		updates["description"] = *in.Description
	}

	if in.Quantity != nil {
		if *in.Quantity < 0 {
			ve.Add("quantity", "quantity cannot be negative")
		} else {
			updates["quantity"] = *in.Quantity
		}
	}

	if in.Price != nil {
		if !in.Price.IsPositive() {
			ve.Add("price", "price must be greater than zero")
		} else {
			updates["price"] = *in.Price
		}
	} else if create {
		ve.Add("price", "this field is required")
	}

	if in.Category != nil {
		updates["category"] = *in.Category
	}

	if err := ve.OrNil(); err != nil {
		return nil, err
	}
	return updates, nil
}

// hideNotFound переводит ошибку хранилища в таксономию: скрытая областью
// владения или отсутствующая строка — всегда NotFound.
func hideNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.ErrNotFound
	}
	return err
}

// Create создаёт позицию, владелец — вызывающий принципал.
func (s *InventoryService) Create(ctx context.Context, p auth.Principal, in ItemInput) (*model.InventoryItem, error) {
	if _, err := in.validate(true); err != nil {
		return nil, err
	}

	it := &model.InventoryItem{
		ID:     uuid.NewString(),
		UserID: p.UserID,
		Name:   *in.Name,
		Price:  *in.Price,
	}
	if in.Description != nil {
		it.Description = *in.Description
	}
	if in.Quantity != nil {
		it.Quantity = *in.Quantity
	}
	if in.Category != nil {
		it.Category = *in.Category
	}

	if err := s.items.Create(ctx, it); err != nil {
		s.logger.Errorw("item create failed", "user_id", p.UserID, "error", err)
		return nil, err
	}
	return it, nil
}

// Get возвращает позицию в пределах области видимости принципала.
func (s *InventoryService) Get(ctx context.Context, p auth.Principal, id string) (*model.InventoryItem, error) {
	it, err := s.items.GetByID(ctx, p, id)
	if err != nil {
		return nil, hideNotFound(err)
	}
	return it, nil
}

// Update применяет присланные поля. Изменение количества даёт ровно одну
// запись журнала в той же транзакции.
func (s *InventoryService) Update(ctx context.Context, p auth.Principal, id string, in ItemInput) (*model.InventoryItem, error) {
	updates, err := in.validate(false)
	if err != nil {
		return nil, err
	}
	it, lg, err := s.items.Update(ctx, p, id, updates, in.Reason)
	if err != nil {
		return nil, hideNotFound(err)
	}
	if lg != nil {
		s.logger.Infow("quantity changed",
			"item_id", id, "user_id", p.UserID,
			"before", lg.QuantityBefore, "after", lg.QuantityAfter,
		)
	}
	return it, nil
}

// Delete удаляет позицию в пределах области видимости.
func (s *InventoryService) Delete(ctx context.Context, p auth.Principal, id string) error {
	return hideNotFound(s.items.Delete(ctx, p, id))
}

// AdjustQuantity сдвигает количество на delta с прижимом к нулю.
// Журнальная запись пишется всегда, с фактическими before/after/delta.
func (s *InventoryService) AdjustQuantity(ctx context.Context, p auth.Principal, id string, delta int64, reason string) (*model.InventoryItem, *model.InventoryChangeLog, error) {
	it, lg, err := s.items.AdjustQuantity(ctx, p, id, delta, reason)
	if err != nil {
		return nil, nil, hideNotFound(err)
	}
	return it, lg, nil
}

// History возвращает журнал позиции, свежие записи первыми.
func (s *InventoryService) History(ctx context.Context, p auth.Principal, id string) ([]model.InventoryChangeLog, error) {
	logs, err := s.logs.History(ctx, p, id)
	if err != nil {
		return nil, hideNotFound(err)
	}
	return logs, nil
}

// List — отфильтрованная страница позиций в области видимости принципала.
func (s *InventoryService) List(ctx context.Context, p auth.Principal, params repo.ListParams) (repo.Page[model.InventoryItem], error) {
	return s.items.List(ctx, p, params)
}

// Levels — компактная проекция без пагинации.
func (s *InventoryService) Levels(ctx context.Context, p auth.Principal, params repo.ListParams) ([]repo.LevelRow, error) {
	return s.items.Levels(ctx, p, params)
}
