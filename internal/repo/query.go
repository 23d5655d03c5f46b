package repo

import (
	"StockKeeper/internal/apperr"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PageSize — фиксированный размер страницы списков.
const PageSize = 10

// Page — страница результатов.
type Page[T any] struct {
	Count    int64 `json:"count"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Results  []T   `json:"results"`
}

// ListParams — распознанные параметры выборки /inventory/.
// Все фильтры комбинируются через AND; область владения применяется
// раньше и параметрами не обходится.
type ListParams struct {
	Category string
	PriceGTE *decimal.Decimal
	PriceLTE *decimal.Decimal
	LowStock *int64
	Search   string
	Page     int

	// проверенное поле сортировки, с ведущим '-' для убывания
	ordering string
}

// Колонки, по которым разрешена сортировка.
var orderableColumns = map[string]string{
	"name":         "name",
	"quantity":     "quantity",
	"price":        "price",
	"date_added":   "date_added",
	"last_updated": "last_updated",
}

// ParseListParams разбирает query string. Непонятное поле сортировки и
// некорректные числа — ошибка валидации, а не тихий пропуск.
func ParseListParams(q url.Values) (ListParams, error) {
	p := ListParams{
		Category: q.Get("category"),
		Search:   q.Get("search"),
		Page:     1,
	}
	ve := apperr.NewValidation()

	if raw := q.Get("price__gte"); raw != "" {
		if d, err := decimal.NewFromString(raw); err != nil {
			ve.Add("price__gte", "must be a decimal number")
		} else {
			p.PriceGTE = &d
		}
	}
	if raw := q.Get("price__lte"); raw != "" {
		if d, err := decimal.NewFromString(raw); err != nil {
			ve.Add("price__lte", "must be a decimal number")
		} else {
			p.PriceLTE = &d
		}
	}
	if raw := q.Get("low_stock"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err != nil {
			ve.Add("low_stock", "must be an integer")
		} else {
			p.LowStock = &n
		}
	}
	if raw := q.Get("ordering"); raw != "" {
		field := strings.TrimPrefix(raw, "-")
		if _, ok := orderableColumns[field]; !ok {
			ve.Add("ordering", "unknown ordering field: "+field)
		} else {
			p.ordering = raw
		}
	}
	if raw := q.Get("page"); raw != "" {
		if n, err := strconv.Atoi(raw); err != nil || n < 1 {
			ve.Add("page", "must be a positive integer")
		} else {
			p.Page = n
		}
	}

	if err := ve.OrNil(); err != nil {
		return ListParams{}, err
	}
	return p, nil
}

// predicate — один шаг конвейера фильтров.
type predicate func(*gorm.DB) *gorm.DB

// predicates возвращает упорядоченный конвейер фильтров запроса.
func (p ListParams) predicates() []predicate {
	var preds []predicate
	if p.Category != "" {
		preds = append(preds, func(db *gorm.DB) *gorm.DB {
			return db.Where("category = ?", p.Category)
		})
	}
	if p.PriceGTE != nil {
		preds = append(preds, func(db *gorm.DB) *gorm.DB {
			return db.Where("price >= ?", *p.PriceGTE)
		})
	}
	if p.PriceLTE != nil {
		preds = append(preds, func(db *gorm.DB) *gorm.DB {
			return db.Where("price <= ?", *p.PriceLTE)
		})
	}
	if p.LowStock != nil {
		preds = append(preds, func(db *gorm.DB) *gorm.DB {
			return db.Where("quantity <= ?", *p.LowStock)
		})
	}
	if p.Search != "" {
		term := "%" + strings.ToLower(p.Search) + "%"
		preds = append(preds, func(db *gorm.DB) *gorm.DB {
			return db.Where("LOWER(name) LIKE ? OR LOWER(category) LIKE ?", term, term)
		})
	}
	return preds
}

// Apply прогоняет запрос через конвейер фильтров.
func (p ListParams) Apply(db *gorm.DB) *gorm.DB {
	for _, pred := range p.predicates() {
		db = pred(db)
	}
	return db
}

// OrderBy применяет сортировку. Без явного ordering порядок
// стабильный: свежие изменения первыми, id как добивка.
func (p ListParams) OrderBy(db *gorm.DB) *gorm.DB {
	if p.ordering == "" {
		return db.Order("last_updated DESC, id")
	}
	col := orderableColumns[strings.TrimPrefix(p.ordering, "-")]
	if strings.HasPrefix(p.ordering, "-") {
		return db.Order(col + " DESC, id")
	}
	return db.Order(col + ", id")
}

// paginate считает общее число строк и возвращает страницу page (с 1).
func paginate[T any](db *gorm.DB, page int) (Page[T], error) {
	var count int64
	if err := db.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		return Page[T]{}, err
	}
	results := make([]T, 0, PageSize)
	err := db.Offset((page - 1) * PageSize).Limit(PageSize).Find(&results).Error
	if err != nil {
		return Page[T]{}, err
	}
	return Page[T]{Count: count, Page: page, PageSize: PageSize, Results: results}, nil
}
