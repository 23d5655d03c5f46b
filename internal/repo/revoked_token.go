package repo

import (
	"StockKeeper/internal/model"
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RevokedTokenRepository — чёрный список refresh-токенов по jti.
type RevokedTokenRepository interface {
	// Revoke помещает jti в чёрный список. Повторный вызов — no-op.
	Revoke(ctx context.Context, rt *model.RevokedToken) error

	// IsRevoked сообщает, отозван ли jti.
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type revokedTokenRepo struct {
	db *gorm.DB
}

// NewRevokedTokenRepository создаёт реализацию чёрного списка.
func NewRevokedTokenRepository(db *gorm.DB) RevokedTokenRepository {
	return &revokedTokenRepo{db: db}
}

func (r *revokedTokenRepo) Revoke(ctx context.Context, rt *model.RevokedToken) error {
	// конфликт по jti игнорируем: отзыв идемпотентен
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "jti"}},
		DoNothing: true,
	}).Create(rt).Error
}

func (r *revokedTokenRepo) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.RevokedToken{}).
		Where("jti = ?", jti).Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
