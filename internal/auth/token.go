package auth

import (
	"StockKeeper/internal/apperr"
	"StockKeeper/internal/model"
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Сроки жизни токенов.
const (
	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 7 * 24 * time.Hour
)

const typeRefresh = "refresh"

// Principal — проверенная личность запроса: кто и с какой ролью.
type Principal struct {
	UserID int64
	Role   string
}

// IsAdmin сообщает, админ ли принципал.
func (p Principal) IsAdmin() bool { return p.Role == model.RoleAdmin }

// TokenPair — пара access+refresh, выдаётся при логине и ротации.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Claims — полезная нагрузка обоих токенов. У refresh заполнен Type
// и jti (для чёрного списка), у access — роль.
type Claims struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role,omitempty"`
	Type   string `json:"typ,omitempty"`
	jwt.RegisteredClaims
}

// RevokedTokenStore — минимальный контракт чёрного списка refresh-токенов.
// Реализуется repo.RevokedTokenRepository.
type RevokedTokenStore interface {
	Revoke(ctx context.Context, rt *model.RevokedToken) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Provider — поставщик идентичности: выпускает, проверяет, ротирует и
// отзывает токены. Подпись HS256 общим секретом из конфига.
type Provider struct {
	secret  []byte
	revoked RevokedTokenStore
}

// NewProvider создаёт провайдер. revoked нужен только для Refresh/Revoke,
// проверка access-токена чисто криптографическая.
func NewProvider(secret string, revoked RevokedTokenStore) *Provider {
	return &Provider{secret: []byte(secret), revoked: revoked}
}

// IssuePair выпускает свежую пару токенов для пользователя.
func (p *Provider) IssuePair(userID int64, role string) (TokenPair, error) {
	now := time.Now()

	access := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(AccessTokenTTL)),
		},
	})
	accessStr, err := access.SignedString(p.secret)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID,
		Role:   role,
		Type:   typeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(RefreshTokenTTL)),
		},
	})
	refreshStr, err := refresh.SignedString(p.secret)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return TokenPair{Access: accessStr, Refresh: refreshStr}, nil
}

// parse разбирает и проверяет подпись/срок токена.
func (p *Provider) parse(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		return nil, apperr.ErrUnauthenticated
	}
	return claims, nil
}

// ResolvePrincipal резолвит access-токен в принципала.
// Любая проблема с токеном — apperr.ErrUnauthenticated, не 500.
func (p *Provider) ResolvePrincipal(access string) (Principal, error) {
	claims, err := p.parse(access)
	if err != nil {
		return Principal{}, err
	}
	if claims.Type == typeRefresh {
		// refresh-токен не даёт доступа к API
		return Principal{}, apperr.ErrUnauthenticated
	}
	return Principal{UserID: claims.UserID, Role: claims.Role}, nil
}

// parseRefresh проверяет, что это живой refresh-токен, не из чёрного списка.
func (p *Provider) parseRefresh(ctx context.Context, raw string) (*Claims, error) {
	claims, err := p.parse(raw)
	if err != nil {
		return nil, err
	}
	if claims.Type != typeRefresh || claims.ID == "" {
		return nil, apperr.ErrUnauthenticated
	}
	revoked, err := p.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, apperr.ErrUnauthenticated
	}
	return claims, nil
}

// Refresh ротирует пару: использованный refresh попадает в чёрный список,
// взамен выдаётся новая пара.
func (p *Provider) Refresh(ctx context.Context, refresh string) (TokenPair, error) {
	claims, err := p.parseRefresh(ctx, refresh)
	if err != nil {
		return TokenPair{}, err
	}
	if err := p.revoked.Revoke(ctx, &model.RevokedToken{
		JTI:       claims.ID,
		UserID:    claims.UserID,
		ExpiresAt: claims.ExpiresAt.Time,
	}); err != nil {
		return TokenPair{}, err
	}
	return p.IssuePair(claims.UserID, claims.Role)
}

// Revoke отзывает refresh-токен (logout). Повторный отзыв не ошибка.
func (p *Provider) Revoke(ctx context.Context, refresh string) error {
	claims, err := p.parse(refresh)
	if err != nil {
		return err
	}
	if claims.Type != typeRefresh || claims.ID == "" {
		return apperr.ErrUnauthenticated
	}
	return p.revoked.Revoke(ctx, &model.RevokedToken{
		JTI:       claims.ID,
		UserID:    claims.UserID,
		ExpiresAt: claims.ExpiresAt.Time,
	})
}
