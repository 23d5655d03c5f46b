package middleware

import (
	"StockKeeper/internal/auth"
	"context"
	"net/http"
	"strings"
)

type contextKey string

const principalKey contextKey = "principal"

// WithAuth разбирает bearer-токен и кладёт принципала в контекст.
// Без токена или с невалидным токеном запрос остаётся анонимным,
// 401 отдаёт уже хендлер.
func WithAuth(provider *auth.Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if raw := bearerToken(r); raw != "" {
				if p, err := provider.ResolvePrincipal(raw); err == nil {
					r = r.WithContext(context.WithValue(r.Context(), principalKey, p))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken достаёт токен из Authorization: Bearer <token>.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return h[len(prefix):]
	}
	return ""
}

// GetPrincipal возвращает принципала запроса, если он аутентифицирован.
func GetPrincipal(ctx context.Context) (auth.Principal, bool) {
	p, ok := ctx.Value(principalKey).(auth.Principal)
	return p, ok
}
