package middleware

import (
	"StockKeeper/internal/auth"
	"StockKeeper/internal/model"
	"net/http"
	"net/http/httptest"
	"testing"
)

// Тест: валидный bearer-токен — принципал попадает в контекст
func TestWithAuth_ValidBearerSetsPrincipal(t *testing.T) {
	provider := auth.NewProvider("test-secret", nil)
	pair, err := provider.IssuePair(77, model.RoleNormal)
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	// next-хендлер читает принципала из контекста
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := GetPrincipal(r.Context())
		if !ok || p.UserID != 77 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	h := WithAuth(provider)(next)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+pair.Access)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with valid bearer, got %d", rr.Code)
	}
}

// Тест: без заголовка — принципал не устанавливается
func TestWithAuth_NoHeaderLeavesAnonymous(t *testing.T) {
	provider := auth.NewProvider("any-secret", nil)
	h := WithAuth(provider)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetPrincipal(r.Context()); ok {
			t.Fatalf("principal must not be set without bearer token")
		}
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

// Тест: токен с чужим секретом — принципал не устанавливается
func TestWithAuth_InvalidToken(t *testing.T) {
	issuer := auth.NewProvider("secret-A", nil)
	pair, err := issuer.IssuePair(5, model.RoleNormal)
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	h := WithAuth(auth.NewProvider("secret-B", nil))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetPrincipal(r.Context()); ok {
			t.Fatalf("principal must not be set with invalid token")
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+pair.Access)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

// Тест: refresh-токен не принимается как access
func TestWithAuth_RefreshTokenRejected(t *testing.T) {
	provider := auth.NewProvider("test-secret", nil)
	pair, err := provider.IssuePair(5, model.RoleNormal)
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	h := WithAuth(provider)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetPrincipal(r.Context()); ok {
			t.Fatalf("refresh token must not authenticate a request")
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+pair.Refresh)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}
