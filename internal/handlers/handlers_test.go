package handlers_test

import (
	"StockKeeper/internal/auth"
	"StockKeeper/internal/config"
	"StockKeeper/internal/handlers"
	"StockKeeper/internal/model"
	"StockKeeper/internal/repo"
	"StockKeeper/internal/service"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// newTestServer поднимает полный стек на in-memory SQLite.
func newTestServer(t *testing.T) (http.Handler, *gorm.DB) {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := repo.InitDB(dsn)
	if err != nil {
		t.Fatalf("init db: %v", err)
	}

	cfg := &config.Config{AuthSecret: "test-secret"}
	logger := zap.NewNop().Sugar()

	provider := auth.NewProvider(cfg.AuthSecret, repo.NewRevokedTokenRepository(db))
	userSvc := service.NewUserService(repo.NewUserRepository(db))
	invSvc := service.NewInventoryService(
		repo.NewItemRepository(db),
		repo.NewChangeLogRepository(db),
		logger,
	)

	h := handlers.NewHandler(userSvc, invSvc, provider, logger, cfg)
	return h.Router, db
}

// doJSON выполняет запрос с JSON-телом и опциональным bearer-токеном.
func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.NewDecoder(bytes.NewReader(rr.Body.Bytes())).Decode(&m); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rr.Body.String())
	}
	return m
}

// registerAndLogin регистрирует пользователя и возвращает пару токенов.
func registerAndLogin(t *testing.T, router http.Handler, username string) (access, refresh string) {
	t.Helper()
	rr := doJSON(t, router, http.MethodPost, "/users/", "", map[string]any{
		"username": username,
		"email":    username + "@example.com",
		"password": "p@ssw0rd123",
	})
	assert.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = doJSON(t, router, http.MethodPost, "/users/user_login/", "", map[string]any{
		"username": username,
		"password": "p@ssw0rd123",
	})
	assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	body := decodeBody(t, rr)
	return body["access"].(string), body["refresh"].(string)
}

// promoteToAdmin выдаёт роль напрямую в БД и перелогинивается
// (роль зашита в access-токен).
func promoteToAdmin(t *testing.T, router http.Handler, db *gorm.DB, username string) string {
	t.Helper()
	err := db.Model(&model.User{}).Where("username = ?", username).Update("role", model.RoleAdmin).Error
	assert.NoError(t, err)

	rr := doJSON(t, router, http.MethodPost, "/users/user_login/", "", map[string]any{
		"username": username,
		"password": "p@ssw0rd123",
	})
	assert.Equal(t, http.StatusOK, rr.Code)
	return decodeBody(t, rr)["access"].(string)
}

func createItem(t *testing.T, router http.Handler, token string, fields map[string]any) map[string]any {
	t.Helper()
	rr := doJSON(t, router, http.MethodPost, "/inventory/", token, fields)
	assert.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decodeBody(t, rr)
}

func TestRegister(t *testing.T) {
	router, _ := newTestServer(t)

	t.Run("ok without password echo", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodPost, "/users/", "", map[string]any{
			"username": "john", "email": "John@Example.com", "password": "p@ssw0rd123",
		})
		assert.Equal(t, http.StatusCreated, rr.Code)
		body := decodeBody(t, rr)
		assert.Equal(t, "john", body["username"])
		// email нормализован, пароль не сериализуется
		assert.Equal(t, "john@example.com", body["email"])
		assert.NotContains(t, body, "password")
	})

	t.Run("duplicate username conflict", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodPost, "/users/", "", map[string]any{
			"username": "john", "email": "other@example.com", "password": "p@ssw0rd123",
		})
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("duplicate email is case-insensitive", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodPost, "/users/", "", map[string]any{
			"username": "john2", "email": "JOHN@example.com", "password": "p@ssw0rd123",
		})
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("field-scoped validation errors", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodPost, "/users/", "", map[string]any{
			"username": "", "email": "bad", "password": "short",
		})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		body := decodeBody(t, rr)
		assert.Contains(t, body, "username")
		assert.Contains(t, body, "email")
		assert.Contains(t, body, "password")
	})
}

func TestLoginLogoutRefresh(t *testing.T) {
	router, _ := newTestServer(t)
	_, refresh := registerAndLogin(t, router, "alice")

	t.Run("wrong password unauthorized", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodPost, "/users/user_login/", "", map[string]any{
			"username": "alice", "password": "wrong",
		})
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("refresh rotates the pair", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodPost, "/users/token_refresh/", "", map[string]any{"refresh": refresh})
		assert.Equal(t, http.StatusOK, rr.Code)
		body := decodeBody(t, rr)
		assert.NotEmpty(t, body["access"])
		assert.NotEmpty(t, body["refresh"])

		// использованный refresh отозван ротацией
		rr = doJSON(t, router, http.MethodPost, "/users/token_refresh/", "", map[string]any{"refresh": refresh})
		assert.Equal(t, http.StatusUnauthorized, rr.Code)

		refresh = body["refresh"].(string)
	})

	t.Run("logout revokes refresh", func(t *testing.T) {
		access, fresh := func() (string, string) {
			rr := doJSON(t, router, http.MethodPost, "/users/user_login/", "", map[string]any{
				"username": "alice", "password": "p@ssw0rd123",
			})
			assert.Equal(t, http.StatusOK, rr.Code)
			b := decodeBody(t, rr)
			return b["access"].(string), b["refresh"].(string)
		}()

		rr := doJSON(t, router, http.MethodPost, "/users/user_logout/", access, map[string]any{"refresh": fresh})
		assert.Equal(t, http.StatusOK, rr.Code)

		// отозванный refresh не годится для ротации
		rr = doJSON(t, router, http.MethodPost, "/users/token_refresh/", "", map[string]any{"refresh": fresh})
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("logout requires auth", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodPost, "/users/user_logout/", "", map[string]any{"refresh": refresh})
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestInventoryRoundTrip(t *testing.T) {
	router, _ := newTestServer(t)
	access, _ := registerAndLogin(t, router, "bob")

	t.Run("unauthenticated requests rejected", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodGet, "/inventory/", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("create and get back identical values", func(t *testing.T) {
		created := createItem(t, router, access, map[string]any{
			"name":        "widget",
			"description": "a widget",
			"quantity":    20,
			"price":       "1.99",
			"category":    "tools",
			// серверные поля от клиента игнорируются
			"date_added":   "2000-01-01T00:00:00Z",
			"last_updated": "2000-01-01T00:00:00Z",
			"user_id":      999,
		})
		id := created["id"].(string)

		rr := doJSON(t, router, http.MethodGet, "/inventory/"+id+"/", access, nil)
		assert.Equal(t, http.StatusOK, rr.Code)
		body := decodeBody(t, rr)
		assert.Equal(t, "widget", body["name"])
		assert.Equal(t, "a widget", body["description"])
		assert.Equal(t, "tools", body["category"])
		assert.Equal(t, "1.99", body["price"])
		assert.Equal(t, float64(20), body["quantity"])
		// date_added проставлен сервером, не клиентом
		assert.NotEqual(t, "2000-01-01T00:00:00Z", body["date_added"])
		assert.NotEqual(t, float64(999), body["user_id"])
	})

	t.Run("validation rejects bad values", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodPost, "/inventory/", access, map[string]any{
			"name": "bad", "quantity": -1, "price": "0",
		})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		body := decodeBody(t, rr)
		assert.Contains(t, body, "quantity")
		assert.Contains(t, body, "price")
	})

	t.Run("delete", func(t *testing.T) {
		created := createItem(t, router, access, map[string]any{
			"name": "temp", "quantity": 1, "price": "2.00",
		})
		id := created["id"].(string)

		rr := doJSON(t, router, http.MethodDelete, "/inventory/"+id+"/", access, nil)
		assert.Equal(t, http.StatusNoContent, rr.Code)

		rr = doJSON(t, router, http.MethodGet, "/inventory/"+id+"/", access, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestAdjustQuantityScenario(t *testing.T) {
	router, _ := newTestServer(t)
	access, _ := registerAndLogin(t, router, "carol")

	created := createItem(t, router, access, map[string]any{
		"name": "widget", "quantity": 20, "price": "1.99",
	})
	id := created["id"].(string)

	// delta уводит ниже нуля: прижим к нулю, delta в журнале фактическая
	rr := doJSON(t, router, http.MethodPost, "/inventory/"+id+"/adjust_quantity/", access, map[string]any{
		"delta": -25, "reason": "damage writeoff",
	})
	assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	body := decodeBody(t, rr)

	item := body["item"].(map[string]any)
	lg := body["log"].(map[string]any)
	assert.Equal(t, float64(0), item["quantity"])
	assert.Equal(t, float64(20), lg["quantity_before"])
	assert.Equal(t, float64(0), lg["quantity_after"])
	assert.Equal(t, float64(-20), lg["delta"])
	assert.Equal(t, "damage writeoff", lg["reason"])

	// delta обязателен
	rr = doJSON(t, router, http.MethodPost, "/inventory/"+id+"/adjust_quantity/", access, map[string]any{
		"reason": "no delta",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHistoryEndpoint(t *testing.T) {
	router, _ := newTestServer(t)
	access, _ := registerAndLogin(t, router, "dave")

	created := createItem(t, router, access, map[string]any{
		"name": "gears", "quantity": 10, "price": "5.00",
	})
	id := created["id"].(string)

	// изменение количества через PATCH — одна запись журнала
	rr := doJSON(t, router, http.MethodPatch, "/inventory/"+id+"/", access, map[string]any{
		"quantity": 4, "reason": "sold",
	})
	assert.Equal(t, http.StatusOK, rr.Code)

	// обновление без количества записей не добавляет
	rr = doJSON(t, router, http.MethodPatch, "/inventory/"+id+"/", access, map[string]any{
		"name": "gears XL",
	})
	assert.Equal(t, http.StatusOK, rr.Code)

	// и ещё adjust
	rr = doJSON(t, router, http.MethodPost, "/inventory/"+id+"/adjust_quantity/", access, map[string]any{"delta": 6})
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, router, http.MethodGet, "/inventory/"+id+"/history/", access, nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	var logs []map[string]any
	assert.NoError(t, json.NewDecoder(bytes.NewReader(rr.Body.Bytes())).Decode(&logs))
	if assert.Len(t, logs, 2) {
		// свежие первыми
		assert.Equal(t, float64(6), logs[0]["delta"])
		assert.Equal(t, float64(4), logs[0]["quantity_before"])
		assert.Equal(t, float64(-6), logs[1]["delta"])
		assert.Equal(t, float64(10), logs[1]["quantity_before"])
	}
}

func TestOwnershipIsolation(t *testing.T) {
	router, db := newTestServer(t)
	accessA, _ := registerAndLogin(t, router, "owner-a")
	accessB, _ := registerAndLogin(t, router, "owner-b")

	created := createItem(t, router, accessA, map[string]any{
		"name": "secret stash", "quantity": 3, "price": "9.99", "category": "hidden",
	})
	id := created["id"].(string)

	t.Run("foreign get is 404, never the body", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodGet, "/inventory/"+id+"/", accessB, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.NotContains(t, rr.Body.String(), "secret stash")
	})

	t.Run("foreign update and delete are 404", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodPatch, "/inventory/"+id+"/", accessB, map[string]any{"quantity": 0})
		assert.Equal(t, http.StatusNotFound, rr.Code)

		rr = doJSON(t, router, http.MethodDelete, "/inventory/"+id+"/", accessB, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)

		rr = doJSON(t, router, http.MethodPost, "/inventory/"+id+"/adjust_quantity/", accessB, map[string]any{"delta": -1})
		assert.Equal(t, http.StatusNotFound, rr.Code)

		rr = doJSON(t, router, http.MethodGet, "/inventory/"+id+"/history/", accessB, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("list never leaks foreign items for any filter combination", func(t *testing.T) {
		for _, qs := range []string{
			"", "?search=secret", "?category=hidden", "?ordering=-price",
			"?low_stock=1000", "?price__gte=0.01&price__lte=100",
		} {
			rr := doJSON(t, router, http.MethodGet, "/inventory/"+qs, accessB, nil)
			assert.Equal(t, http.StatusOK, rr.Code)
			body := decodeBody(t, rr)
			assert.Equal(t, float64(0), body["count"], "filter %q leaked", qs)
		}

		// /levels/ тоже в области владения
		rr := doJSON(t, router, http.MethodGet, "/inventory/levels/", accessB, nil)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.NotContains(t, rr.Body.String(), "secret stash")
	})

	t.Run("admin sees foreign items", func(t *testing.T) {
		adminAccess := promoteToAdmin(t, router, db, "owner-b")
		rr := doJSON(t, router, http.MethodGet, "/inventory/"+id+"/", adminAccess, nil)
		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestListOrderingAndLevels(t *testing.T) {
	router, _ := newTestServer(t)
	access, _ := registerAndLogin(t, router, "erin")

	for i, price := range []string{"1.00", "5.00", "3.00"} {
		createItem(t, router, access, map[string]any{
			"name": fmt.Sprintf("item-%d", i), "quantity": i, "price": price,
		})
	}

	t.Run("ordering by price desc", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodGet, "/inventory/?ordering=-price", access, nil)
		assert.Equal(t, http.StatusOK, rr.Code)
		body := decodeBody(t, rr)
		results := body["results"].([]any)
		if assert.Len(t, results, 3) {
			assert.Equal(t, "item-1", results[0].(map[string]any)["name"])
			assert.Equal(t, "item-2", results[1].(map[string]any)["name"])
			assert.Equal(t, "item-0", results[2].(map[string]any)["name"])
		}
	})

	t.Run("unknown ordering field rejected", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodGet, "/inventory/?ordering=user_id", access, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		body := decodeBody(t, rr)
		assert.Contains(t, body, "ordering")
	})

	t.Run("levels compact projection", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodGet, "/inventory/levels/?ordering=name", access, nil)
		assert.Equal(t, http.StatusOK, rr.Code)

		var rows []map[string]any
		assert.NoError(t, json.NewDecoder(bytes.NewReader(rr.Body.Bytes())).Decode(&rows))
		if assert.Len(t, rows, 3) {
			row := rows[0]
			assert.Equal(t, "item-0", row["name"])
			assert.Contains(t, row, "id")
			assert.Contains(t, row, "price")
			assert.Contains(t, row, "quantity")
			assert.Contains(t, row, "category")
			// компактная форма: без description и владельца
			assert.NotContains(t, row, "description")
			assert.NotContains(t, row, "user_id")
		}
	})
}

func TestUserAccountRoutes(t *testing.T) {
	router, db := newTestServer(t)
	accessA, _ := registerAndLogin(t, router, "frank")
	accessB, _ := registerAndLogin(t, router, "grace")

	t.Run("users list is admin only", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodGet, "/users/", accessA, nil)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("self get and update", func(t *testing.T) {
		// id узнаём из своей регистрации через список админа ниже;
		// здесь достаточно, что чужая учётка недоступна
		rr := doJSON(t, router, http.MethodGet, "/users/1/", accessA, nil)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "frank", decodeBody(t, rr)["username"])

		rr = doJSON(t, router, http.MethodGet, "/users/1/", accessB, nil)
		assert.Equal(t, http.StatusForbidden, rr.Code)

		rr = doJSON(t, router, http.MethodPatch, "/users/1/", accessA, map[string]any{
			"email": "Frank.New@Example.com",
		})
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "frank.new@example.com", decodeBody(t, rr)["email"])
	})

	t.Run("delete is admin only", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodDelete, "/users/2/", accessA, nil)
		assert.Equal(t, http.StatusForbidden, rr.Code)

		adminAccess := promoteToAdmin(t, router, db, "frank")

		rr = doJSON(t, router, http.MethodGet, "/users/", adminAccess, nil)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, float64(2), decodeBody(t, rr)["count"])

		rr = doJSON(t, router, http.MethodDelete, "/users/2/", adminAccess, nil)
		assert.Equal(t, http.StatusNoContent, rr.Code)

		rr = doJSON(t, router, http.MethodGet, "/users/", adminAccess, nil)
		assert.Equal(t, float64(1), decodeBody(t, rr)["count"])
	})
}
