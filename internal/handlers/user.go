package handlers

import (
	"StockKeeper/internal/apperr"
	"StockKeeper/internal/auth"
	"StockKeeper/internal/service"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// UserHandler — регистрация, вход/выход и операции над учётками.
type UserHandler struct {
	UserService *service.UserService
	Provider    *auth.Provider
	Logger      *zap.SugaredLogger
}

// NewUserHandler создаёт хендлер пользователей.
func NewUserHandler(userService *service.UserService, provider *auth.Provider, logger *zap.SugaredLogger) *UserHandler {
	return &UserHandler{UserService: userService, Provider: provider, Logger: logger}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// Register — POST /users/, регистрация без аутентификации.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, detail{Detail: "invalid request body"})
		return
	}

	user, err := h.UserService.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Login — POST /users/user_login/, выдаёт пару токенов.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, detail{Detail: "invalid request body"})
		return
	}

	user, err := h.UserService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}

	pair, err := h.Provider.IssuePair(user.ID, user.Role)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":    user,
		"access":  pair.Access,
		"refresh": pair.Refresh,
	})
}

// Logout — POST /users/user_logout/, отзывает refresh-токен.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if _, ok := requirePrincipal(w, r); !ok {
		return
	}

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Refresh == "" {
		writeError(w, h.Logger, apperr.Validation("refresh", "this field is required"))
		return
	}

	if err := h.Provider.Revoke(r.Context(), req.Refresh); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, detail{Detail: "logged out"})
}

// TokenRefresh — POST /users/token_refresh/, ротация пары.
// Аутентификация самим refresh-токеном.
func (h *UserHandler) TokenRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Refresh == "" {
		writeError(w, h.Logger, apperr.Validation("refresh", "this field is required"))
		return
	}

	pair, err := h.Provider.Refresh(r.Context(), req.Refresh)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

// List — GET /users/, только админ.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			page = n
		}
	}

	usersPage, err := h.UserService.List(r.Context(), p, page)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, usersPage)
}

// userID разбирает {id} из пути.
func userID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// Get — GET /users/{id}/, своя учётка или админ.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, err := userID(r)
	if err != nil {
		writeError(w, h.Logger, apperr.ErrNotFound)
		return
	}

	user, err := h.UserService.Get(r.Context(), p, id)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Update — PUT/PATCH /users/{id}/, частичное обновление.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, err := userID(r)
	if err != nil {
		writeError(w, h.Logger, apperr.ErrNotFound)
		return
	}

	var in service.UserInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, detail{Detail: "invalid request body"})
		return
	}

	user, err := h.UserService.Update(r.Context(), p, id, in)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Delete — DELETE /users/{id}/, только админ.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, err := userID(r)
	if err != nil {
		writeError(w, h.Logger, apperr.ErrNotFound)
		return
	}

	if err := h.UserService.Delete(r.Context(), p, id); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
