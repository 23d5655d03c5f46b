package handlers

import (
	"StockKeeper/internal/apperr"
	"StockKeeper/internal/auth"
	"StockKeeper/internal/middleware"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// requirePrincipal достаёт принципала из контекста либо отвечает 401.
func requirePrincipal(w http.ResponseWriter, r *http.Request) (auth.Principal, bool) {
	p, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, detail{Detail: "authentication required"})
	}
	return p, ok
}

// writeJSON сериализует v со статусом status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// detail — тело простых ошибок: {"detail": "..."}.
type detail struct {
	Detail string `json:"detail"`
}

// writeError переводит ошибку таксономии в HTTP-статус. Единственное
// место такого перевода; всё неизвестное — 500 с логом.
func writeError(w http.ResponseWriter, logger *zap.SugaredLogger, err error) {
	if ve, ok := apperr.AsValidation(err); ok {
		writeJSON(w, http.StatusBadRequest, ve.Fields)
		return
	}
	switch {
	case errors.Is(err, apperr.ErrUnauthenticated):
		writeJSON(w, http.StatusUnauthorized, detail{Detail: "authentication required"})
	case errors.Is(err, apperr.ErrForbidden):
		writeJSON(w, http.StatusForbidden, detail{Detail: "permission denied"})
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, detail{Detail: "not found"})
	case errors.Is(err, apperr.ErrConflict):
		writeJSON(w, http.StatusConflict, detail{Detail: err.Error()})
	default:
		logger.Errorw("internal error", "error", err)
		writeJSON(w, http.StatusInternalServerError, detail{Detail: "internal error"})
	}
}
