package handlers

import (
	"StockKeeper/internal/apperr"
	"StockKeeper/internal/repo"
	"StockKeeper/internal/service"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ItemHandler обрабатывает операции над позициями склада.
type ItemHandler struct {
	InventoryService *service.InventoryService
	Logger           *zap.SugaredLogger
}

// NewItemHandler создаёт хендлер позиций.
func NewItemHandler(inventoryService *service.InventoryService, logger *zap.SugaredLogger) *ItemHandler {
	return &ItemHandler{InventoryService: inventoryService, Logger: logger}
}

// List — GET /inventory/: фильтры, сортировка, страница в области
// видимости принципала.
func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	params, err := repo.ParseListParams(r.URL.Query())
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}

	page, err := h.InventoryService.List(r.Context(), p, params)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Create — POST /inventory/, владелец — вызывающий.
func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var in service.ItemInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, detail{Detail: "invalid request body"})
		return
	}

	it, err := h.InventoryService.Create(r.Context(), p, in)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

// Get — GET /inventory/{id}/.
func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	it, err := h.InventoryService.Get(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// Update — PUT/PATCH /inventory/{id}/. Неприсланные поля не трогаются.
func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var in service.ItemInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, detail{Detail: "invalid request body"})
		return
	}

	it, err := h.InventoryService.Update(r.Context(), p, chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// Delete — DELETE /inventory/{id}/.
func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	if err := h.InventoryService.Delete(r.Context(), p, chi.URLParam(r, "id")); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Levels — GET /inventory/levels/: компактная проекция без пагинации.
func (h *ItemHandler) Levels(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	params, err := repo.ParseListParams(r.URL.Query())
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}

	rows, err := h.InventoryService.Levels(r.Context(), p, params)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// History — GET /inventory/{id}/history/: журнал, свежие первыми.
func (h *ItemHandler) History(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	logs, err := h.InventoryService.History(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

type adjustRequest struct {
	Delta  *int64 `json:"delta"`
	Reason string `json:"reason"`
}

// AdjustQuantity — POST /inventory/{id}/adjust_quantity/: сдвиг количества
// с прижимом к нулю, всегда одна запись журнала.
func (h *ItemHandler) AdjustQuantity(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var req adjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Delta == nil {
		writeError(w, h.Logger, apperr.Validation("delta", "delta must be an integer"))
		return
	}

	it, lg, err := h.InventoryService.AdjustQuantity(r.Context(), p, chi.URLParam(r, "id"), *req.Delta, req.Reason)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"item": it,
		"log":  lg,
	})
}
