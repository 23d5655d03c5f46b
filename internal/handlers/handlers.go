package handlers

import (
	"StockKeeper/internal/auth"
	"StockKeeper/internal/config"
	"StockKeeper/internal/middleware"
	"StockKeeper/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	Router chi.Router
}

// NewHandler разводящий для хендлеров
func NewHandler(
	userService *service.UserService,
	inventoryService *service.InventoryService,
	provider *auth.Provider,
	logger *zap.SugaredLogger,
	config *config.Config,
) *Handler {
	r := chi.NewRouter()

	r.Use(middleware.WithGzip)
	r.Use(middleware.WithLogging)
	r.Use(middleware.WithAuth(provider))

	// Handlers
	userHandler := NewUserHandler(userService, provider, logger)
	itemHandler := NewItemHandler(inventoryService, logger)

	// User routes
	r.Post("/users/", userHandler.Register)
	r.Post("/users/user_login/", userHandler.Login)
	r.Post("/users/user_logout/", userHandler.Logout)
	r.Post("/users/token_refresh/", userHandler.TokenRefresh)
	r.Get("/users/", userHandler.List)
	r.Get("/users/{id}/", userHandler.Get)
	r.Put("/users/{id}/", userHandler.Update)
	r.Patch("/users/{id}/", userHandler.Update)
	r.Delete("/users/{id}/", userHandler.Delete)

	// Inventory routes
	r.Get("/inventory/", itemHandler.List)
	r.Post("/inventory/", itemHandler.Create)
	r.Get("/inventory/levels/", itemHandler.Levels)
	r.Get("/inventory/{id}/", itemHandler.Get)
	r.Put("/inventory/{id}/", itemHandler.Update)
	r.Patch("/inventory/{id}/", itemHandler.Update)
	r.Delete("/inventory/{id}/", itemHandler.Delete)
	r.Get("/inventory/{id}/history/", itemHandler.History)
	r.Post("/inventory/{id}/adjust_quantity/", itemHandler.AdjustQuantity)

	return &Handler{Router: r}
}
