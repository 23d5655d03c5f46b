package main

import (
	"StockKeeper/internal/auth"
	"StockKeeper/internal/config"
	"StockKeeper/internal/handlers"
	"StockKeeper/internal/middleware"
	"StockKeeper/internal/repo"
	"StockKeeper/internal/service"
	"net/http"

	"go.uber.org/zap"
)

func main() {
	cfg := config.NewConfig()

	// создаём предустановленный регистратор zap
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}

	// делаем регистратор SugaredLogger
	sugar := logger.Sugar()
	middleware.SetLogger(sugar) // передаём логгер в middleware
	//сброс буфера логгера
	defer func() {
		if err := logger.Sync(); err != nil {
			sugar.Errorw("Failed to sync logger", "error", err)
		}
	}()

	gormDB, err := repo.InitDB(cfg.DatabaseDSN)
	if err != nil {
		sugar.Fatalw("failed to initialize database", "error", err)
	}

	userRepo := repo.NewUserRepository(gormDB)
	itemRepo := repo.NewItemRepository(gormDB)
	logRepo := repo.NewChangeLogRepository(gormDB)
	revokedRepo := repo.NewRevokedTokenRepository(gormDB)

	provider := auth.NewProvider(cfg.AuthSecret, revokedRepo)
	userService := service.NewUserService(userRepo)
	inventoryService := service.NewInventoryService(itemRepo, logRepo, sugar)

	h := handlers.NewHandler(userService, inventoryService, provider, sugar, cfg)

	addr := cfg.BaseURL

	sugar.Infow(
		"Starting server",
		"addr", addr,
	)

	sugar.Infow("Config",
		"BaseURL", cfg.BaseURL,
		"EnableHTTPS", cfg.EnableHTTPS,
		"DatabaseDSN", cfg.DatabaseDSN,
	)

	if err := http.ListenAndServe(addr, h.Router); err != nil {
		sugar.Fatalw("Server failed", "error", err)
	}
}
