package repo

import (
	"StockKeeper/internal/model"
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"
)

// InitDB открывает БД по DSN и накатывает миграции.
// Postgres-DSN распознаётся по схеме/ключам, иначе — SQLite (modernc, чистый Go).
func InitDB(dsn string) (*gorm.DB, error) {
	var dial gorm.Dialector
	switch {
	case strings.HasPrefix(dsn, "postgres://"),
		strings.HasPrefix(dsn, "postgresql://"),
		strings.Contains(dsn, "host="):
		dial = postgres.Open(dsn)
	default:
		if dsn == "" {
			dsn = "stockkeeper.db"
		}
		dial = gormsqlite.Dialector{DriverName: "sqlite", DSN: dsn}
	}

	db, err := gorm.Open(dial, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(
		&model.User{},
		&model.InventoryItem{},
		&model.InventoryChangeLog{},
		&model.RevokedToken{},
	); err != nil {
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	return db, nil
}
