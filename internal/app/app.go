// internal/app/app.go
package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/chuzo/zxi/internal/config"
	"github.com/chuzo/zxi/internal/di"
	"github.com/chuzo/zxi/internal/services"
	"github.com/chuzo/zxi/internal/storage"
	"github.com/chuzo/zxi/internal/utils"
)

// InitServices builds every service in dependency order and registers
// them in the DI container. The database handle is registered too so
// Cleanup can close it.
func InitServices(ctx context.Context) error {
	cfg := config.GetCurrentConfig()
	container := di.GetContainer()
	logger := utils.GetLogger()

	fileStorage, err := storage.NewFileStorage(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to initialize file storage: %w", err)
	}
	container.Register("fileStorage", fileStorage)

	db, err := storage.InitSQLite(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	container.Register("db", db)

	loreService, err := services.NewLoreService(cfg.LoreFile, fileStorage)
	if err != nil {
		return fmt.Errorf("failed to initialize lore service: %w", err)
	}
	container.Register("lore", loreService)

	if cfg.WatchLore {
		if err := loreService.StartWatcher(ctx); err != nil {
			// The service still works without hot reload.
			logger.Warn("Lore watcher unavailable", map[string]interface{}{"error": err.Error()})
		}
	}

	inventoryService := services.NewInventoryService(db, fileStorage)
	if err := inventoryService.LoadRecipeBook(ctx); err != nil {
		return fmt.Errorf("failed to load recipe book: %w", err)
	}
	container.Register("inventory", inventoryService)

	progressService := services.NewProgressService(db, loreService)
	container.Register("progress", progressService)

	container.Register("character", services.NewCharacterService(db, loreService, progressService))
	container.Register("quest", services.NewQuestService(db, loreService, inventoryService, progressService))
	container.Register("user", services.NewUserService(db))

	logger.Info("Services initialized", map[string]interface{}{
		"count": len(container.GetNames()),
	})
	return nil
}

// Cleanup releases resources held by the registered services.
func Cleanup() {
	container := di.GetContainer()

	if loreService, ok := container.Get("lore").(*services.LoreService); ok {
		loreService.StopWatcher()
	}

	if db, ok := container.Get("db").(*sql.DB); ok {
		db.Close()
	}
}
