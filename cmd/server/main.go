// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chuzo/zxi/internal/api"
	"github.com/chuzo/zxi/internal/app"
	"github.com/chuzo/zxi/internal/config"
	"github.com/chuzo/zxi/internal/di"
	"github.com/chuzo/zxi/internal/utils"
)

func main() {
	log.Println("Starting ZXI server...")

	// 1. Load the base configuration from the environment
	baseConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Printf("Base configuration loaded, port: %s", baseConfig.Port)

	// 2. Create required directories
	createDirectories(baseConfig)

	// 3. Initialize the config manager (merges persisted config)
	if err := config.InitConfig(baseConfig.DataDir); err != nil {
		log.Fatalf("Failed to initialize config manager: %v", err)
	}

	// 4. Initialize logging
	if err := utils.InitDailyLogger(baseConfig.LogDir); err != nil {
		log.Printf("Warning: file logging unavailable: %v", err)
	}
	if baseConfig.DebugMode {
		utils.GetLogger().SetLogLevel(utils.DEBUG)
	}

	// 5. Initialize services in dependency order
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := app.InitServices(ctx); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	// 6. Health check and routing
	if err := performHealthCheck(); err != nil {
		log.Fatalf("Service health check failed: %v", err)
	}

	router, err := api.SetupRouter()
	if err != nil {
		log.Fatalf("Failed to set up routes: %v", err)
	}

	// 7. Serve until interrupted
	log.Printf("Server listening on port %s", baseConfig.Port)
	setupGracefulShutdown(router, baseConfig.Port, cancel)
}

// performHealthCheck verifies the critical services are registered.
func performHealthCheck() error {
	container := di.GetContainer()

	criticalServices := []string{"lore", "quest", "inventory", "character", "progress", "user"}
	for _, serviceName := range criticalServices {
		if service := container.Get(serviceName); service == nil {
			return fmt.Errorf("critical service not registered: %s", serviceName)
		}
	}

	return nil
}

// setupGracefulShutdown runs the HTTP server and drains it on SIGINT/SIGTERM.
func setupGracefulShutdown(router *gin.Engine, port string, cancel context.CancelFunc) {
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	cancel()

	ctx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shut down: %v", err)
	}

	app.Cleanup()
	log.Println("Server stopped cleanly")
}

// createDirectories prepares the directory layout the services expect.
func createDirectories(cfg *config.Config) {
	dirs := []string{
		cfg.DataDir,
		filepath.Join(cfg.DataDir, "exports"),
		cfg.LogDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
