// internal/api/router.go
package api

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/chuzo/zxi/internal/config"
	"github.com/chuzo/zxi/internal/di"
	"github.com/chuzo/zxi/internal/services"
)

// SetupRouter builds the HTTP routes. Services must already be
// registered in the DI container.
func SetupRouter() (*gin.Engine, error) {
	cfg := config.GetCurrentConfig()
	container := di.GetContainer()

	loreService, ok := container.Get("lore").(*services.LoreService)
	if !ok {
		return nil, fmt.Errorf("lore service not initialized")
	}

	questService, ok := container.Get("quest").(*services.QuestService)
	if !ok {
		return nil, fmt.Errorf("quest service not initialized")
	}

	inventoryService, ok := container.Get("inventory").(*services.InventoryService)
	if !ok {
		return nil, fmt.Errorf("inventory service not initialized")
	}

	characterService, ok := container.Get("character").(*services.CharacterService)
	if !ok {
		return nil, fmt.Errorf("character service not initialized")
	}

	progressService, ok := container.Get("progress").(*services.ProgressService)
	if !ok {
		return nil, fmt.Errorf("progress service not initialized")
	}

	userService, ok := container.Get("user").(*services.UserService)
	if !ok {
		return nil, fmt.Errorf("user service not initialized")
	}

	handler := NewHandler(
		loreService,
		questService,
		inventoryService,
		characterService,
		progressService,
		userService,
	)

	if !cfg.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	registerRoutes(r, handler)

	return r, nil
}

func registerRoutes(r *gin.Engine, handler *Handler) {
	r.Use(corsMiddleware())
	r.Use(requestIDMiddleware())

	r.GET("/healthz", handler.Healthz)

	// WebSocket quest sessions
	r.GET("/ws/quest", handler.QuestWebSocket)

	api := r.Group("/api")
	api.Use(DefaultRateLimit())
	{
		loreGroup := api.Group("/lore")
		{
			loreGroup.GET("/categories", handler.GetLoreCategories)
			loreGroup.GET("/entry/:name", handler.GetLoreEntry)
			loreGroup.GET("/search", handler.SearchLore)
			loreGroup.GET("/lint", handler.LintLore)
			loreGroup.POST("/reload", handler.ReloadLore)
			loreGroup.POST("/export", handler.ExportLore)
			loreGroup.GET("/:category", handler.GetLoreCategory)
		}

		charactersGroup := api.Group("/characters")
		{
			charactersGroup.GET("", handler.GetCharacters)
			charactersGroup.GET("/:name", handler.GetCharacter)
			charactersGroup.POST("/:name/chat", ChatRateLimit(), handler.ChatWithCharacter)
		}

		questsGroup := api.Group("/quests")
		{
			questsGroup.GET("", handler.GetQuests)
			questsGroup.GET("/history", handler.GetQuestHistory)
			questsGroup.POST("/:title/start", handler.StartQuest)
			questsGroup.GET("/session", handler.GetQuestSession)
			questsGroup.POST("/session/choice", handler.MakeQuestChoice)
			questsGroup.POST("/session/abandon", handler.AbandonQuest)
		}

		api.POST("/users", handler.RegisterUser)
		usersGroup := api.Group("/users/:user_id")
		{
			usersGroup.GET("", handler.GetUserProfile)
			usersGroup.GET("/inventory", handler.GetInventory)
			usersGroup.GET("/status", handler.GetStatus)
			usersGroup.GET("/collection", handler.GetCollection)
			usersGroup.GET("/relationships", handler.GetRelationships)
			usersGroup.POST("/discover", handler.Discover)
			usersGroup.GET("/settings", handler.GetSettings)
			usersGroup.PUT("/settings", handler.UpdateSettings)
		}

		craftGroup := api.Group("/craft")
		{
			craftGroup.GET("/recipes", handler.GetRecipes)
			craftGroup.GET("/:item/check", handler.CheckCraft)
			craftGroup.POST("/:item", handler.Craft)
		}

		api.GET("/ws/status", handler.GetWebSocketStatus)
	}
}
