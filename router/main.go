package router

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/datalings/onthescales/database"
	"github.com/datalings/onthescales/handlers"
	admin_handlers "github.com/datalings/onthescales/handlers/admin"
	game_handlers "github.com/datalings/onthescales/handlers/game"
	player_handlers "github.com/datalings/onthescales/handlers/player"
	setting_handlers "github.com/datalings/onthescales/handlers/setting"
	stats_handlers "github.com/datalings/onthescales/handlers/stats"
	"github.com/datalings/onthescales/utils/cache"
)

func SetupRoutes(app *fiber.App, store database.Storage, redisURL string) {
	// Get DB instance (type assert from interface)
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("Failed to get GORM DB instance")
	}

	// Initialize Redis cache for statistics. Missing redis only disables
	// caching, it never blocks the API.
	var statsCache *cache.RedisCache
	if redisURL != "" {
		var err error
		statsCache, err = cache.NewRedisCache(redisURL)
		if err != nil {
			log.Printf("Warning: Failed to connect to Redis: %v. Statistics caching is disabled.", err)
			statsCache = nil
		}
	}

	// Initialize handlers
	playerHandler := player_handlers.NewPlayerHandler(db)
	settingHandler := setting_handlers.NewSettingHandler(db)
	gameHandler := game_handlers.NewGameHandler(db, statsCache)
	statsHandler := stats_handlers.NewStatsHandler(db, statsCache)
	databaseHandler := admin_handlers.NewDatabaseHandler(store)

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return handlers.HandleCheckHealth(c, store)
	})

	v1 := app.Group("/api/v1")

	// Player registry
	players := v1.Group("/players")
	players.Get("/", playerHandler.ListPlayers)
	players.Post("/", playerHandler.CreatePlayer)
	players.Get("/:id", playerHandler.GetPlayer)
	players.Put("/:id", playerHandler.RenamePlayer)
	players.Patch("/:id/status", playerHandler.SetPlayerStatus)

	// Setting catalog
	settings := v1.Group("/settings")
	settings.Get("/", settingHandler.ListSettings)
	settings.Post("/", settingHandler.CreateSetting)
	settings.Put("/items/:itemID", settingHandler.RenameItem)
	settings.Get("/:id", settingHandler.GetSetting)
	settings.Put("/:id", settingHandler.UpdateSetting)
	settings.Patch("/:id/status", settingHandler.SetSettingStatus)
	settings.Get("/:id/items", settingHandler.ListItems)
	settings.Post("/:id/items", settingHandler.AddItem)

	// Game ledger
	games := v1.Group("/games")
	games.Get("/", gameHandler.ListGames)
	games.Post("/", gameHandler.RecordGame)
	games.Get("/:id", gameHandler.GetGame)
	games.Put("/:id", gameHandler.UpdateGame)
	games.Delete("/:id", gameHandler.DeleteGame)

	// Statistics
	stats := v1.Group("/stats")
	stats.Get("/dashboard", statsHandler.GetDashboard)
	stats.Get("/summary", statsHandler.GetSummary)

	// Maintenance
	adminGroup := v1.Group("/admin")
	adminGroup.Post("/database/nuke", databaseHandler.NukeDatabase)
}
