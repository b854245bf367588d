package app

import (
	"fmt"

	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/datalings/onthescales/api"
	"github.com/datalings/onthescales/config"
	"github.com/datalings/onthescales/database"
	"github.com/datalings/onthescales/router"
)

func SetupAndRunServer() error {

	// Load ENV
	if err := config.LoadENV(); err != nil {
		return err
	}

	getEnv, err := config.Get()
	if err != nil {
		return err
	}

	// Initialize GORM database connection
	store, err := database.StartGORM()
	if err != nil {
		print("Check whether the Postgres is running or not\n")
		return err
	}

	if err := store.Init(); err != nil {
		print("Failed to initialize database tables\n")
		return err
	}

	// Defer Closing DB
	defer store.Close()

	// Init API
	var server *api.APIServer = api.NewAPIServer(fmt.Sprintf(":%d", getEnv.PORT))
	app := server.GetEngine()

	// Attach Middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Setup Routes
	router.SetupRoutes(app, store, getEnv.REDIS_URL)

	// Get the PORT & Start the Server
	return server.Run()
}
