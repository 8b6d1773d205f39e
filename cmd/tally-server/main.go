package main

import (
	"github.com/gin-gonic/gin"

	"github.com/mikepea/tally/pkg/tally/config"
	"github.com/mikepea/tally/pkg/tally/counters"
	"github.com/mikepea/tally/pkg/tally/database"
	"github.com/mikepea/tally/pkg/tally/keys"
	"github.com/mikepea/tally/pkg/tally/logs"
	"github.com/mikepea/tally/pkg/tally/models"
)

func main() {
	cfg := config.MustLoad()

	logs.Init(logs.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	})

	// Connect to database
	db, err := database.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logs.Logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Run auto-migrations
	if err := models.AutoMigrate(db); err != nil {
		logs.Logger.Fatalf("Failed to run migrations: %v", err)
	}
	logs.Logger.Info("Database migrations completed")

	// Set up Gin router
	r := gin.Default()

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	// API routes
	api := r.Group("/api/v1")
	{
		// Key issuance (public)
		keysHandler := keys.NewHandler(db)
		keysHandler.RegisterRoutes(api)

		// Counters (bearer key required; each handler verifies the key
		// inside its own transaction)
		countersHandler := counters.NewHandler(db)
		countersHandler.RegisterRoutes(api)
	}

	addr := cfg.Server.Address + ":" + cfg.Server.HTTPPort
	logs.Logger.Infof("Starting tally server on %s", addr)
	if err := r.Run(addr); err != nil {
		logs.Logger.Fatalf("Failed to start server: %v", err)
	}
}
