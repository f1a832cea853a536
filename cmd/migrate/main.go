package main

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/sahilchouksey/smart-campus-api/config"
	"github.com/sahilchouksey/smart-campus-api/database"
	"github.com/sahilchouksey/smart-campus-api/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if _, _, err := utils.SetupLogger(cfg.LogLevel, ""); err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	name := cfg.DatabaseName()
	created, err := database.EnsureDatabase(ctx, cfg.MaintenanceDSN(), name)
	if err != nil {
		log.Fatalf("Failed to ensure database %q: %v", name, err)
	}
	if created {
		log.Infof("Created database %q", name)
	}

	store, err := database.StartGORM(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		store.Close()
		log.Fatalf("Migration failed: %v", err)
	}
	log.Info("Migrations applied")
}
