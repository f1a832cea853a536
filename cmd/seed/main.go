package main

import (
	"context"
	"fmt"
	"os"
	"strings"
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

	store, err := database.StartGORM(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	separator := strings.Repeat("=", 60)
	fmt.Println(separator)
	fmt.Println("Smart Campus - Database Seeding")
	fmt.Println(separator)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	seeder := database.NewSeeder(store.DB(), database.SeedOptions{
		AdminEmail:    cfg.SeedAdminEmail,
		AdminPassword: cfg.SeedAdminPassword,
		DemoPassword:  os.Getenv("SEED_DEMO_PASSWORD"),
	})
	if err := seeder.SeedAll(ctx); err != nil {
		log.Errorf("Seeding failed: %v", err)
		store.Close()
		os.Exit(1)
	}

	fmt.Println(separator)
	fmt.Println("Seeding completed successfully")
	fmt.Printf("Admin: %s\n", cfg.SeedAdminEmail)
	fmt.Println("Re-running this command is safe; existing rows are left alone.")
	fmt.Println(separator)
}
