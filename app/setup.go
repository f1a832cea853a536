package app

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/sahilchouksey/smart-campus-api/api"
	"github.com/sahilchouksey/smart-campus-api/config"
	"github.com/sahilchouksey/smart-campus-api/database"
	"github.com/sahilchouksey/smart-campus-api/router"
	"github.com/sahilchouksey/smart-campus-api/services"
	"github.com/sahilchouksey/smart-campus-api/services/cron"
	"github.com/sahilchouksey/smart-campus-api/services/storage"
	"github.com/sahilchouksey/smart-campus-api/utils"
	"github.com/sahilchouksey/smart-campus-api/utils/auth"
	"github.com/sahilchouksey/smart-campus-api/utils/cache"
	"github.com/sahilchouksey/smart-campus-api/utils/response"
)

const shutdownTimeout = 15 * time.Second

// SetupAndRunServer wires the portal and serves until SIGINT or SIGTERM. Any error returned
// before the listener starts is fatal to the process.
func SetupAndRunServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	accessLog, closeLog, err := utils.SetupLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()

	response.ExposeDetails = cfg.IsDevelopment()

	// Initialize GORM database connection
	store, err := database.StartGORM(cfg)
	if err != nil {
		log.Error("Check whether Postgres is running and DATABASE_URL / DB_* are correct")
		return err
	}
	if err := store.Init(); err != nil {
		_ = store.Close()
		return fmt.Errorf("failed to initialize database tables: %w", err)
	}

	// Redis is optional; without it rate limits are per process and cron runs unlocked
	var redisCache *cache.RedisCache
	if cfg.RedisURL != "" {
		redisCache, err = cache.NewRedisCache(cfg.RedisURL, "campus:")
		if err != nil {
			log.Warnf("Failed to connect to Redis: %v. Continuing without it.", err)
			redisCache = nil
		} else {
			log.Info("Connected to Redis")
		}
	}

	var objects storage.ObjectStore
	if cfg.StorageEnabled() {
		s3Client, err := storage.NewS3Client(storage.S3Config{
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PublicURL: cfg.S3PublicURL,
		})
		if err != nil {
			log.Warnf("Failed to configure object storage: %v. Attachments are disabled.", err)
		} else {
			objects = s3Client
		}
	} else {
		log.Info("Object storage not configured; submission attachments are disabled")
	}

	var cronManager *cron.CronManager
	if cfg.CronEnabled {
		cronManager, err = startCron(cfg, store, redisCache, objects)
		if err != nil {
			closeStores(store, redisCache)
			return err
		}
	}

	server := api.NewAPIServer(fmt.Sprintf(":%d", cfg.Port))
	app := server.GetEngine()

	router.SetupRoutes(app, router.Dependencies{
		Config:    cfg,
		Store:     store,
		Cache:     redisCache,
		Objects:   objects,
		Cron:      cronManager,
		AccessLog: accessLog,
	})

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Run()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-quit:
		log.Infof("Received %s, shutting down", sig)
	case runErr = <-serveErr:
		log.Errorf("Server stopped: %v", runErr)
	}

	// cron first so no job starts against a closing store
	if cronManager != nil {
		cronManager.Stop()
	}
	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Errorf("Server shutdown: %v", err)
	}
	closeStores(store, redisCache)

	log.Info("Shutdown complete")
	return runErr
}

func startCron(cfg *config.Config, store database.Storage, redisCache *cache.RedisCache, objects storage.ObjectStore) (*cron.CronManager, error) {
	db := store.DB()

	var locker cron.Locker
	if redisCache != nil {
		locker = redisCache
	}
	manager := cron.NewCronManager(db, locker)

	notifications := services.NewNotificationService(db)
	err := manager.RegisterDefaultJobs(cron.Dependencies{
		Reminders:     services.NewAssignmentService(db, notifications, objects),
		Notifications: notifications,
		Tokens:        auth.NewBlacklistService(db),
		RetentionDays: cfg.NotificationRetentionDays,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register cron jobs: %w", err)
	}
	manager.Start()
	return manager, nil
}

func closeStores(store database.Storage, redisCache *cache.RedisCache) {
	var errs []error
	if err := store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("database: %w", err))
	}
	if redisCache != nil {
		if err := redisCache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		log.Warnf("Failed to close stores: %v", err)
	}
}
