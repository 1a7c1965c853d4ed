package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
	"gorm.io/gorm"

	"github.com/yeremiapane/notification-hub/cache"
	"github.com/yeremiapane/notification-hub/config"
	"github.com/yeremiapane/notification-hub/database"
	"github.com/yeremiapane/notification-hub/hub"
	"github.com/yeremiapane/notification-hub/router"
	"github.com/yeremiapane/notification-hub/services"
	"github.com/yeremiapane/notification-hub/utils"
)

// application holds everything main starts and later stops.
type application struct {
	engine *gin.Engine
	hub    *hub.Hub
	users  *services.UserService
}

func buildApplication(cfg *config.Config, db *gorm.DB, pages cache.PageCache) *application {
	tokens := utils.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL)

	settings := services.NewSettingsService(db)
	users := services.NewUserService(db, tokens)
	users.OnUserCreated(settings.CreateDefault)
	auth := services.NewAuthService(tokens, users)

	snapshots := services.NewSnapshotService(db, settings, pages, cfg.Notifications.CacheTTL(), cfg.Notifications.PageSize)

	hubCfg := hub.DefaultConfig()
	hubCfg.SendBuffer = cfg.Notifications.SendBuffer
	liveHub := hub.NewHub(auth, snapshots, hubCfg)

	propagator := services.NewChangePropagator(snapshots, pages, liveHub, cfg.Notifications.IncludeContentInPush)
	notifications := services.NewNotificationService(db, propagator)

	engine := router.SetupRouter(router.Dependencies{
		Tokens:        tokens,
		Users:         users,
		Settings:      settings,
		Snapshots:     snapshots,
		Notifications: notifications,
		Hub:           liveHub,
		AllowOrigins:  cfg.Server.AllowOrigins,
		UseCache:      cfg.Notifications.CacheEnabled,
	})

	return &application{
		engine: engine,
		hub:    liveHub,
		users:  users,
	}
}

// openPageCache falls back to no caching when Redis is off or unreachable.
func openPageCache(cfg *config.Config) (cache.PageCache, *goredis.Client) {
	if !cfg.Notifications.CacheEnabled {
		utils.InfoLogger.Println("Snapshot cache disabled")
		return cache.NopPageCache{}, nil
	}
	rdb, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		utils.ErrorLogger.Errorf("Snapshot cache unavailable, continuing without it: %v", err)
		return cache.NopPageCache{}, nil
	}
	return cache.NewRedisPageCache(rdb), rdb
}

func ginMode(mode string) string {
	switch mode {
	case gin.ReleaseMode, gin.TestMode:
		return mode
	default:
		return gin.DebugMode
	}
}

func main() {
	configPath := pflag.StringP("config", "c", "", "path to a config file (default ./config/config.yaml or ./config.yaml)")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to load config: %v", err)
	}
	utils.InitLogger(cfg.Log.Level, cfg.Log.Format)
	gin.SetMode(ginMode(cfg.Server.GinMode))

	db, err := config.InitDB(&cfg.Database)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to migrate: %v", err)
	}

	pages, rdb := openPageCache(cfg)
	app := buildApplication(cfg, db, pages)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           app.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		utils.InfoLogger.Printf("Listening on port %d", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.ErrorLogger.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	utils.InfoLogger.Println("Shutting down...")

	// Upgraded connections are not tracked by http.Server, close them first.
	app.hub.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.ErrorLogger.Errorf("Server shutdown: %v", err)
	}

	if rdb != nil {
		rdb.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	utils.InfoLogger.Println("Server stopped")
}
