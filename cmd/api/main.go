package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bloxstake-trading-api/internal/cache"
	"bloxstake-trading-api/internal/config"
	"bloxstake-trading-api/internal/handler"
	"bloxstake-trading-api/internal/lock"
	"bloxstake-trading-api/internal/middleware"
	"bloxstake-trading-api/internal/repository"
	"bloxstake-trading-api/internal/roblox"
	"bloxstake-trading-api/internal/router"
	"bloxstake-trading-api/internal/security"
	"bloxstake-trading-api/internal/service"

	"github.com/redis/go-redis/v9"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting BloxStake Trading API...")

	// Load configuration
	cfg := config.MustLoad()
	log.Printf("Environment: %s", cfg.App.Environment)

	// SQLite carries profiles and trade history in every deployment.
	sqliteDB, err := repository.OpenSQLite(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize SQLite: %v", err)
	}
	defer sqliteDB.Close()

	profileRepo := repository.NewSQLiteProfileRepository(sqliteDB)
	tradeRepo := repository.NewSQLiteTradeRepository(sqliteDB)

	// Bindings and inventory can move to MySQL for multi-instance setups.
	var bindingRepo repository.BindingRepository
	var inventoryRepo repository.InventoryRepository
	switch cfg.Database.Backend {
	case "mysql":
		mysqlDB, err := repository.OpenMySQL(cfg.Database.MySQLDSN())
		if err != nil {
			log.Fatalf("Failed to initialize MySQL: %v", err)
		}
		defer mysqlDB.Close()
		bindingRepo = repository.NewMySQLBindingRepository(mysqlDB)
		inventoryRepo = repository.NewMySQLInventoryRepository(mysqlDB)
		log.Println("MySQL binding/inventory repositories initialized")
	default: // sqlite
		bindingRepo = repository.NewSQLiteBindingRepository(sqliteDB)
		inventoryRepo = repository.NewSQLiteInventoryRepository(sqliteDB)
		log.Println("SQLite binding/inventory repositories initialized")
	}

	// Redis backs sessions and per-user locks when available; both fall back
	// to in-process implementations for single-instance deployments.
	var sessionCache cache.Cache = cache.NewMemoryCache()
	var locker lock.Locker = lock.NewMemoryLocker()

	if cfg.Cache.Type == "redis" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddress(),
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := redisClient.Ping(ctx).Err()
		cancel()

		if err != nil {
			log.Printf("Warning: Redis connection failed, using in-memory fallbacks: %v", err)
		} else {
			sessionCache = cache.NewRedisCache(redisClient, "bloxstake:")
			locker = lock.NewRedisLocker(redisClient)
			log.Println("Redis cache and locker initialized")
		}
	}
	defer sessionCache.Close()

	// Roblox public API client
	robloxClient := roblox.NewClient(roblox.Config{
		UsersBaseURL:      cfg.Roblox.UsersBaseURL,
		ThumbnailsBaseURL: cfg.Roblox.ThumbnailsBaseURL,
		Timeout:           cfg.Roblox.Timeout,
	})

	// Payload envelope signer shared with the in-game agent
	signer := security.NewSigner(cfg.Security.SigningSecret)

	// Initialize services
	verificationService := service.NewVerificationService(bindingRepo, profileRepo, robloxClient, locker)
	sessionService := service.NewSessionService(sessionCache)
	inventoryService := service.NewInventoryService(inventoryRepo, tradeRepo)
	statsService := service.NewStatsService(bindingRepo, inventoryRepo, tradeRepo)

	// Initialize handlers
	healthHandler := handler.New()
	verificationHandler := handler.NewVerificationHandler(verificationService)
	tradingHandler := handler.NewTradingHandler(sessionService, inventoryService, verificationService)
	statsHandler := handler.NewStatsHandler(statsService)

	// Create router
	r := router.New(router.Config{
		Handler:             healthHandler,
		VerificationHandler: verificationHandler,
		TradingHandler:      tradingHandler,
		StatsHandler:        statsHandler,
		AuthMiddleware:      middleware.APIKeyAuth(cfg.Security.APIKeys),
		SignatureMiddleware: middleware.VerifySignature(signer),
	})

	// Start stale-profile pruning
	cleanup := service.NewCleanupScheduler(profileRepo, service.CleanupConfig{
		Interval:       cfg.Cleanup.Interval,
		StaleThreshold: cfg.Cleanup.StaleThreshold,
	})
	cleanup.Start()

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	cleanup.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
