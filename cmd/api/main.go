package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"warehouse-sync-api/internal/cache"
	"warehouse-sync-api/internal/config"
	"warehouse-sync-api/internal/handler"
	"warehouse-sync-api/internal/middleware"
	"warehouse-sync-api/internal/notify"
	"warehouse-sync-api/internal/repository"
	"warehouse-sync-api/internal/router"
	"warehouse-sync-api/internal/service"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting Warehouse Sync API...")

	// Load configuration
	cfg := config.MustLoad()
	log.Printf("Environment: %s", cfg.App.Environment)

	// Initialize the sync store based on config
	var (
		syncDB      *sql.DB
		itemRepo    repository.ItemRepository
		txRepo      repository.TransactionRepository
		pendingRepo repository.PendingActionRepository
		err         error
	)
	switch cfg.SyncDB.Type {
	case "postgres", "postgresql":
		syncDB, err = repository.OpenPostgres(cfg.SyncDB.PostgresDSN())
		if err != nil {
			log.Fatalf("Failed to initialize PostgreSQL: %v", err)
		}
		itemRepo = repository.NewPostgresItemRepository(syncDB)
		txRepo = repository.NewPostgresTransactionRepository(syncDB)
		pendingRepo = repository.NewPostgresPendingActionRepository(syncDB)
		log.Println("PostgreSQL sync store initialized")
	default: // sqlite
		syncDB, err = repository.OpenSQLite(cfg.SyncDB.Path)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite: %v", err)
		}
		itemRepo = repository.NewSQLiteItemRepository(syncDB)
		txRepo = repository.NewSQLiteTransactionRepository(syncDB)
		pendingRepo = repository.NewSQLitePendingActionRepository(syncDB)
		log.Println("SQLite sync store initialized")
	}
	defer syncDB.Close()

	// Initialize MySQL connection for admin/assistant accounts (optional)
	var mysqlDB *sql.DB
	var actorRepo repository.ActorRepository

	mysqlDB, err = sql.Open("mysql", cfg.Accounts.DSN())
	if err != nil {
		log.Printf("Warning: MySQL connection failed: %v", err)
	} else {
		mysqlDB.SetMaxOpenConns(10)
		mysqlDB.SetMaxIdleConns(5)
		mysqlDB.SetConnMaxLifetime(5 * time.Minute)

		if err := mysqlDB.Ping(); err != nil {
			log.Printf("Warning: MySQL ping failed: %v", err)
			mysqlDB.Close()
			mysqlDB = nil
		} else {
			actorRepo = repository.NewMySQLActorRepository(mysqlDB)
			log.Println("MySQL actor repository initialized")
		}
	}
	if mysqlDB != nil {
		defer mysqlDB.Close()
	}

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Cache.RedisAddress(),
		Password: cfg.Cache.RedisPassword,
		DB:       cfg.Cache.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis connection failed: %v", err)
		redisClient = nil
	} else {
		log.Println("Redis client initialized")
	}
	cancel()

	// Cache fronting the assistant->admin resolution on pulls
	var actorCache cache.Cache
	if redisClient != nil && cfg.Cache.Type == "redis" {
		actorCache = cache.NewRedisCache(redisClient, "")
		log.Println("Redis cache initialized")
	} else {
		actorCache = cache.NewMemoryCache()
		log.Println("Memory cache initialized")
	}

	// Push notification dispatcher (best-effort; queue consumed out of process)
	var dispatcher notify.Dispatcher = notify.NoopDispatcher{}
	var tokenRegistry notify.TokenRegistry
	if redisClient != nil {
		redisDispatcher := notify.NewRedisDispatcher(redisClient)
		dispatcher = redisDispatcher
		tokenRegistry = redisDispatcher
		log.Println("Redis notification dispatcher initialized")
	}

	var tokenService *service.TokenService
	if redisClient != nil {
		tokenService = service.NewTokenService(redisClient)
	}

	// Initialize services
	syncService := service.NewSyncService(itemRepo, txRepo, pendingRepo, actorRepo, actorCache, cfg.Cache.TTL)
	approvalService := service.NewApprovalService(pendingRepo, dispatcher)

	// Expiry reaper sweeps overdue PENDING actions
	reaper := service.NewExpiryReaper(pendingRepo, service.ReaperConfig{
		Interval:     cfg.Reaper.Interval,
		StartupDelay: cfg.Reaper.StartupDelay,
	})
	reaper.Start()
	defer reaper.Stop()

	// Initialize handlers
	healthHandler := handler.New(cfg.App.Version)
	syncHandler := handler.NewSyncHandler(syncService)
	approvalHandler := handler.NewApprovalHandler(approvalService)
	notificationHandler := handler.NewNotificationHandler(tokenRegistry)
	adminHandler := handler.NewAdminHandler(itemRepo, txRepo, pendingRepo, cfg.SyncDB.Type, cfg.App.LoginKey)

	var authHandler *handler.AuthHandler
	if tokenService != nil && actorRepo != nil {
		authHandler = handler.NewAuthHandler(tokenService, actorRepo)
	}

	// Create auth middleware with injected dependencies
	authMiddleware := middleware.NewAuthMiddleware(middleware.AuthConfig{
		TokenService: tokenService,
	})

	// Create router
	r := router.New(router.Config{
		Handler:             healthHandler,
		SyncHandler:         syncHandler,
		ApprovalHandler:     approvalHandler,
		NotificationHandler: notificationHandler,
		AdminHandler:        adminHandler,
		AuthHandler:         authHandler,
		AuthMiddleware:      authMiddleware,
	})

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

	ctx, cancel = context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
	fmt.Println("Goodbye!")
}
