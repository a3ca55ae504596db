package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"meeplehub-api/internal/bgg"
	"meeplehub-api/internal/cache"
	"meeplehub-api/internal/config"
	"meeplehub-api/internal/handler"
	"meeplehub-api/internal/lock"
	"meeplehub-api/internal/middleware"
	"meeplehub-api/internal/repository"
	"meeplehub-api/internal/router"
	"meeplehub-api/internal/service"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting MeepleHub API...")

	// Load configuration
	cfg := config.MustLoad()
	log.Printf("Environment: %s", cfg.App.Environment)

	// Initialize collection/catalog repositories based on config
	var collectionRepo repository.CollectionRepository
	var catalogRepo repository.GameCatalogRepository

	switch cfg.CollectionDB.Type {
	case "postgres", "postgresql":
		db, err := repository.OpenPostgres(cfg.CollectionDB.PostgresDSN())
		if err != nil {
			log.Fatalf("Failed to initialize PostgreSQL: %v", err)
		}
		collectionRepo = repository.NewPostgresCollectionRepository(db)
		catalogRepo = repository.NewPostgresGameCatalogRepository(db)
		log.Println("PostgreSQL collection repository initialized")
	default: // sqlite
		db, err := repository.OpenSQLite(cfg.CollectionDB.Path)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite: %v", err)
		}
		collectionRepo = repository.NewSQLiteCollectionRepository(db)
		catalogRepo = repository.NewSQLiteGameCatalogRepository(db)
		log.Println("SQLite collection repository initialized")
	}
	defer collectionRepo.Close()

	// Initialize MySQL connection for user profiles (optional)
	var profileRepo repository.ProfileRepository

	mysqlDB, err := sql.Open("mysql", cfg.Database.DSN())
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
			profileRepo = repository.NewMySQLProfileRepository(mysqlDB)
			log.Println("MySQL profile repository initialized")
		}
	}
	if mysqlDB != nil {
		defer mysqlDB.Close()
	}

	// Initialize Redis client (optional; memory fallbacks below)
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

	// Sync lock: Redis when available so the single-flight guarantee
	// holds across instances, otherwise in-process
	var syncLocker lock.Locker
	if redisClient != nil {
		syncLocker = lock.NewRedisLocker(redisClient, cfg.Sync.LockTTL)
	} else {
		syncLocker = lock.NewMemoryLocker(cfg.Sync.LockTTL)
	}

	// Listing cache
	var listCache cache.Cache
	if redisClient != nil && strings.EqualFold(cfg.Cache.Type, "redis") {
		listCache = cache.NewRedisCache(redisClient, "")
		log.Println("Redis cache initialized")
	} else {
		memCache := cache.NewMemoryCache()
		defer memCache.Close()
		listCache = memCache
		log.Println("Memory cache initialized")
	}

	// BGG client
	bggClient := bgg.NewClient(bgg.ClientOptions{
		BaseURL:        cfg.BGG.BaseURL,
		RequestTimeout: cfg.BGG.RequestTimeout,
		MaxAttempts:    cfg.BGG.MaxAttempts,
		BaseDelay:      cfg.BGG.BaseDelay,
		MaxDelay:       cfg.BGG.MaxDelay,
		UserAgent:      cfg.BGG.UserAgent,
	})

	// Initialize services
	collectionService := service.NewCollectionService(
		bggClient, catalogRepo, collectionRepo, profileRepo,
		syncLocker, listCache, cfg.Cache.TTL,
	)
	if collectionService == nil {
		log.Fatal("Failed to initialize collection service")
	}

	var tokenService *service.TokenService
	if redisClient != nil {
		tokenService = service.NewTokenService(redisClient)
	}

	// Initialize handlers
	healthHandler := handler.New(cfg.App.Version)
	collectionHandler := handler.NewCollectionHandler(collectionService)
	adminHandler := handler.NewAdminHandler(collectionRepo, cfg.CollectionDB.Type)

	var authHandler *handler.AuthHandler
	if tokenService != nil {
		authHandler = handler.NewAuthHandler(tokenService)
	}

	// Create auth middleware with injected dependencies
	var tokenValidator middleware.TokenValidator
	if tokenService != nil {
		tokenValidator = tokenService
	}
	authMiddleware := middleware.NewAuthMiddleware(middleware.AuthConfig{
		TokenService: tokenValidator,
		APIKeys:      apiKeysFromEnv(),
		LoginKey:     cfg.App.LoginKey,
	})

	// Create router
	r := router.New(router.Config{
		Handler:           healthHandler,
		CollectionHandler: collectionHandler,
		AdminHandler:      adminHandler,
		AuthHandler:       authHandler,
		AuthMiddleware:    authMiddleware,
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
}

// apiKeysFromEnv reads the comma-separated service API keys.
func apiKeysFromEnv() []string {
	keysEnv := os.Getenv("API_KEYS")
	if keysEnv == "" {
		if singleKey := os.Getenv("API_KEY"); singleKey != "" {
			return []string{singleKey}
		}
		return nil
	}

	keys := strings.Split(keysEnv, ",")
	for i := range keys {
		keys[i] = strings.TrimSpace(keys[i])
	}
	return keys
}
