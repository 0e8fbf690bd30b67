package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/novelhub/internal/config"
	"github.com/novelhub/internal/database"
	"github.com/novelhub/internal/handler"
	"github.com/novelhub/internal/middleware"
	"github.com/novelhub/internal/repository"
	"github.com/novelhub/internal/service"
	"github.com/novelhub/internal/storage"
	"github.com/novelhub/internal/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// Build info (injected at build time via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	// .env is optional; real environment variables win
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: failed to load .env: %v", err)
	}

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := middleware.InitLogger(cfg.Log.Dir); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// Set Gin mode
	gin.SetMode(cfg.Server.Mode)

	// Initialize database
	conn := database.NewPostgres(cfg)
	db, err := conn.DB()
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Initialize Redis
	rdb := initRedis(cfg)

	// Initialize object storage
	uploader, localDir, err := initStorage(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	novelRepo := repository.NewNovelRepository(db)
	chapterRepo := repository.NewChapterRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	// Initialize services
	authService := service.NewAuthService(userRepo, cfg.JWT)
	uploadService := service.NewUploadService(uploader, cfg.Upload)
	novelService := service.NewNovelService(novelRepo, chapterRepo, uploadService, cfg.Content)
	chapterService := service.NewChapterService(novelRepo, chapterRepo, uploadService)
	paymentService := service.NewPaymentService(paymentRepo, uploadService)

	// Live views feed
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	viewFeed := service.NewViewFeed(rdb)
	novelService.SetViewNotifier(viewFeed)
	go func() {
		if err := viewFeed.Run(ctx); err != nil {
			middleware.LogError("View feed stopped: %v", err)
		}
	}()

	// Initialize handlers
	if err := handler.RegisterValidators(); err != nil {
		log.Fatalf("Failed to register validators: %v", err)
	}
	authHandler := handler.NewAuthHandler(authService)
	novelHandler := handler.NewNovelHandler(novelService, uploadService)
	chapterHandler := handler.NewChapterHandler(chapterService, uploadService)
	paymentHandler := handler.NewPaymentHandler(paymentService, uploadService)
	uploadHandler := handler.NewUploadHandler(uploadService)
	liveHandler := handler.NewLiveHandler(viewFeed, novelRepo)

	// Create Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.MaxMultipartMemory = cfg.Upload.MaxImageBytes() * 2

	router.Use(middleware.RequestLoggerMiddleware())
	router.Use(middleware.Metrics())
	router.Use(corsMiddleware())

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "ok",
			"version":    Version,
			"commit":     Commit,
			"build_time": BuildTime,
			"time":       time.Now().Unix(),
			"redis":      rdb.Ping(c.Request.Context()).Err() == nil,
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if localDir != "" {
		router.Static(storage.PublicPrefix, localDir)
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(middleware.OptionalAuth(authService))
	v1.Use(middleware.RateLimit(middleware.NewRedisCounter(rdb), middleware.RateLimitConfig{
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		BurstSize:         cfg.RateLimit.BurstSize,
	}))
	v1.Use(middleware.WriteLoggerMiddleware())
	{
		authMiddleware := middleware.AuthMiddleware(authService)

		authHandler.RegisterRoutes(v1, authMiddleware)
		novelHandler.RegisterRoutes(v1, authMiddleware)
		chapterHandler.RegisterRoutes(v1, authMiddleware)
		paymentHandler.RegisterRoutes(v1, authMiddleware)
		uploadHandler.RegisterRoutes(v1, authMiddleware)
		liveHandler.RegisterRoutes(v1)
	}

	// Orphan chapter sweeper
	var sweeper *worker.OrphanSweeper
	if cfg.Worker.SweepIntervalMinutes > 0 {
		sweeper = worker.NewOrphanSweeper(chapterRepo, time.Duration(cfg.Worker.SweepIntervalMinutes)*time.Minute)
		go sweeper.Start()
	}

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	if sweeper != nil {
		sweeper.Stop()
	}
	cancel()

	// Graceful shutdown with 10 second timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	// Close Redis connection
	if err := rdb.Close(); err != nil {
		log.Printf("Error closing Redis connection: %v", err)
	}

	// Close database pool
	if err := conn.Close(); err != nil {
		log.Printf("Error closing database connection: %v", err)
	}

	log.Println("Server exited properly")
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// initStorage returns the configured uploader and, for the local driver,
// the directory to serve under storage.PublicPrefix
func initStorage(cfg *config.Config) (storage.Uploader, string, error) {
	switch cfg.Storage.Driver {
	case "cloudinary":
		u, err := storage.NewCloudinaryUploader(cfg.Storage.CloudName, cfg.Storage.APIKey, cfg.Storage.APISecret)
		if err != nil {
			return nil, "", err
		}
		log.Printf("Using Cloudinary storage (cloud %s)", cfg.Storage.CloudName)
		return u, "", nil
	default:
		u := storage.NewLocalUploader(cfg.Storage.LocalDir, cfg.Storage.PublicBaseURL)
		if err := os.MkdirAll(u.BasePath(), 0755); err != nil {
			return nil, "", err
		}
		log.Printf("Using local storage at %s", u.BasePath())
		return u, u.BasePath(), nil
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
