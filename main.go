package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/cafe-manager-api/config"
	"github.com/kendall-kelly/cafe-manager-api/controllers"
	"github.com/kendall-kelly/cafe-manager-api/models"
	"github.com/kendall-kelly/cafe-manager-api/services"
	"github.com/kendall-kelly/cafe-manager-api/utils"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	config.InitLogger(cfg.LogLevel, cfg.GoEnv)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	log.Info().Str("env", cfg.GoEnv).Msg("Starting Cafe Manager API server...")

	if err := config.ConnectDatabase(cfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer func() {
		if err := config.CloseDatabase(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}()

	db := config.GetDB()
	if err := models.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}
	log.Info().Msg("Database migration completed successfully")

	ctx := context.Background()
	if err := services.EnsureDefaultUsers(ctx, db, services.NewBcryptHasher(), cfg.SeedPasswords); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed default users")
	}

	initImageService(ctx, cfg)
	closeStore := initTokenStore(ctx, cfg)
	defer closeStore()

	router := setupRouter(cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msgf("Server is running on http://localhost:%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// setupRouter adds the public health endpoints to the API router
func setupRouter(cfg *config.Config) *gin.Engine {
	router := controllers.SetupRouter(cfg)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/database/status", databaseStatus)
	}
	return router
}

// initImageService picks S3 when a bucket is configured and local disk otherwise
func initImageService(ctx context.Context, cfg *config.Config) {
	if cfg.AWSS3Bucket == "" {
		log.Info().Str("dir", utils.UploadDir).Msg("AWS_S3_BUCKET not set, storing menu photos on local disk")
		services.SetImageService(services.NewLocalImageService(utils.UploadDir))
		return
	}

	s3Service, err := services.NewS3Service(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize S3, menu photo uploads are disabled")
		return
	}
	services.SetImageService(services.NewS3ImageService(s3Service))
	log.Info().Str("bucket", cfg.AWSS3Bucket).Msg("Storing menu photos in S3")
}

// initTokenStore uses Redis for logout revocations when REDIS_URL is set
func initTokenStore(ctx context.Context, cfg *config.Config) func() {
	if cfg.RedisURL == "" {
		services.SetTokenStore(services.NewMemoryTokenStore())
		return func() {}
	}

	store, err := services.NewRedisTokenStore(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	services.SetTokenStore(store)
	log.Info().Msg("Token revocations stored in Redis")
	return func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close Redis connection")
		}
	}
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Cafe Manager API is running",
	})
}

// databaseStatus checks database connectivity and lists the tables
func databaseStatus(c *gin.Context) {
	db := config.GetDB()
	if db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Database is not connected",
			},
		})
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to get database instance",
			},
		})
		return
	}

	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	tables, err := db.Migrator().GetTables()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_QUERY_ERROR",
				"message": "Failed to query tables",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"tables":  tables,
	})
}
