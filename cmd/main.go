package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/yungbote/courseforge-backend/internal/cache"
	"github.com/yungbote/courseforge-backend/internal/clients/gcp"
	"github.com/yungbote/courseforge-backend/internal/clients/gemini"
	"github.com/yungbote/courseforge-backend/internal/clients/redis"
	"github.com/yungbote/courseforge-backend/internal/db"
	"github.com/yungbote/courseforge-backend/internal/handlers"
	"github.com/yungbote/courseforge-backend/internal/logger"
	"github.com/yungbote/courseforge-backend/internal/repos"
	"github.com/yungbote/courseforge-backend/internal/server"
	"github.com/yungbote/courseforge-backend/internal/services"
	"github.com/yungbote/courseforge-backend/internal/utils"
)

func main() {
	_ = godotenv.Load()

	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	courseRepo := repos.NewCourseRepo(thePG, log)
	userRepo := repos.NewUserProfileRepo(thePG, log)

	// Cache
	log.Info("Setting up cache from main...")
	var store cache.Store
	if os.Getenv("REDIS_ADDR") != "" {
		store, err = redis.NewStore(log)
		if err != nil {
			log.Error("Could not init redis store", "error", err)
			os.Exit(1)
		}
	} else {
		log.Warn("REDIS_ADDR not set, using in-process cache")
		store = cache.NewMemoryStore()
	}
	courseCache := cache.NewCourseCache(store, log)

	// Clients
	geminiClient, err := gemini.NewClient(log)
	if err != nil {
		log.Error("Could not init GeminiClient", "error", err)
		os.Exit(1)
	}
	bucketService, err := gcp.NewBucketService(log)
	if err != nil {
		log.Warn("Could not init BucketService, thumbnails stay inline", "error", err)
	}

	// Services
	log.Info("Setting up Services from main...")
	thumbnailService := services.NewThumbnailService(log, courseCache, geminiClient, services.DefaultThumbnailConfig())
	guestCourseService := services.NewGuestCourseService(log, courseCache)
	sourcesService := services.NewSourcesService(log, courseCache)
	resumeService := services.NewResumeService(thePG, log, courseCache, courseRepo)
	var uploader services.ThumbnailUploader
	var remover services.ThumbnailRemover
	if bucketService != nil {
		uploader = bucketService
		remover = bucketService
	}
	courseService := services.NewCourseService(thePG, log, courseRepo, userRepo, remover)
	transferService := services.NewTransferService(thePG, log, courseCache, courseRepo, userRepo, uploader, services.DefaultTransferConfig())

	// Handlers
	log.Info("Setting up handlers from main...")
	courseHandler := handlers.NewCourseHandler(log, courseService)
	guestCourseHandler := handlers.NewGuestCourseHandler(log, guestCourseService)
	thumbnailHandler := handlers.NewThumbnailHandler(log, thumbnailService)
	transferHandler := handlers.NewTransferHandler(log, transferService)
	resumeHandler := handlers.NewResumeHandler(log, resumeService)
	sourcesHandler := handlers.NewSourcesHandler(log, sourcesService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		CourseHandler:      courseHandler,
		GuestCourseHandler: guestCourseHandler,
		ThumbnailHandler:   thumbnailHandler,
		TransferHandler:    transferHandler,
		ResumeHandler:      resumeHandler,
		SourcesHandler:     sourcesHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Warn("Server failed", "error", err)
	}
	transferService.WaitUploads()
}
