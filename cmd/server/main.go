package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/storyreel/api/internal/client"
	"github.com/storyreel/api/internal/config"
	"github.com/storyreel/api/internal/handler"
	"github.com/storyreel/api/internal/middleware"
	"github.com/storyreel/api/internal/service"
	"github.com/storyreel/api/internal/storage"
	ws "github.com/storyreel/api/internal/websocket"
	"github.com/storyreel/api/pkg/response"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize Redis client (rate limiting only; limiter fails open)
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis not available: %v", err)
	}

	// Initialize validator
	validate := validator.New()

	// Initialize external clients
	renderClient := client.NewRenderClient(&cfg.Render)

	// Blob storage is optional — video uploads fall back to placeholder URLs
	var blobClient client.BlobStore
	if cfg.Blob.AccessKeyID != "" && cfg.Blob.SecretAccessKey != "" {
		bc, err := client.NewBlobClient(&cfg.Blob)
		if err != nil {
			log.Printf("Warning: blob client not initialized: %v", err)
		} else {
			blobClient = bc
		}
	} else {
		log.Println("Info: blob storage not configured, video uploads use mock URLs")
	}

	// Initialize storage and services
	store := storage.New(cfg.Storage.AudioDir, cfg.Storage.MusicDir)
	renderService := service.NewRenderService(renderClient)
	uploadService := service.NewUploadService(store, blobClient, cfg.Upload.MaxAudioMB, cfg.Upload.MaxVideoMB)
	voiceoverService := service.NewVoiceoverService(renderClient)

	// Initialize handlers
	mediaHandler := handler.NewMediaHandler(store, renderClient)
	renderHandler := handler.NewRenderHandler(renderService)
	uploadHandler := handler.NewUploadHandler(uploadService)
	voiceoverHandler := handler.NewVoiceoverHandler(voiceoverService, validate)

	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Status push hub
	hub := ws.NewHub(renderService, 2*time.Second)
	go hub.Run()

	// Initialize Fiber app. The transport body limit sits at twice the video
	// ceiling: an oversized upload must reach the validation path and come
	// back as a 400 envelope, not get cut off by the server.
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    int(cfg.Upload.MaxVideoMB*2) * 1024 * 1024,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Base URL - timestamp
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"timestamp": time.Now().Unix(),
		})
	})

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"services": fiber.Map{
				"render": renderClient.IsConfigured(),
				"blob":   blobClient != nil,
				"redis":  redisClient.Ping(c.Context()).Err() == nil,
			},
		})
	})

	// Media serving
	app.Get("/audio/:filename", mediaHandler.ServeAudio)
	app.Get("/music/*", mediaHandler.ServeMusic)

	// Backend proxies
	app.Get("/bg-images", mediaHandler.ListBackgroundImages)
	app.Get("/bg-images/:filename", mediaHandler.FetchBackgroundImage)
	app.Get("/download/audio/:filename", mediaHandler.DownloadAudio)

	// Job status
	app.Get("/render/:jobId", renderHandler.Status)

	// Uploads
	app.Post("/upload/audio", rateLimiter.UploadLimit(cfg.RateLimit.UploadPerHour), uploadHandler.Audio)
	app.Post("/video/upload", rateLimiter.UploadLimit(cfg.RateLimit.UploadPerHour), uploadHandler.Video)

	// Voiceover
	app.Post("/voiceover/generate", rateLimiter.VoiceoverLimit(cfg.RateLimit.VoiceoverPerMin), voiceoverHandler.Generate)

	// WebSocket status push
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/jobs/:jobId", websocket.New(func(c *websocket.Conn) {
		jobID := c.Params("jobId")
		hub.HandleConnection(c, jobID)
	}))

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// Start server
	addr := ":" + cfg.Server.Port
	log.Printf("Server starting on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return response.Error(c, code, response.CodeServiceError, message, nil)
}
