package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vaibhavisno-one/Chat-App/internal/config"
	"github.com/vaibhavisno-one/Chat-App/internal/database"
	"github.com/vaibhavisno-one/Chat-App/internal/handler"
	"github.com/vaibhavisno-one/Chat-App/internal/middleware"
	"github.com/vaibhavisno-one/Chat-App/internal/repository"
	"github.com/vaibhavisno-one/Chat-App/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	cfg := config.Load()

	// Database
	db, err := database.NewPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.RunMigrations(context.Background(), db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Migrations applied successfully")

	// Repositories
	userRepo := repository.NewUserRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	sessionRepo := repository.NewSessionRepository(db)

	// Services
	hub := service.NewHub()
	uploader := service.NewHTTPUploader(cfg.UploadURL, cfg.UploadAPIKey)
	authSvc := service.NewAuthService(userRepo, sessionRepo, uploader, cfg.JWTSecret)
	teamSvc := service.NewTeamService(teamRepo, userRepo)
	gate := service.NewGate(userRepo)
	messageSvc := service.NewMessageService(messageRepo, userRepo, teamRepo, gate, hub, uploader)

	// Fiber app
	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
		BodyLimit:    5 * 1024 * 1024, // 5MB, image payloads ride in the body
	})

	app.Use(recover.New())
	app.Use(middleware.Logger())
	app.Use(middleware.CORS(cfg.AllowOrigins))

	// Health
	healthH := handler.NewHealthHandler(db, hub)
	app.Get("/health", healthH.Health)
	app.Get("/ready", healthH.Ready)

	// API v1
	v1 := app.Group("/api/v1")

	// Auth (public)
	authH := handler.NewAuthHandler(authSvc)
	auth := v1.Group("/auth")
	auth.Post("/register", middleware.RateLimit(5, time.Minute), authH.Register)
	auth.Post("/login", middleware.RateLimit(10, time.Minute), authH.Login)
	auth.Post("/refresh", middleware.RateLimit(20, time.Minute), authH.Refresh)
	auth.Post("/logout", authH.Logout)

	// JWT-protected routes (catch-all — must be LAST)
	protected := v1.Group("", middleware.Auth(cfg.JWTSecret))

	protected.Put("/auth/profile", authH.UpdateProfile)

	// Messages
	messageH := handler.NewMessageHandler(messageSvc)
	messages := protected.Group("/messages")
	messages.Get("/users", messageH.SidebarUsers)
	messages.Post("/send/:chatId", messageH.Send)
	messages.Get("/direct/:userId", messageH.DirectHistory)
	messages.Get("/team/:teamId", messageH.TeamHistory)

	// Teams
	teamH := handler.NewTeamHandler(teamSvc)
	teams := protected.Group("/teams")
	teams.Post("/", teamH.Create)
	teams.Post("/join", teamH.Join)
	teams.Get("/:teamId/members", teamH.Members)

	// WebSocket
	wsH := handler.NewWSHandler(hub, userRepo, authSvc)
	app.Get("/ws", wsH.Upgrade, wsH.Handler())

	// Start hub
	go hub.Run()

	// Sweep dead refresh tokens
	cleanupDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := sessionRepo.CleanupExpired(context.Background()); err != nil {
					log.Printf("[Session] cleanup failed: %v", err)
				}
			case <-cleanupDone:
				return
			}
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	log.Printf("Chat backend running on :%s (%s)", cfg.Port, cfg.Env)

	<-quit
	log.Println("Shutting down...")
	_ = app.ShutdownWithTimeout(5 * time.Second)
	close(cleanupDone)
	hub.Shutdown()
	log.Println("Server stopped")
}
