package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"reqgather/internal/caching"
	"reqgather/internal/config"
	"reqgather/internal/handlers"
	"reqgather/internal/jobs/background"
	"reqgather/internal/middleware"
	"reqgather/internal/repositories"
	"reqgather/internal/services"
	"reqgather/pkg/database"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	cacheSvc := caching.NewRedisCacheService(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err := cacheSvc.Ping(ctx); err != nil {
		log.Printf("Warning: redis unavailable at startup: %v", err)
	}

	storageSvc, err := services.NewMinioStorageService(cfg.Minio.Endpoint, cfg.Minio.AccessKey,
		cfg.Minio.SecretKey, cfg.Minio.UseSSL, cfg.Minio.DocumentBucket)
	if err != nil {
		log.Fatalf("Failed to initialize object storage: %v", err)
	}
	if err := storageSvc.EnsureBucketExists(ctx); err != nil {
		log.Printf("Warning: could not ensure document bucket: %v", err)
	}

	// Repositories
	userRepo := repositories.NewUserRepo(pool)
	sessionRepo := repositories.NewSessionRepo(pool)
	projectRepo := repositories.NewProjectRepo(pool)
	activityRepo := repositories.NewActivityRepo(pool)
	documentRepo := repositories.NewDocumentRepo(pool)

	// Services
	authService := services.NewAuthService(userRepo, sessionRepo, cacheSvc,
		cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	activityService := services.NewActivityService(activityRepo)
	emailService := services.NewEmailService(cfg.SMTP, cfg.FrontendURL, cfg.JWTSecret)
	projectService := services.NewProjectService(projectRepo, userRepo, documentRepo, storageSvc)

	// Middleware
	authenticator := middleware.NewAuthenticator(authService, sessionRepo, userRepo)
	projectAccess := middleware.NewProjectAccess(projectService)
	loginRateLimit := middleware.LoginRateLimit(cacheSvc, cfg.Limits.LoginAttemptsPerWindow, cfg.Limits.RateLimitWindow)

	// Handlers
	authHandlers := handlers.NewAuthHandlers(authService, userRepo, activityService, emailService)
	userHandlers := handlers.NewUserHandlers(userRepo, authService, activityService, projectService)
	projectHandlers := handlers.NewProjectHandlers(projectService, activityService)
	documentHandlers := handlers.NewDocumentHandlers(documentRepo, storageSvc, activityService, cfg.Limits.MaxUploadBytes)
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc, userRepo, projectRepo, sessionRepo)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handlers.HTTPErrorHandler

	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{
		AllowOrigins: []string{cfg.FrontendURL},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization},
	}))
	e.Use(echoMiddleware.RemoveTrailingSlash())

	// Health probes
	e.GET("/health", healthHandlers.Health)
	e.GET("/health/detailed", healthHandlers.Detailed)
	e.GET("/health/ready", healthHandlers.Ready)
	e.GET("/health/live", healthHandlers.Live)

	api := e.Group("/api")

	// Public auth routes
	auth := api.Group("/auth")
	auth.POST("/register", authHandlers.Register)
	auth.POST("/login", authHandlers.Login, loginRateLimit)
	auth.POST("/refresh", authHandlers.Refresh)
	auth.POST("/verify-email", authHandlers.VerifyEmail)

	protected := api.Group("", authenticator.Middleware())
	protected.POST("/auth/logout", authHandlers.Logout)

	// Current user
	users := protected.Group("/users")
	users.GET("/profile", userHandlers.GetProfile)
	users.PUT("/profile", userHandlers.UpdateProfile)
	users.GET("/activities", userHandlers.ListActivities)
	users.GET("/projects", userHandlers.ListProjects)
	users.PUT("/change-password", userHandlers.ChangePassword)
	users.DELETE("/account", userHandlers.DeleteAccount)

	// Projects
	projects := protected.Group("/projects")
	projects.GET("", projectHandlers.List)
	projects.POST("", projectHandlers.Create)
	projects.GET("/:id", projectHandlers.Get, projectAccess.Require())
	projects.PUT("/:id", projectHandlers.Update, projectAccess.Require())
	projects.DELETE("/:id", projectHandlers.Delete, projectAccess.RequireOwner())
	projects.POST("/:id/members", projectHandlers.AddMember, projectAccess.Require())
	projects.DELETE("/:id/members/:memberId", projectHandlers.RemoveMember, projectAccess.RequireOwner())

	// Project documents
	projects.GET("/:id/documents", documentHandlers.List, projectAccess.Require())
	projects.POST("/:id/documents", documentHandlers.Upload, projectAccess.Require())
	projects.GET("/:id/documents/:documentId/download", documentHandlers.Download, projectAccess.Require())
	projects.DELETE("/:id/documents/:documentId", documentHandlers.Delete, projectAccess.Require())

	sweeper, err := background.NewSessionSweeper(sessionRepo)
	if err != nil {
		log.Fatalf("Failed to create session sweeper: %v", err)
	}
	sweeper.Start()
	defer func() {
		if err := sweeper.Stop(); err != nil {
			log.Printf("Failed to stop session sweeper: %v", err)
		}
	}()

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		log.Printf("reqgather %s listening on %s", version, addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			e.Logger.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		e.Logger.Fatal(err)
	}
}
