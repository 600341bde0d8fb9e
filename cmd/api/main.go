package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/sweeps-api/internal/config"
	"github.com/yourusername/sweeps-api/internal/handler"
	"github.com/yourusername/sweeps-api/internal/middleware"
	pgRepo "github.com/yourusername/sweeps-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/sweeps-api/internal/repository/redis"
	"github.com/yourusername/sweeps-api/internal/service"
	"github.com/yourusername/sweeps-api/internal/service/lifecycle"
	"github.com/yourusername/sweeps-api/pkg/auth"
	"github.com/yourusername/sweeps-api/pkg/database"
)

func main() {
	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Loading configuration from %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	// Connect to PostgreSQL
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	// Apply migrations
	if err := database.MigrateDB(db); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	// Connect to Redis using the unified configuration
	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	// Repositories
	userRepo := pgRepo.NewUserRepo(db)
	contestRepo := pgRepo.NewContestRepo(db)
	entryRepo := pgRepo.NewEntryRepo(db)
	winnerRepo := pgRepo.NewWinnerRepo(db)
	auditRepo := pgRepo.NewAuditRepo(db)
	ruleRepo := pgRepo.NewOfficialRuleRepo(db)
	smsRepo := pgRepo.NewSmsTemplateRepo(db)
	notifRepo := pgRepo.NewNotificationLogRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Printf("Failed to initialize CacheRepo: %v", err)
		os.Exit(1)
	}

	// JWT verification
	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpirationHrs)
	if err != nil {
		log.Printf("Failed to initialize JWTService: %v", err)
		os.Exit(1)
	}

	// Decision emails: real sender only when configured, no-op otherwise.
	var emailService service.EmailService = &service.NoopEmailService{}
	if cfg.Email.Enabled {
		resendService, err := service.NewResendEmailService(cfg.Email.ResendAPIKey, cfg.Email.From)
		if err != nil {
			log.Printf("Failed to initialize email service: %v", err)
			os.Exit(1)
		}
		emailService = resendService
		log.Println("Email notifications enabled")
	}

	// Media cleanup: external store only when configured.
	var mediaStore service.MediaStore = &service.NoopMediaStore{}
	if cfg.Media.BaseURL != "" {
		httpStore, err := service.NewHTTPMediaStore(cfg.Media.BaseURL, cfg.Media.APIKey)
		if err != nil {
			log.Printf("Failed to initialize media store: %v", err)
			os.Exit(1)
		}
		mediaStore = httpStore
		log.Printf("Media cleanup enabled against %s", cfg.Media.BaseURL)
	}

	// Services
	contestService := service.NewContestService(contestRepo, entryRepo, winnerRepo, auditRepo, db)
	approvalService := service.NewApprovalService(contestRepo, auditRepo, userRepo, emailService, db)
	winnerService := service.NewWinnerService(contestRepo, entryRepo, winnerRepo, auditRepo, db)
	entryService := service.NewEntryService(contestRepo, entryRepo, winnerRepo)
	contentService := service.NewContentService(contestRepo, ruleRepo, smsRepo, notifRepo)
	deletionService := service.NewDeletionService(
		contestRepo, entryRepo, winnerRepo, auditRepo,
		ruleRepo, smsRepo, notifRepo,
		cacheRepo, mediaStore, db,
	)

	// Root context cancels background goroutines on shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Periodic lifecycle sweep
	sweepConfig := lifecycle.DefaultConfig()
	if cfg.Sweep.IntervalMinutes > 0 {
		interval := time.Duration(cfg.Sweep.IntervalMinutes) * time.Minute
		sweepConfig.SweepInterval = interval
		if interval > time.Minute {
			sweepConfig.LeaderLockTTL = interval - time.Minute
		} else {
			sweepConfig.LeaderLockTTL = interval
		}
	}
	sweeper := lifecycle.NewSweeper(sweepConfig, &lifecycle.Dependencies{
		ContestRepo: contestRepo,
		WinnerRepo:  winnerRepo,
		AuditRepo:   auditRepo,
		CacheRepo:   cacheRepo,
		DB:          db,
	})
	go sweeper.Run(ctx)

	// Handlers
	contestHandler := handler.NewContestHandler(contestService, deletionService, contentService)
	approvalHandler := handler.NewApprovalHandler(approvalService)
	winnerHandler := handler.NewWinnerHandler(winnerService, entryService)
	entryHandler := handler.NewEntryHandler(entryService)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	isProduction := gin.Mode() == gin.ReleaseMode

	router := gin.Default()

	// Trusted proxies for correct c.ClientIP() behavior: in production trust
	// nothing, in development trust localhost.
	if isProduction {
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	// CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// API routes
	api := router.Group("/api")
	api.Use(rateLimiter.Limit(middleware.DefaultAPIRateLimitConfig()))
	{
		contests := api.Group("/contests")
		{
			// Public listing of published contests.
			contests.GET("", contestHandler.ListContests)

			// Authenticated creation.
			authedCreate := contests.Group("")
			authedCreate.Use(authMiddleware.RequireAuth())
			{
				authedCreate.POST("", contestHandler.CreateContest)
			}

			contestWithID := contests.Group("/:id")
			contestWithID.Use(middleware.ExtractUintParam("id", "contestID"))
			{
				contestWithID.GET("", contestHandler.GetContest)
				contestWithID.GET("/winners", winnerHandler.ListWinners)
				contestWithID.GET("/rules", contestHandler.ListOfficialRules)

				// Public participation. The strict entry limit sits on top of
				// the general one; OptionalAuth lets operator tokens through
				// for phone-in entries.
				contestWithID.POST("/entries",
					rateLimiter.LimitByIP(middleware.EntryRateLimitConfig()),
					authMiddleware.OptionalAuth(),
					entryHandler.AddEntry,
				)

				// Creator routes (the service layer enforces ownership).
				authed := contestWithID.Group("")
				authed.Use(authMiddleware.RequireAuth())
				{
					authed.PATCH("", contestHandler.UpdateContest)
					authed.DELETE("", contestHandler.DeleteContest)
					authed.POST("/submit", approvalHandler.Submit)
					authed.POST("/withdraw", approvalHandler.Withdraw)
					authed.GET("/protection", contestHandler.GetProtection)
					authed.POST("/rules", contestHandler.AddOfficialRule)
					authed.POST("/sms-templates", contestHandler.AddSmsTemplate)
					authed.GET("/sms-templates", contestHandler.ListSmsTemplates)
				}

				// Admin routes.
				adminContest := contestWithID.Group("")
				adminContest.Use(authMiddleware.RequireAuth(), authMiddleware.AdminOnly())
				{
					adminContest.POST("/approve", approvalHandler.Approve)
					adminContest.POST("/reject", approvalHandler.Reject)
					adminContest.POST("/cancel", contestHandler.CancelContest)
					adminContest.POST("/force-status", contestHandler.ForceStatus)
					adminContest.GET("/audit", contestHandler.GetAuditHistory)
					adminContest.GET("/entries", entryHandler.ListEntries)
					adminContest.POST("/notifications", contestHandler.LogNotification)
					adminContest.GET("/notifications", contestHandler.ListNotifications)

					adminContest.POST("/winners/select", winnerHandler.SelectWinners)
					adminContest.GET("/winners/export", winnerHandler.ExportWinners)

					winnerWithPosition := adminContest.Group("/winners/:position")
					winnerWithPosition.Use(middleware.ExtractUintParam("position", "position"))
					{
						winnerWithPosition.POST("/reselect", winnerHandler.Reselect)
						winnerWithPosition.POST("/notify", winnerHandler.MarkNotified)
						winnerWithPosition.POST("/claim", winnerHandler.MarkClaimed)
					}
				}
			}
		}

		// Admin bulk operations.
		admin := api.Group("/admin")
		admin.Use(authMiddleware.RequireAuth(), authMiddleware.AdminOnly())
		{
			admin.POST("/contests/bulk-decide", approvalHandler.BulkDecide)
		}
	}

	// HTTP server with timeouts against slow clients.
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	log.Printf("Server started on port %s", cfg.Server.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Stop the sweeper and any other background goroutines.
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	if err := redisClient.Close(); err != nil {
		log.Printf("Error closing Redis client: %v", err)
	}

	log.Println("Server exited properly")
}
