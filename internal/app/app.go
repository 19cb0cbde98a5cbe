package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clientdesk_backend/database"
	"clientdesk_backend/internal/auth"
	"clientdesk_backend/internal/billing"
	"clientdesk_backend/internal/calendar"
	"clientdesk_backend/internal/challenge"
	"clientdesk_backend/internal/config"
	"clientdesk_backend/internal/email"
	"clientdesk_backend/internal/handlers"
	"clientdesk_backend/internal/imageprocessor"
	"clientdesk_backend/internal/logger"
	"clientdesk_backend/internal/mediahost"
	"clientdesk_backend/internal/middleware"
	"clientdesk_backend/internal/models"
	"clientdesk_backend/internal/repositories"
	"clientdesk_backend/internal/routes"
	"clientdesk_backend/internal/services"
	"clientdesk_backend/internal/storage"
	"clientdesk_backend/internal/validator"
	"clientdesk_backend/internal/workers"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig

	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	auth.Init(cfg.JWT.Secret, time.Duration(cfg.JWT.TTL)*time.Minute)

	gormDB, err := database.ConnectGorm()
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal("Failed to get *sql.DB from GORM", "error", err)
	}
	if err = sqlDB.Ping(); err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	logger.Info("Database connected")

	if err := database.AutoMigrate(gormDB); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	if err := seedFirstAdmin(gormDB, cfg); err != nil {
		logger.Fatal("Failed to seed first admin user", "error", err)
	}

	ginRouter := SetupRouter(cfg, gormDB)

	// Фоновые воркеры живут до остановки процесса
	workerCtx := context.Background()
	workers.NewChallengeWorker(gormDB, repositories.NewChallengeRepository()).Start(workerCtx)
	workers.NewSubscriptionWorker(gormDB).Start(workerCtx)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Server starting", "address", address)
	if err := ginRouter.Run(address); err != nil {
		logger.Fatal("Server startup error", "error", err)
	}
}

func SetupRouter(cfg *config.Config, gormDB *gorm.DB) *gin.Engine {
	storageInstance, err := storage.New(storage.Config{
		Type:      cfg.Storage.Type,
		BasePath:  cfg.Storage.BasePath,
		BaseURL:   cfg.Storage.BaseURL,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Endpoint:  cfg.Storage.Endpoint,
	})
	if err != nil {
		logger.Fatal("Failed to initialize storage", "error", err)
	}
	logger.Info("Storage initialized", "type", cfg.Storage.Type)

	serviceContainer := initializeServices(cfg, storageInstance)
	appHandlers := initializeHandlers(cfg, serviceContainer)
	appMiddlewares := initializeMiddlewares(cfg, serviceContainer)

	ginRouter := initializeGinRouter(gormDB)
	routes.RegisterRoutes(ginRouter, appHandlers, appMiddlewares)

	return ginRouter
}

func initializeServices(cfg *config.Config, storageInstance storage.Storage) *services.ServiceContainer {
	emailProvider := initializeEmailProvider(cfg)

	userRepo := repositories.NewUserRepository()
	challengeRepo := repositories.NewChallengeRepository()
	documentRepo := repositories.NewDocumentRepository()
	videoRepo := repositories.NewVideoRepository()
	meetingRepo := repositories.NewMeetingRepository()
	notificationRepo := repositories.NewNotificationRepository()
	emailLogRepo := repositories.NewEmailLogRepository()

	engine := challenge.NewEngine(challengeRepo, time.Duration(cfg.Verification.CodeTTL)*time.Minute)
	images := imageprocessor.NewProcessor(85)

	billingClient := billing.NewClient(cfg.Billing.APIKey, cfg.Billing.BaseURL)
	calendarClient := calendar.NewClient(cfg.Calendar.BaseURL, cfg.Calendar.APIKey, cfg.Calendar.TimeZone)
	mediaHostClient := mediahost.NewClient(cfg.MediaHost.BaseURL, cfg.MediaHost.AccessToken)

	authService := services.NewAuthService(userRepo, engine, emailProvider)
	userService := services.NewUserService(userRepo, engine, emailProvider, storageInstance, images)
	documentService := services.NewDocumentService(documentRepo, storageInstance, cfg.Upload.MaxDocumentSize, cfg.Upload.AllowedDocTypes)
	videoService := services.NewVideoService(videoRepo, mediaHostClient)
	meetingService := services.NewMeetingService(meetingRepo, userRepo, notificationRepo, calendarClient)
	subscriptionService := services.NewSubscriptionService(userRepo, notificationRepo, billingClient, cfg.Billing.PriceIDs, cfg.Billing.FrontendURL)
	notificationService := services.NewNotificationService(notificationRepo)
	adminService := services.NewAdminService(
		userRepo,
		documentRepo,
		videoRepo,
		meetingRepo,
		notificationRepo,
		challengeRepo,
		emailLogRepo,
		emailProvider,
		storageInstance,
		mediaHostClient,
	)

	return &services.ServiceContainer{
		AuthService:         authService,
		UserService:         userService,
		DocumentService:     documentService,
		VideoService:        videoService,
		MeetingService:      meetingService,
		SubscriptionService: subscriptionService,
		NotificationService: notificationService,
		AdminService:        adminService,
		EmailService:        emailProvider,
	}
}

func initializeEmailProvider(cfg *config.Config) email.Provider {
	if cfg.Email.SMTPHost == "" {
		logger.Warn("SMTP is not configured, outgoing email is logged instead of delivered")
		return &LogEmailProvider{}
	}

	renderer, err := email.NewTemplateManager()
	if err != nil {
		logger.Fatal("Failed to initialize email templates", "error", err)
	}

	provider, err := email.NewGomailProvider(&email.SMTPConfig{
		Host:        cfg.Email.SMTPHost,
		Port:        cfg.Email.SMTPPort,
		Username:    cfg.Email.SMTPUsername,
		Password:    cfg.Email.SMTPPassword,
		FromEmail:   cfg.Email.FromEmail,
		FromName:    cfg.Email.FromName,
		UseTLS:      cfg.Email.UseTLS,
		CodeTTLMins: cfg.Verification.CodeTTL,
	}, renderer)
	if err != nil {
		logger.Fatal("Failed to initialize SMTP provider", "error", err)
	}
	return provider
}

func initializeHandlers(cfg *config.Config, container *services.ServiceContainer) *handlers.AppHandlers {
	customValidator := validator.New()
	baseHandler := handlers.NewBaseHandler(customValidator)

	return &handlers.AppHandlers{
		AuthHandler:         handlers.NewAuthHandler(baseHandler, container.AuthService),
		UserHandler:         handlers.NewUserHandler(baseHandler, container.UserService),
		DocumentHandler:     handlers.NewDocumentHandler(baseHandler, container.DocumentService),
		VideoHandler:        handlers.NewVideoHandler(baseHandler, container.VideoService),
		MeetingHandler:      handlers.NewMeetingHandler(baseHandler, container.MeetingService),
		SubscriptionHandler: handlers.NewSubscriptionHandler(baseHandler, container.SubscriptionService, cfg.Billing.WebhookSecret),
		NotificationHandler: handlers.NewNotificationHandler(baseHandler, container.NotificationService),
		AdminHandler:        handlers.NewAdminHandler(baseHandler, container.AdminService),
	}
}

func initializeMiddlewares(cfg *config.Config, container *services.ServiceContainer) *handlers.Middlewares {
	userRepo := repositories.NewUserRepository()
	engine := challenge.NewEngine(
		repositories.NewChallengeRepository(),
		time.Duration(cfg.Verification.CodeTTL)*time.Minute,
	)

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	} else {
		logger.Warn("Redis is not configured, rate limiting is disabled")
	}

	return &handlers.Middlewares{
		Auth:      middleware.AuthMiddleware(userRepo),
		Admin:     middleware.AdminMiddleware(),
		TwoFactor: middleware.Require2FA(engine),
		RateLimit: middleware.RateLimitMiddleware(
			redisClient,
			cfg.RateLimit.LoginLimit,
			time.Duration(cfg.RateLimit.WindowSeconds)*time.Second,
		),
	}
}

func initializeGinRouter(db *gorm.DB) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.DBMiddleware(db))
	return router
}

func seedFirstAdmin(db *gorm.DB, cfg *config.Config) error {
	adminEmail := cfg.FirstAdminEmail
	adminPassword := cfg.FirstAdminPassword

	if adminEmail == "" || adminPassword == "" {
		logger.Warn("FIRST_ADMIN_EMAIL or FIRST_ADMIN_PASSWORD is not set. Skipping admin seeding.")
		return nil
	}

	var adminUser models.User
	result := db.Where("email = ?", adminEmail).First(&adminUser)
	if result.Error == nil {
		logger.Info("Admin user already exists. Skipping creation.", "email", adminEmail)
		return nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check for admin user: %w", result.Error)
	}

	logger.Warn("No admin user found with specified email. Creating first admin...", "email", adminEmail)

	hashedPassword, err := auth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	newAdmin := &models.User{
		FirstName:    "Platform",
		LastName:     "Admin",
		Email:        adminEmail,
		PasswordHash: hashedPassword,
		Role:         models.UserRoleAdmin,
		Status:       models.UserStatusActive,
	}
	if err := db.Create(newAdmin).Error; err != nil {
		return fmt.Errorf("failed to create admin user in database: %w", err)
	}

	logger.Info("Successfully created first admin user", "email", adminEmail)
	return nil
}
