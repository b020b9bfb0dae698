// Package main runs the Community Pulse HTTP server with WebSocket notifications and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Captain-Rohith/CommunityPulse/config"
	"github.com/Captain-Rohith/CommunityPulse/internal/admin"
	"github.com/Captain-Rohith/CommunityPulse/internal/events"
	"github.com/Captain-Rohith/CommunityPulse/internal/geo"
	"github.com/Captain-Rohith/CommunityPulse/internal/identity"
	"github.com/Captain-Rohith/CommunityPulse/internal/issues"
	"github.com/Captain-Rohith/CommunityPulse/internal/middleware"
	"github.com/Captain-Rohith/CommunityPulse/internal/models"
	"github.com/Captain-Rohith/CommunityPulse/internal/notifications"
	"github.com/Captain-Rohith/CommunityPulse/internal/registrations"
	"github.com/Captain-Rohith/CommunityPulse/pkg/database"
	"github.com/Captain-Rohith/CommunityPulse/pkg/queue"
	"github.com/Captain-Rohith/CommunityPulse/pkg/redis"
	"github.com/Captain-Rohith/CommunityPulse/pkg/response"
	"github.com/Captain-Rohith/CommunityPulse/pkg/storage"
	"github.com/Captain-Rohith/CommunityPulse/pkg/tz"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	loc, err := tz.Load(cfg.Time.Zone)
	if err != nil {
		logger.Fatal("time zone", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(cfg.Database.DSN(), logger); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	userRepo := identity.NewRepository(pool)
	if err := userRepo.SeedRoles(ctx, models.RoleAdmin, cfg.Admin.Emails); err != nil {
		logger.Fatal("seed admin roles", zap.Error(err))
	}

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb, err = redis.NewClient(ctx, cfg.Redis, logger)
		if err != nil {
			logger.Warn("redis disabled", zap.Error(err))
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}

	images, err := newImageStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("image storage", zap.Error(err))
	}

	geocoder, err := geo.New(cfg.Geocoding.GoogleMapsAPIKey, logger)
	if err != nil {
		logger.Warn("geocoding disabled", zap.Error(err))
		geocoder = geo.Nop{}
	}

	// Identity
	verifier, err := newVerifier(ctx, cfg.Clerk)
	if err != nil {
		logger.Fatal("token verifier", zap.Error(err))
	}
	clerk := identity.NewClerkClient(cfg.Clerk.APIURL, cfg.Clerk.SecretKey)
	resolver := identity.NewResolver(verifier, userRepo, clerk, logger)
	webhook, err := identity.NewWebhookHandler(resolver, cfg.Clerk.WebhookSecret, logger)
	if err != nil {
		logger.Fatal("webhook", zap.Error(err))
	}
	identityHandler := identity.NewHandler()

	// Notifications
	var hub *notifications.Hub
	if rdb != nil {
		pubsub := notifications.NewRedisPubSub(rdb.Client, logger)
		hub = notifications.NewHub(logger, pubsub, pubsub)
	} else {
		hub = notifications.NewHub(logger, nil, nil)
	}
	notificationSvc := notifications.NewService(notifications.NewRepository(pool), hub, logger)
	notificationHandler := notifications.NewHandler(notificationSvc)

	// Events
	var views events.ViewTracker = events.NewPGViews(pool, events.ViewWindow)
	if rdb != nil {
		views = events.NewRedisViews(rdb.Client, events.ViewWindow)
	}
	eventSvc := events.NewService(events.Deps{
		Store:    events.NewRepository(pool),
		Users:    userRepo,
		Images:   images,
		Geocoder: geocoder,
		Views:    views,
		Notifier: notificationSvc,
	}, loc, logger)
	maxImageBytes := int64(cfg.Storage.MaxImageMB) << 20
	eventSvc.SetMaxImageBytes(maxImageBytes)
	eventHandler := events.NewHandler(eventSvc, loc)

	// Registrations
	registrationSvc := registrations.NewService(registrations.NewRepository(pool), notificationSvc, loc, logger)
	registrationHandler := registrations.NewHandler(registrationSvc)

	// Issues
	issueSvc := issues.NewService(issues.NewRepository(pool), userRepo, images, geocoder, logger)
	issueSvc.SetMaxImageBytes(maxImageBytes)
	issueHandler := issues.NewHandler(issueSvc)

	if rdb != nil {
		jobQueue := queue.NewQueue(rdb.Client, logger)
		eventSvc.SetCleanupQueue(jobQueue)
		issueSvc.SetCleanupQueue(jobQueue)
	}

	adminHandler := admin.NewHandler(userRepo, eventSvc, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Metrics())

	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if !cfg.UseS3() {
		router.Static(cfg.Storage.URLPrefix, cfg.Storage.UploadDir)
	}

	// Webhooks (svix signature, no bearer token)
	router.POST("/clerk-webhook", webhook.Handle)

	// WebSocket (token in query)
	router.GET("/ws", notifications.ServeWs(hub, resolver, middleware.OriginAllowed(cfg.Server.CORSAllowedOrigins), logger))

	authed := middleware.Authenticate(resolver)
	optional := middleware.OptionalAuthenticate(resolver)

	// Public reads (caller optional)
	router.GET("/events", eventHandler.List)
	router.GET("/events/nearby", eventHandler.Nearby)
	router.GET("/events/:id", eventHandler.Get)
	router.GET("/events/:id/details", optional, eventHandler.Details)
	router.GET("/search", eventHandler.Search)
	router.GET("/issues", optional, issueHandler.List)
	router.GET("/issues/:id", optional, issueHandler.Get)

	api := router.Group("")
	api.Use(authed)
	{
		api.GET("/users/me", identityHandler.Me)

		// Events
		api.POST("/events", eventHandler.Create)
		api.PUT("/events/:id", eventHandler.Update)
		api.DELETE("/events/:id", eventHandler.Delete)
		api.POST("/events/:id/like", eventHandler.Like)
		api.DELETE("/events/:id/like", eventHandler.Unlike)
		api.POST("/events/:id/report", eventHandler.Report)
		api.GET("/events/:id/dashboard", eventHandler.Dashboard)
		api.GET("/my-events", eventHandler.Mine)
		api.GET("/user/events/created", eventHandler.Mine)
		api.GET("/user/events/organizing", eventHandler.Mine)

		// Registrations
		api.POST("/events/:id/interest", registrationHandler.Interest)
		api.POST("/events/:id/register", registrationHandler.Register)
		api.POST("/events/:id/confirm-registration", registrationHandler.Confirm)
		api.POST("/events/:id/cancel-registration", registrationHandler.Cancel)
		api.GET("/events/:id/registration-status", registrationHandler.Status)
		api.GET("/my-registrations", registrationHandler.Mine)
		api.GET("/user/events/registered", registrationHandler.UserEvents(registrations.ListingRegistered))
		api.GET("/user/events/interested", registrationHandler.UserEvents(registrations.ListingInterested))
		api.GET("/user/events/signedup", registrationHandler.UserEvents(registrations.ListingSignedUp))

		// Issues
		api.POST("/issues", issueHandler.Create)
		api.POST("/issues/:id/vote", issueHandler.Vote)
		api.DELETE("/issues/:id/vote", issueHandler.Unvote)

		// Notifications
		api.GET("/notifications", notificationHandler.List)
		api.PUT("/notifications/:id/read", notificationHandler.MarkRead)
	}

	adm := router.Group("/admin")
	adm.Use(authed, middleware.RequireAdmin())
	{
		adm.GET("/events/pending", adminHandler.PendingEvents)
		adm.PUT("/events/:id/approve", adminHandler.ApproveEvent)
		adm.PUT("/events/:id/reject", adminHandler.RejectEvent)
		adm.GET("/events/user/:id", adminHandler.UserEvents)
		adm.GET("/users", adminHandler.ListUsers)
		adm.PUT("/users/:id", adminHandler.UpdateUser)
		adm.PUT("/users/:id/verify-organizer", adminHandler.VerifyOrganizer)

		adm.GET("/issues/pending", issueHandler.Pending)
		adm.PUT("/issues/:id/approve", issueHandler.Approve)
		adm.PUT("/issues/:id/resolve", issueHandler.Resolve)
		adm.DELETE("/issues/:id/reject", issueHandler.Reject)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newVerifier(ctx context.Context, cfg config.ClerkConfig) (*identity.Verifier, error) {
	leeway := time.Duration(cfg.LeewaySeconds) * time.Second
	if cfg.PEMPublicKey != "" {
		return identity.NewPEMVerifier(cfg.PEMPublicKey, cfg.Issuer, leeway)
	}
	return identity.NewJWKSVerifier(ctx, cfg.JWKSURL, cfg.Issuer, leeway)
}

func newImageStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.ImageStore, error) {
	if cfg.UseS3() {
		return storage.NewS3(ctx, storage.S3Config{
			Region:          cfg.AWS.Region,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			Bucket:          cfg.AWS.ImagesBucket,
			PublicBaseURL:   cfg.AWS.PublicBaseURL,
		}, logger)
	}
	return storage.NewLocal(cfg.Storage.UploadDir, cfg.Storage.URLPrefix, logger)
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
