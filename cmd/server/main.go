// Package main runs the event check-in HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eventflow/checkin-backend/config"
	"github.com/eventflow/checkin-backend/internal/admin"
	"github.com/eventflow/checkin-backend/internal/auth"
	"github.com/eventflow/checkin-backend/internal/chat"
	"github.com/eventflow/checkin-backend/internal/checkin"
	"github.com/eventflow/checkin-backend/internal/faceid"
	"github.com/eventflow/checkin-backend/internal/greeting"
	"github.com/eventflow/checkin-backend/internal/llm"
	"github.com/eventflow/checkin-backend/internal/middleware"
	"github.com/eventflow/checkin-backend/internal/notify"
	"github.com/eventflow/checkin-backend/internal/participants"
	"github.com/eventflow/checkin-backend/pkg/database"
	"github.com/eventflow/checkin-backend/pkg/redis"
	"github.com/eventflow/checkin-backend/pkg/response"
	"github.com/eventflow/checkin-backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	response.Verbose = cfg.Server.Env == "development"

	ctx := context.Background()
	awsCfg, err := database.LoadAWSConfig(ctx, database.AWSOptions{
		Region:          cfg.AWS.Region,
		Profile:         cfg.AWS.Profile,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
	}, logger)
	if err != nil {
		logger.Fatal("aws config", zap.Error(err))
	}

	db := database.NewDynamoClient(awsCfg, cfg.AWS.EndpointURL)
	if err := database.EnsureTables(ctx, db, cfg.Tables.Participants, cfg.Tables.Checkins, logger); err != nil {
		logger.Fatal("ensure tables", zap.Error(err))
	}

	photos := storage.NewS3(awsCfg, cfg.AWS.EndpointURL, cfg.Face.Bucket, logger)
	if err := photos.EnsureBucket(ctx); err != nil {
		logger.Warn("photo bucket not ready", zap.Error(err))
	}

	faces := faceid.NewService(awsCfg, cfg.AWS.EndpointURL, photos, cfg.Face.Collection, cfg.Face.MatchThreshold, logger)
	invoker := llm.NewBedrock(awsCfg, cfg.AWS.EndpointURL, cfg.LLM.ModelID, cfg.LLM.MaxTokens, logger)
	greeter := greeting.NewService(invoker, logger)

	loc := time.Local
	if cfg.Event.Timezone != "" {
		loc, err = time.LoadLocation(cfg.Event.Timezone)
		if err != nil {
			logger.Warn("invalid event timezone, using server local", zap.String("timezone", cfg.Event.Timezone), zap.Error(err))
			loc = time.Local
		}
	}
	notifier := notify.NewWhatsApp(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.WhatsAppFrom, cfg.Event.Name, loc, logger)

	sessionTTL := time.Duration(cfg.Session.TTLMinutes) * time.Minute
	var sessions chat.SessionStore
	switch cfg.Session.Backend {
	case "redis":
		rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			logger.Fatal("redis", zap.Error(err))
		}
		defer rdb.Close()
		sessions = chat.NewRedisStore(rdb.Client, sessionTTL)
	default:
		store := chat.NewMemoryStore(sessionTTL)
		defer store.Close()
		sessions = store
	}
	agent := chat.NewAgent(sessions, invoker, logger)

	participantRepo := participants.NewRepository(db, cfg.Tables.Participants)
	checkinRepo := checkin.NewRepository(db, cfg.Tables.Checkins)
	checkinSvc := checkin.NewService(participantRepo, checkinRepo, faces, greeter, notifier, loc, logger)

	participantHandler := participants.NewHandler(participantRepo, faces, cfg.Server.MaxUploadMB, logger)
	checkinHandler := checkin.NewHandler(checkinSvc, cfg.Server.MaxUploadMB, logger)
	chatHandler := chat.NewHandler(agent, participantRepo, faces, cfg.Server.MaxUploadMB, logger)
	adminHandler := admin.NewHandler(participantRepo, checkinRepo, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.FrontendURL))
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "OK",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	api := router.Group("/api")
	{
		api.POST("/participants/register", participantHandler.Register)
		api.GET("/participants/:id", participantHandler.GetByID)

		api.POST("/checkin/face", checkinHandler.Face)
		api.POST("/checkin/manual", checkinHandler.Manual)
		api.POST("/checkin/assistance", checkinHandler.Assistance)

		api.POST("/chat-registration/start", chatHandler.Start)
		api.POST("/chat-registration/message", chatHandler.Message)
		api.POST("/chat-registration/photo", chatHandler.Photo)
		api.POST("/chat-registration/complete", chatHandler.Complete)
	}

	adminGroup := api.Group("/admin")
	if cfg.Admin.AuthEnabled() {
		jwtService := auth.NewJWTService(cfg.Admin.JWTSecret, cfg.Admin.ExpireHours)
		authHandler := auth.NewHandler(cfg.Admin, jwtService, logger)
		adminGroup.POST("/login", authHandler.Login)
		adminGroup.Use(middleware.JWT(jwtService), middleware.RequireRole(auth.RoleAdmin))
		logger.Info("admin authentication enabled", zap.String("email", cfg.Admin.Email))
	} else {
		logger.Warn("admin authentication disabled, dashboard routes are open")
	}
	{
		adminGroup.GET("/participants", adminHandler.ListParticipants)
		adminGroup.GET("/participants/:id", adminHandler.GetParticipant)
		adminGroup.GET("/checkins", adminHandler.ListCheckins)
		adminGroup.GET("/stats", adminHandler.Stats)
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

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
