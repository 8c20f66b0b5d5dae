package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sfp-api/internal/handler"
	"github.com/noah-isme/sfp-api/internal/middleware"
	"github.com/noah-isme/sfp-api/internal/repository"
	"github.com/noah-isme/sfp-api/internal/service"
	"github.com/noah-isme/sfp-api/pkg/cache"
	"github.com/noah-isme/sfp-api/pkg/config"
	"github.com/noah-isme/sfp-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sfp-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sfp-api/pkg/middleware/requestid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	repo, closeRepo := selectBackend(cfg, logr)
	defer closeRepo()

	validate := validator.New()

	feedbackSvc := service.NewFeedbackService(repo, validate, logr, service.FeedbackLimits{
		MaxTextLen:        cfg.Limits.MaxTextLen,
		MaxSuggestionsLen: cfg.Limits.MaxSuggestionsLen,
	})

	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, list cache disabled", zap.Error(err))
		} else {
			feedbackSvc.WithCache(repository.NewCacheRepository(redisClient, logr), cfg.Cache.TTL)
			logr.Info("list cache enabled")
		}
	}

	authSvc := service.NewAuthService(service.AuthConfig{
		Secret:    cfg.Session.Secret,
		TTL:       cfg.Session.TTL,
		Passwords: cfg.Admin.Passwords,
	}, validate, logr)

	metricsSvc := service.NewMetricsService()

	feedbackHandler := handler.NewFeedbackHandler(feedbackSvc)
	authHandler := handler.NewAuthHandler(authSvc, cfg.Session.CookieName, cfg.Session.CookieSecure)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.BodyLimit(cfg.Limits.JSONBodyBytes))

	r.GET("/health", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group("/api")
	api.POST("/login", authHandler.Login)
	api.POST("/logout", authHandler.Logout)

	api.GET("/feedbacks", feedbackHandler.List)
	api.POST("/feedbacks", feedbackHandler.Create)
	api.GET("/feedbacks/:id", feedbackHandler.Get)

	guarded := api.Group("")
	guarded.Use(middleware.Session(authSvc, cfg.Session.CookieName))
	guarded.GET("/export/feedbacks", feedbackHandler.Export)
	guarded.PATCH("/feedbacks/:id/status", feedbackHandler.UpdateStatus)
	guarded.PATCH("/feedbacks/:id/resolve", feedbackHandler.Resolve)
	guarded.DELETE("/feedbacks/:id", feedbackHandler.Delete)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

// selectBackend resolves the active storage backend exactly once: a
// bounded SurrealDB connection attempt, falling back permanently to the
// JSON file store for the remainder of the process lifetime.
func selectBackend(cfg *config.Config, logr *zap.Logger) (repository.FeedbackRepository, func()) {
	surreal, err := repository.NewSurrealRepository(cfg.SurrealDB, logr)
	if err == nil {
		logr.Info("surrealdb backend selected", zap.String("url", cfg.SurrealDB.URL))
		return surreal, surreal.Close
	}
	logr.Warn("surrealdb unavailable, using JSON file storage", zap.Error(err))

	fileRepo, err := repository.NewFileRepository(cfg.FileStore.Path, logr)
	if err != nil {
		logr.Sugar().Fatalw("failed to initialise file storage", "error", err)
	}
	return fileRepo, fileRepo.Close
}
