package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/schoolhire/match-api/api/swagger"
	"github.com/schoolhire/match-api/internal/handler"
	"github.com/schoolhire/match-api/internal/middleware"
	"github.com/schoolhire/match-api/internal/repository"
	"github.com/schoolhire/match-api/internal/scheduler"
	"github.com/schoolhire/match-api/internal/service"
	"github.com/schoolhire/match-api/pkg/cache"
	"github.com/schoolhire/match-api/pkg/config"
	"github.com/schoolhire/match-api/pkg/database"
	"github.com/schoolhire/match-api/pkg/jobs"
	"github.com/schoolhire/match-api/pkg/logger"
	"github.com/schoolhire/match-api/pkg/mailer"
	corsmiddleware "github.com/schoolhire/match-api/pkg/middleware/cors"
	reqidmiddleware "github.com/schoolhire/match-api/pkg/middleware/requestid"
)

// @title SchoolHire Match API
// @version 0.1.0
// @description Candidate matching, aggregation and notification pipeline
// @BasePath /
// @schemes http

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, board caching disabled", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	mail, err := mailerFromConfig(cfg, logr)
	if err != nil {
		logr.Sugar().Fatalw("failed to init mailer", "error", err)
	}

	jobRepo := repository.NewJobRepository(db)
	candidateRepo := repository.NewCandidateRepository(db)
	matchRepo := repository.NewMatchRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	preferenceRepo := repository.NewPreferenceRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metrics := service.NewMetricsService()

	notificationSvc := service.NewNotificationService(
		notificationRepo, preferenceRepo, matchRepo, mail, logr, metrics,
		service.NotificationConfig{
			DebounceWindow: cfg.Notifications.DebounceWindow,
			SendTimeout:    cfg.Notifications.SendTimeout,
			BatchSize:      cfg.Notifications.BatchSize,
		})

	fanOutQueue := jobs.NewQueue("notification-fanout",
		service.NotificationJobHandler(notificationSvc, cfg.Matching.FanOutTimeout),
		jobs.QueueConfig{Workers: cfg.Matching.WorkerConcurrency, Logger: logr})

	boardSvc := service.NewBoardService(jobRepo, matchRepo, applicationRepo, cacheRepo, cfg.Board.CacheTTL, logr,
		service.WithSynthesizedScore(cfg.Matching.SynthesizedScore))
	statusSvc := service.NewStatusService(matchRepo, applicationRepo, candidateRepo, jobRepo, notificationSvc, boardSvc, logr, metrics)
	finderSvc := service.NewMatchFinderService(jobRepo, candidateRepo, matchRepo, notificationSvc, fanOutQueue, logr, metrics,
		service.FinderConfig{
			ResultCap:          cfg.Matching.ResultCap,
			AdmissionThreshold: cfg.Matching.AdmissionThreshold,
			FanOutTimeout:      cfg.Matching.FanOutTimeout,
		})

	boardHandler := handler.NewBoardHandler(boardSvc)
	matchHandler := handler.NewMatchHandler(statusSvc, finderSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.GET("/jobs/:id/board", boardHandler.Get)
		api.POST("/jobs/:id/matches", matchHandler.FindMatches)
		api.PATCH("/matches/:id/status", matchHandler.UpdateStatus)
		api.POST("/matches/status/bulk", matchHandler.UpdateStatusBulk)
		api.POST("/notifications/process", notificationHandler.Process)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fanOutQueue.Start(ctx)
	defer fanOutQueue.Stop()

	cronSched := scheduler.New(notificationSvc, cfg.Notifications.ProcessInterval, cfg.Notifications.BatchSize, logr)
	if err := cronSched.Start(ctx); err != nil {
		logr.Sugar().Fatalw("failed to start scheduler", "error", err)
	}
	defer cronSched.Stop()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("server shutdown incomplete", "error", err)
	}
}

// mailerFromConfig builds the SMTP mailer and warns when credentials are
// absent; sends will fail at delivery time and land rows in failed state,
// which is visible in metrics instead of silently dropped.
func mailerFromConfig(cfg *config.Config, logr *zap.Logger) (*mailer.Mailer, error) {
	m, err := mailer.New(cfg.SMTP)
	if err != nil {
		return nil, err
	}
	if !m.IsConfigured() {
		logr.Warn("smtp credentials missing, notification delivery will fail")
	}
	return m, nil
}
