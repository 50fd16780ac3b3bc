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

	_ "github.com/thryve/staffing-api/api/swagger"
	"github.com/thryve/staffing-api/internal/handler"
	"github.com/thryve/staffing-api/internal/middleware"
	"github.com/thryve/staffing-api/internal/models"
	"github.com/thryve/staffing-api/internal/repository"
	"github.com/thryve/staffing-api/internal/service"
	"github.com/thryve/staffing-api/pkg/cache"
	"github.com/thryve/staffing-api/pkg/config"
	"github.com/thryve/staffing-api/pkg/database"
	"github.com/thryve/staffing-api/pkg/logger"
	corsmiddleware "github.com/thryve/staffing-api/pkg/middleware/cors"
	reqidmiddleware "github.com/thryve/staffing-api/pkg/middleware/requestid"
)

// @title Thryve Staffing API
// @version 1.0.0
// @description Instructor staffing coordination: schedules, shift swaps, coverage pools
// @BasePath /api/v1
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	// The service degrades without Redis: dedup guards fall back to the DB
	// constraints and the dashboard recomputes every request.
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, running without cache", zap.Error(err))
		redisClient = nil
	}

	scheduleRepo := repository.NewScheduleRepository(db)
	swapRepo := repository.NewSwapRepository(db)
	coverageRepo := repository.NewCoverageRepository(db)
	policyRepo := repository.NewPolicyRepository(db)
	instructorRepo := repository.NewInstructorRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsService := service.NewMetricsService()
	tokenService := service.NewTokenService(service.TokenConfig{
		Secret:   cfg.JWT.Secret,
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
	})

	notificationService := service.NewNotificationService(service.NotificationServiceConfig{
		Enabled:    cfg.Notifications.Enabled,
		Workers:    cfg.Notifications.Workers,
		BufferSize: cfg.Notifications.BufferSize,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
	}, logr)

	policyService := service.NewPolicyService(policyRepo, auditRepo, nil, logr)
	scheduleService := service.NewScheduleService(scheduleRepo, instructorRepo, policyService, auditRepo, nil, logr)
	instructorService := service.NewInstructorService(instructorRepo, logr)

	swapService := service.NewSwapService(
		swapRepo,
		scheduleRepo,
		scheduleService,
		instructorRepo,
		policyService,
		cacheRepo,
		notificationService,
		auditRepo,
		nil,
		logr,
		service.SwapServiceConfig{
			DefaultExpiry: cfg.Staffing.SwapExpiry,
			DedupWindow:   cfg.Staffing.DedupWindow,
		},
	)

	coverageService := service.NewCoverageService(
		coverageRepo,
		scheduleRepo,
		scheduleService,
		policyService,
		cacheRepo,
		notificationService,
		auditRepo,
		nil,
		logr,
		service.CoverageServiceConfig{DedupWindow: cfg.Staffing.DedupWindow},
	)

	var dashboardService *service.DashboardService
	if cfg.Dashboard.Enabled {
		dashboardService = service.NewDashboardService(service.DashboardServiceParams{
			Schedule: scheduleRepo,
			Swaps:    swapRepo,
			Coverage: coverageRepo,
			Roster:   instructorRepo,
			Cache:    cacheRepo,
			Metrics:  metricsService,
			Logger:   logr,
			Config:   service.DashboardServiceConfig{CacheTTL: cfg.Dashboard.CacheTTL},
		})
	}

	scheduleHandler := handler.NewScheduleHandler(scheduleService)
	swapHandler := handler.NewSwapHandler(swapService, metricsService)
	coverageHandler := handler.NewCoverageHandler(coverageService, metricsService)
	policyHandler := handler.NewPolicyHandler(policyService)
	instructorHandler := handler.NewInstructorHandler(instructorService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)
	metricsHandler := handler.NewMetricsHandler(metricsService, db, redisClient)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	staffing := r.Group(cfg.APIPrefix + "/staffing")
	staffing.Use(middleware.JWT(tokenService))
	staffing.Use(middleware.Audit())
	{
		staffing.GET("/schedule", scheduleHandler.Get)
		staffing.GET("/swap-requests", swapHandler.List)
		staffing.GET("/coverage-pool", coverageHandler.Pool)
		staffing.GET("/coverage-requests", coverageHandler.Mine)
		staffing.GET("/instructors", instructorHandler.List)
		staffing.GET("/settings", policyHandler.Get)

		staffing.POST("/request-swap", middleware.RBAC(models.RoleInstructor), swapHandler.Request)
		staffing.POST("/accept-swap", middleware.RBAC(models.RoleInstructor), swapHandler.Accept)
		staffing.POST("/reject-swap", middleware.RBAC(models.RoleInstructor), swapHandler.Reject)
		staffing.POST("/apply-coverage", middleware.RBAC(models.RoleInstructor), coverageHandler.Apply)

		staffing.POST("/request-coverage", coverageHandler.Request)
		staffing.POST("/resolve-coverage", coverageHandler.Resolve)
		staffing.POST("/cancel-coverage", coverageHandler.Cancel)

		merchant := staffing.Group("", middleware.RBAC(models.RoleMerchant))
		merchant.GET("/dashboard", dashboardHandler.Studio)
		merchant.GET("/pending-approvals", swapHandler.PendingApprovals)
		merchant.POST("/approve-swap", swapHandler.Approve)
		merchant.POST("/reassign-class", scheduleHandler.Reassign)
		merchant.POST("/settings", policyHandler.Update)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	notificationService.Start(ctx)
	defer notificationService.Stop()

	go sweepExpiredSwaps(ctx, swapService, cfg.Staffing.SweepInterval, logr)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}

	if err := cacheRepo.Close(); err != nil {
		logr.Warn("failed to close redis", zap.Error(err))
	}
}

// sweepExpiredSwaps periodically expires stale swap requests so that lists
// stay clean even when nobody reads them.
func sweepExpiredSwaps(ctx context.Context, swaps *service.SwapService, interval time.Duration, logr *zap.Logger) {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			expired, err := swaps.ExpireStale(ctx)
			if err != nil {
				logr.Warn("swap expiry sweep failed", zap.Error(err))
				continue
			}
			if expired > 0 {
				logr.Info("expired stale swap requests", zap.Int64("count", expired))
			}
		}
	}
}
