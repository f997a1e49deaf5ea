package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/telvia/crm-api/api/swagger"
	"github.com/telvia/crm-api/internal/handler"
	"github.com/telvia/crm-api/internal/repository"
	"github.com/telvia/crm-api/internal/router"
	"github.com/telvia/crm-api/internal/service"
	"github.com/telvia/crm-api/pkg/cache"
	"github.com/telvia/crm-api/pkg/config"
	"github.com/telvia/crm-api/pkg/database"
	"github.com/telvia/crm-api/pkg/logger"
	"github.com/telvia/crm-api/pkg/storage"
)

// @title CRM API
// @version 1.0.0
// @description Client relationship management backend
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching and rate limiting degrade", "error", err)
		redisClient = nil
	}

	store, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare upload storage", "error", err)
	}
	signer := storage.NewShareLinkSigner(cfg.Uploads.ShareLinkSecret, cfg.Uploads.ShareLinkTTL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	userRepo := repository.NewUserRepository(db)
	clientRepo := repository.NewClientRepository(db)
	callRepo := repository.NewCallRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	referenceRepo := repository.NewReferenceRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	validate := service.NewValidator()
	metricsSvc := service.NewMetricsService()

	auditSvc := service.NewAuditService(auditRepo, logr)
	auditSvc.Start(ctx)
	defer auditSvc.Stop()

	authSvc := service.NewAuthService(userRepo, auditSvc, validate, logr, service.AuthConfig{
		AccessSecret:  cfg.JWT.AccessSecret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		AccessExpiry:  cfg.JWT.AccessExpiry,
		RefreshExpiry: cfg.JWT.RefreshExpiry,
		Issuer:        cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(userRepo, auditSvc, validate, logr)
	clientSvc := service.NewClientService(clientRepo, callRepo, taskRepo, validate, logr)
	callSvc := service.NewCallService(callRepo, clientRepo, validate, logr)
	taskSvc := service.NewTaskService(taskRepo, clientRepo, validate, logr)
	referenceSvc := service.NewReferenceService(referenceRepo, validate, logr)
	documentSvc := service.NewDocumentService(documentRepo, clientRepo, store, signer, auditSvc, service.DocumentConfig{
		MaxFileSizeBytes: cfg.Uploads.MaxFileSizeBytes,
		AllowedMIMEs:     cfg.Uploads.AllowedMIMEs,
	}, logr)
	dashboardSvc := service.NewDashboardService(clientRepo, callRepo, taskRepo, cacheRepo, cfg.Dashboard.CacheTTL, logr)

	engine := router.New(router.Dependencies{
		Config:         cfg,
		Logger:         logr,
		AuthService:    authSvc,
		MetricsService: metricsSvc,
		AuditService:   auditSvc,
		RateCounter:    cacheRepo,

		Auth:      handler.NewAuthHandler(authSvc),
		Users:     handler.NewUserHandler(userSvc),
		Clients:   handler.NewClientHandler(clientSvc),
		Calls:     handler.NewCallHandler(callSvc),
		Tasks:     handler.NewTaskHandler(taskSvc),
		Reference: handler.NewReferenceHandler(referenceSvc),
		Documents: handler.NewDocumentHandler(documentSvc),
		Dashboard: handler.NewDashboardHandler(dashboardSvc),
		Audit:     handler.NewAuditHandler(auditSvc),
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: engine,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}

	if err := cacheRepo.Close(); err != nil {
		logr.Sugar().Warnw("failed to close redis", "error", err)
	}
}
