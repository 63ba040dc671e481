package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"callcenter-platform/internal/audit"
	"callcenter-platform/internal/auth"
	"callcenter-platform/internal/calls"
	"callcenter-platform/internal/company"
	"callcenter-platform/internal/config"
	"callcenter-platform/internal/httpapi"
	"callcenter-platform/internal/identity"
	"callcenter-platform/internal/importer"
	"callcenter-platform/internal/reporting"
	"callcenter-platform/internal/store"
	"callcenter-platform/pkg/logger"
	"callcenter-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	if err := store.Migrate(rootCtx, db); err != nil {
		log.Error("migration failed", "err", err)
		os.Exit(1)
	}

	// Repositories and services.
	companyRepo := company.NewPostgresRepo(db)
	companySvc := company.NewService(companyRepo)

	callRepo := calls.NewPostgresRepo(db)
	workflow := calls.NewWorkflow(
		companyRepo,
		callRepo,
		calls.DirBlobStore{Dir: cfg.Calls.RecordingDir},
		calls.NewRedisClaimer(rdb, cfg.Calls.ClaimTTL),
		log,
	)

	identityRepo := identity.NewPostgresRepo(db)
	identitySvc := identity.NewService(identityRepo, log)

	importerSvc := importer.NewService(
		importer.NewParser(cfg.Importer.MaxFieldLen),
		importer.NewRedisPreviewStore(rdb),
		companySvc,
		cfg.Importer.PreviewTTL,
		log,
	)

	auditSvc := audit.NewService(
		audit.NewPostgresLogRepo(db),
		audit.NewPostgresSessionRepo(db),
		cfg.Retention.MaxAge,
		cfg.Retention.SweepEvery,
		log,
	)

	reportingSvc := reporting.NewService(companyRepo, callRepo, identityRepo)

	if err := companySvc.SeedIfEmpty(rootCtx); err != nil {
		log.Error("company seed failed", "err", err)
		os.Exit(1)
	}
	if err := identitySvc.SeedIfEmpty(rootCtx, cfg.Auth.BootstrapUsername, cfg.Auth.BootstrapPassword); err != nil {
		log.Error("user seed failed", "err", err)
		os.Exit(1)
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	h := httpapi.Handlers{
		Auth:      authManager,
		Identity:  identitySvc,
		Companies: companySvc,
		Importer:  importerSvc,
		Workflow:  workflow,
		Reporting: reportingSvc,
		Audit:     auditSvc,
		Log:       log,
	}
	registerRoutes(r, h, authManager, auditSvc, db, rdb, cfg.Calls.RecordingDir)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
