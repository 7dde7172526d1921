package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"idmatch/internal/audit"
	"idmatch/internal/platform/config"
	"idmatch/internal/platform/httpserver"
	"idmatch/internal/platform/logger"
	"idmatch/internal/platform/metrics"
	platformredis "idmatch/internal/platform/redis"
	"idmatch/internal/verify/download"
	"idmatch/internal/verify/ocr"
	"idmatch/internal/verify/service"
	"idmatch/internal/verify/store"
	"idmatch/internal/web"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	var checks []web.HealthCheck

	// Stores: Postgres when configured, in-memory otherwise.
	var runs store.RunStore
	var auditStore audit.Store
	if cfg.DatabaseURL != "" {
		db, err := store.Open(cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to connect to postgres", "error", err.Error())
			os.Exit(1)
		}
		defer db.Close()
		if err := store.Migrate(db); err != nil {
			log.Error("failed to migrate run store", "error", err.Error())
			os.Exit(1)
		}
		if err := audit.Migrate(db); err != nil {
			log.Error("failed to migrate audit store", "error", err.Error())
			os.Exit(1)
		}
		runs = store.NewPostgres(db)
		auditStore = audit.NewPostgresStore(db)
		checks = append(checks, web.HealthCheck{
			Name:  "postgres",
			Check: func(ctx context.Context) error { return db.PingContext(ctx) },
		})
	} else {
		runs = store.NewMemory()
		auditStore = audit.NewMemoryStore()
	}

	// OCR: the Vision client, rotation correction, then the optional
	// Redis text cache on top.
	visionClient := ocr.NewVisionClient(cfg.VisionEndpoint, cfg.VisionAPIKey, cfg.OCRTimeout)
	var reader ocr.Reader = ocr.NewTextReader(visionClient, log)

	cache, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("failed to connect to redis", "error", err.Error())
		os.Exit(1)
	}
	if cache != nil {
		defer cache.Close()
		reader = ocr.NewCachedReader(reader, cache.Client, cfg.OCRCacheTTL, log, m)
		checks = append(checks, web.HealthCheck{Name: "redis", Check: cache.Health})
	}

	worker, emitter := audit.NewWorker(auditStore, 256, log)
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	go func() {
		if err := worker.Run(workerCtx); err != nil && workerCtx.Err() == nil {
			log.Error("audit worker stopped", "error", err.Error())
		}
	}()

	svc := service.New(
		service.Config{
			SheetPath:   cfg.SheetPath,
			DownloadDir: cfg.DownloadDir,
			RowLimit:    cfg.RowLimit,
			Workers:     cfg.Workers,
		},
		download.New(cfg.DownloadDir, cfg.DownloadTimeout),
		reader,
		runs,
		log,
		service.WithMetrics(m),
		service.WithAudit(emitter),
	)

	handler := web.NewHandler(svc, web.NewFlashQueue(cfg.FlashSigningKey, log), log, checks...)
	router := web.NewRouter(handler, cfg.DownloadDir, log)
	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting idmatch", "addr", cfg.Addr, "sheet", cfg.SheetPath)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err.Error())
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err.Error())
		os.Exit(1)
	}
}
