package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"docfill/internal/config"
	"docfill/internal/handler"
	"docfill/internal/logger"
	"docfill/internal/metrics"
	"docfill/internal/parser"
	"docfill/internal/parser/gemini"
	"docfill/internal/parser/geminisdk"
	"docfill/internal/port"
	"docfill/internal/router"
	"docfill/internal/service"
	"docfill/internal/session"
	"docfill/internal/session/memory"
	redisstore "docfill/internal/session/redis"
	miniostorage "docfill/internal/storage/minio"
	s3storage "docfill/internal/storage/s3"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// A missing .env file is fine; real deployments use the environment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	appLog, err := logger.NewLogger(
		logger.WithLevel(cfg.Log.Level),
		logger.WithEncoding(cfg.Log.Format),
		logger.WithFile(cfg.Log.File, cfg.Log.MaxSizeMB, cfg.Log.MaxBackups, cfg.Log.MaxAgeDays, cfg.Log.Compress),
		logger.WithService("docfill"),
	)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() { _ = appLog.Sync() }()

	if err := run(cfg, appLog); err != nil {
		appLog.Fatal("server stopped", logger.Error(err))
	}
}

func run(cfg *config.Config, log logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize session store
	store, closeStore, err := newSessionStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	// Initialize external model
	parser.RegisterProvider("gemini", gemini.Factory)
	parser.RegisterProvider("gemini-sdk", geminisdk.Factory)
	model, err := parser.NewModel(ctx, &cfg.Model)
	if err != nil {
		return fmt.Errorf("failed to initialize model: %w", err)
	}
	if closer, ok := model.(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}

	// Initialize upload archive
	archive, err := newArchive(ctx, &cfg.Archive, log)
	if err != nil {
		return err
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	// Initialize services
	maxUpload := cfg.Server.MaxUploadBytes()
	analysisSvc := service.NewAnalysisService(model, archive, maxUpload, m, log)
	formSvc := service.NewFormService(analysisSvc, store, archive, m, log)

	// Initialize handlers
	tokens := session.NewTokens(cfg.Session)
	cookies := session.NewCookies(tokens, cfg.Session)
	formH := handler.NewFormHandler(formSvc, cookies, maxUpload, log)
	healthH := handler.NewHealthHandler(store)

	// Setup router
	r := router.Setup(log, router.Options{
		AllowedOrigins:     cfg.CORS.AllowedOrigins,
		MaxMultipartMemory: maxUpload,
		Metrics:            m,
	}, cookies, store, formH, healthH)

	srv := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           r,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting",
			logger.String("addr", cfg.Server.Port),
			logger.String("model_provider", cfg.Model.Provider),
			logger.String("session_store", cfg.Session.Store),
			logger.String("archive", cfg.Archive.Provider),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func newSessionStore(ctx context.Context, cfg *config.Config, log logger.Logger) (port.SessionStore, func(), error) {
	if cfg.Session.Store != config.SessionStoreRedis {
		return memory.NewStore(cfg.Session.TTL), func() {}, nil
	}

	client := redisstore.NewClient(cfg.Redis)
	store := redisstore.NewStore(client, cfg.Redis.KeyPrefix, cfg.Session.TTL)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Info("using redis session store", logger.String("addr", cfg.Redis.Addr))
	return store, func() { _ = client.Close() }, nil
}

func newArchive(ctx context.Context, cfg *config.ArchiveConfig, log logger.Logger) (*service.ArchiveTarget, error) {
	switch cfg.Provider {
	case config.ArchiveS3:
		client, err := s3storage.NewS3Client(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 client: %w", err)
		}
		return &service.ArchiveTarget{Storage: client, Bucket: cfg.Bucket}, nil
	case config.ArchiveMinio:
		client, err := miniostorage.NewStorage(cfg, log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize MinIO client: %w", err)
		}
		if err := client.EnsureBucket(ctx, cfg.Bucket); err != nil {
			return nil, fmt.Errorf("failed to prepare archive bucket: %w", err)
		}
		return &service.ArchiveTarget{Storage: client, Bucket: cfg.Bucket}, nil
	default:
		return nil, nil
	}
}
