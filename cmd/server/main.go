package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/mediavault/api"
	"github.com/yourusername/mediavault/api/handlers"
	"github.com/yourusername/mediavault/internal/app"
	"github.com/yourusername/mediavault/internal/domain"
	"github.com/yourusername/mediavault/internal/infrastructure"
	"github.com/yourusername/mediavault/internal/observability"
	"github.com/yourusername/mediavault/pkg/logger"
)

var configPath = flag.String("config", "", "Path to config file")

func main() {
	flag.Parse()

	config, err := app.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting MediaVault server",
		zap.String("version", "1.0.0"),
		zap.String("host", config.Server.Host),
		zap.Int("port", config.Server.Port),
		zap.String("base_dir", config.Download.BaseDir))

	if err := createDirectories(config); err != nil {
		log.Fatal("Failed to create directories", zap.Error(err))
	}

	db, err := infrastructure.OpenDatabase(config.Database.Path)
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	defer infrastructure.CloseDatabase(db)

	jobRepo := infrastructure.NewSQLiteJobRepository(db)
	catalog := infrastructure.NewSQLiteCatalogRepository(db, log)

	bins := infrastructure.NewBinaryResolver(config.Binaries.OverrideDir, config.Binaries.BundledDir)
	if _, err := bins.ExtractorPath(); err != nil {
		log.Warn("Extractor binary not found, downloads will fail until it is installed",
			zap.Error(err))
	}

	thumbs := infrastructure.NewThumbnailFetcher(log)
	runner := infrastructure.NewYtdlpRunner(bins, thumbs, log)

	metrics := observability.NewMetrics()

	queueMgr := app.NewQueueManager(jobRepo, catalog, runner, config.Download.BaseDir, metrics, log)

	queueWS := handlers.NewQueueWebSocketHandler(log)
	queueMgr.Subscribe(queueWS)

	notifier := infrastructure.NewNotificationService(&config.Notification, log)
	queueMgr.Subscribe(notifier)

	// Jobs interrupted by the last shutdown go back to pending before
	// the worker starts
	if err := queueMgr.Recover(); err != nil {
		log.Fatal("Failed to recover queue", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := queueMgr.Start(ctx); err != nil {
		log.Fatal("Failed to start queue", zap.Error(err))
	}

	router := api.SetupRouter(queueMgr, catalog, queueWS, metrics, log)

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := queueMgr.Stop(); err != nil {
		log.Error("Error stopping queue", zap.Error(err))
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}

func createDirectories(config *domain.Config) error {
	dirs := []string{
		config.Download.BaseDir,
		filepath.Dir(config.Database.Path),
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
