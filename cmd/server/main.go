// @title Invoice Extraction API
// @version 1.0
// @description Upload invoices, extract structured data with an AI provider, and export the results.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"invoicex/internal/completion"
	"invoicex/internal/config"
	"invoicex/internal/domain"
	"invoicex/internal/extractor"
	"invoicex/internal/handler"
	"invoicex/internal/logger"
	"invoicex/internal/port"
	"invoicex/internal/repository/postgres"
	"invoicex/internal/router"
	"invoicex/internal/service"
	localstorage "invoicex/internal/storage/local"
	s3storage "invoicex/internal/storage/s3"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	zlog := logger.New(cfg.Log)
	defer func() { _ = zlog.Sync() }()

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	userRepo := postgres.NewUserRepo(db)
	invoiceRepo := postgres.NewInvoiceRepo(db)
	statsRepo := postgres.NewStatsRepo(db)

	// Initialize storage
	store, err := newDocumentStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize document store: %w", err)
	}

	// Initialize extraction pipeline
	client := completion.NewClient(cfg.Extractor, zlog.Named("completion"))
	loader := extractor.NewLoader(store, cfg.Extractor.MaxTextChars)
	invoiceExtractor := extractor.New(loader, client, zlog.Named("extractor"))

	zlog.Info("extraction provider configured",
		zap.String("provider", client.Provider()),
		zap.String("model", client.Model()),
		zap.String("storage", cfg.Storage.Backend))

	// Initialize services
	authSvc := service.NewAuthService(userRepo, cfg.JWT)
	invoiceSvc := service.NewInvoiceService(invoiceRepo, store, invoiceExtractor, service.InvoiceServiceConfig{
		MaxFileSizeMB:  cfg.Storage.MaxFileSizeMB,
		ProcessTimeout: cfg.Extractor.Timeout(),
	}, zlog.Named("invoice"))
	exportSvc := service.NewExportService(invoiceRepo, zlog.Named("export"))
	statsSvc := service.NewStatsService(statsRepo)

	// Initialize handlers
	authH := handler.NewAuthHandler(authSvc)
	invoiceH := handler.NewInvoiceHandler(invoiceSvc, exportSvc)
	userH := handler.NewUserHandler(statsSvc, domain.ExtractorSettings{
		Provider: client.Provider(),
		Model:    client.Model(),
	})
	healthH := handler.NewHealthHandler(db)

	// Setup router
	r := router.Setup(zlog, cfg.CORS.AllowedOrigins, authSvc, authH, invoiceH, userH, healthH)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		zlog.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case sig := <-quit:
		zlog.Info("shutting down server", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	zlog.Info("server exited")
	return nil
}

func newDocumentStore(cfg *config.Config) (port.DocumentStore, error) {
	switch strings.ToLower(cfg.Storage.Backend) {
	case "", "local":
		return localstorage.NewLocalStore(cfg.Storage.Root)
	case "s3":
		return s3storage.NewS3Store(&cfg.S3)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
