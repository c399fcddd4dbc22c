package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docmind/internal/config"
	"github.com/kailas-cloud/docmind/internal/domain/search/request"
	logpkg "github.com/kailas-cloud/docmind/internal/logger"
	"github.com/kailas-cloud/docmind/internal/metrics"
	chiTransport "github.com/kailas-cloud/docmind/internal/transport/chi"
	"github.com/kailas-cloud/docmind/internal/version"
)

var rootCmd = &cobra.Command{
	Use:           "docmind",
	Short:         "Hybrid semantic + lexical document retrieval",
	Long:          `docmind ingests documents, chunks and embeds them, and serves hybrid search fused with weighted RRF.`,
	Version:       version.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// setup loads configuration by ENV and builds the logger.
func setup() (config.Config, *zap.Logger, string, error) {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		return config.Config{}, nil, "", fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return config.Config{}, nil, "", fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, logger, env, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, env, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting docmind API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("sqlite_path", cfg.Storage.SQLitePath),
	)

	a, err := buildApp(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	server := chiTransport.NewServer(a.docSvc, a.searchSvc, a.healthSvc, chiTransport.Options{
		MaxUploadBytes: cfg.HTTP.MaxUploadBytes,
		SearchLimits: request.Limits{
			DefaultTopK: cfg.Search.DefaultTopK,
			MaxTopK:     cfg.Search.MaxTopK,
		},
	}, logger)

	r := chi.NewRouter()
	r.Use(chiTransport.JSONRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(chiTransport.WideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.Owners()))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	reloadCtx, stopReload := context.WithCancel(cmd.Context())
	defer stopReload()
	go reloadOnSignal(reloadCtx, hup, a.docSvc, logger)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-quit:
		logger.Info("Received shutdown signal")
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}
