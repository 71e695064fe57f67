package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ravivalluri/pixelsandpetals-content/pkg/sitecontent/api"
	"github.com/ravivalluri/pixelsandpetals-content/pkg/sitecontent/config"
)

func main() {
	_ = godotenv.Load()

	opts := []config.Option{config.WithEnv()}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		opts = []config.Option{config.WithFile(path)}
	}

	serverConfig, err := config.Load(opts...)
	if err != nil {
		log.Fatalf("Failed to load server configuration: %v", err)
	}

	logger, err := serverConfig.BuildLogger()
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(serverConfig, logger); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func run(serverConfig *config.ServerConfig, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, cleanup, err := serverConfig.BuildRepository(ctx, logger)
	if err != nil {
		return fmt.Errorf("failed to build repository: %w", err)
	}
	defer cleanup()

	svc, err := serverConfig.BuildService(repo, logger)
	if err != nil {
		return fmt.Errorf("failed to build service: %w", err)
	}

	httpServer := &http.Server{
		Addr: ":" + serverConfig.Port,
		Handler: api.NewRouter(svc, api.RouterOptions{
			Logger:         logger,
			AllowedOrigins: serverConfig.AllowedOrigins,
			RequestTimeout: serverConfig.RequestTimeout,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("content server starting",
			zap.String("port", serverConfig.Port),
			zap.String("environment", serverConfig.Environment),
			zap.String("database", serverConfig.DatabaseType))

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server exited")
	return nil
}
