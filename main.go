package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"adhypo/internal/api"
	"adhypo/internal/config"
	"adhypo/internal/container"
	"adhypo/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "config file (default "+config.DefaultPath+")")
	flag.Parse()

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, closer, err := logging.Setup(logging.Options{
		Level:  appConfig.Logging.Level,
		Format: appConfig.Logging.Format,
		File:   appConfig.Logging.File,
	})
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer closer.Close()

	if err := serve(appConfig, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func serve(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Server.GinMode != "" {
		gin.SetMode(cfg.Server.GinMode)
	}

	appContainer, err := container.New(ctx, cfg, logger, container.Options{RequireStore: true})
	if err != nil {
		return err
	}
	defer appContainer.Close()

	server := api.NewServer(appContainer.Orchestrator, appContainer.Runs, api.Options{
		DataPath:   cfg.Data.Path(),
		RunTimeout: 10 * time.Minute,
	}, logger)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", httpServer.Addr, "data", cfg.Data.Path(), "llm", cfg.LLM.Enabled())
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

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return server.Shutdown(shutdownCtx)
}
