// Command server runs the sheetview web UI.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/sheetview/internal/codec"
	"github.com/JonMunkholm/sheetview/internal/config"
	"github.com/JonMunkholm/sheetview/internal/core"
	"github.com/JonMunkholm/sheetview/internal/logging"
	"github.com/JonMunkholm/sheetview/internal/web"
	"github.com/joho/godotenv"
)

func main() {
	// .env values win over the inherited environment.
	if err := godotenv.Overload(); err == nil {
		slog.Info("loaded .env file")
	}

	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	service := core.NewService(codec.New(codec.WithUnzipLimit(cfg.Upload.MaxUnzipSize)), cfg)
	server := web.NewServer(service, cfg)

	go service.StartSessionSweeper(ctx, core.SweepConfig{
		IdleTimeout:   cfg.Session.IdleTimeout,
		CheckInterval: cfg.Session.SweepInterval,
	})

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Server.Addr())
		serveErr <- server.Start()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	drain(shutdownCtx, service)

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

// drain waits for in-flight uploads so a parsed file is not lost mid-request.
func drain(ctx context.Context, service *core.Service) {
	st := service.UploadLimiterStatus()
	if st.Active == 0 {
		return
	}
	slog.Info("waiting for uploads to complete", "active", st.Active)
	if err := service.WaitForUploads(ctx); err != nil {
		slog.Warn("uploads did not complete in time", "error", err)
	}
}
