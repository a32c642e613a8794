package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"galeri-gateway/internal/app"
	"galeri-gateway/internal/backend"
	"galeri-gateway/internal/config"
	"galeri-gateway/internal/handler"
	"galeri-gateway/internal/observability"
	"galeri-gateway/internal/proxy"
)

func main() {
	cfg := config.Load()

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logFormat := os.Getenv("LOG_FORMAT")
	if logFormat == "" {
		logFormat = "json"
	}
	observability.InitLogger(logLevel, logFormat)

	slog.Info("starting galeri gateway", slog.String("backend", cfg.BackendURL))

	client := backend.NewClient(cfg.BackendURL, cfg.APIBaseURL, cfg.SessionCookie)

	apiProxy, err := proxy.New(cfg.BackendURL, cfg.SessionCookie)
	if err != nil {
		slog.Error("failed to build backend proxy", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	router := app.NewRouter(ctx, app.Options{
		Config: cfg,
		Client: client,
		Proxy:  apiProxy,
		Pages:  handler.NewPages("./static"),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("galeri gateway listening", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("shutting down gateway")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", slog.String("error", err.Error()))
	}

	cancel()

	slog.Info("gateway stopped gracefully")
}
