package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/princekumarofficial/tiktok-downloader/internal/config"
	"github.com/princekumarofficial/tiktok-downloader/internal/http/handlers/download"
	"github.com/princekumarofficial/tiktok-downloader/internal/http/router"
	"github.com/princekumarofficial/tiktok-downloader/internal/httpclient"
	"github.com/princekumarofficial/tiktok-downloader/internal/metrics"
	"github.com/princekumarofficial/tiktok-downloader/internal/services/relay"
	"github.com/princekumarofficial/tiktok-downloader/internal/services/resolver"
)

// @title TikTok Downloader API
// @version 1.0
// @description Resolves TikTok links into direct media URLs and relays the video bytes as a download.
// @BasePath /
func main() {
	// a missing .env is fine, the environment and config file still apply
	_ = godotenv.Load()

	cfg := config.MustLoad()

	logger := setupLogger(cfg.Env)
	slog.SetDefault(logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	client := httpclient.New()

	resolverService, err := resolver.NewService(cfg, client, m)
	if err != nil {
		log.Fatal("Failed to initialize resolver:", err)
	}
	relayService := relay.NewService(cfg, client, m)

	handlers := download.NewDownloadHandlers(resolverService, relayService, m)

	server := http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router.New(handlers, reg, logger),
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	slog.Info("server started",
		slog.String("address", cfg.HTTPServer.Address),
		slog.String("env", cfg.Env),
		slog.String("upstream", cfg.Upstream.Endpoint))

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("failed to start server: %s", err)
		}
	}()

	<-done

	slog.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
		return
	}

	slog.Info("Server stopped")
}

func setupLogger(env string) *slog.Logger {
	switch env {
	case config.EnvLocal:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case config.EnvDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
}
