package router

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/princekumarofficial/tiktok-downloader/docs"
	"github.com/princekumarofficial/tiktok-downloader/internal/http/handlers/download"
	"github.com/princekumarofficial/tiktok-downloader/internal/http/handlers/health"
	"github.com/princekumarofficial/tiktok-downloader/internal/http/middleware"
	"github.com/princekumarofficial/tiktok-downloader/internal/metrics"
)

// New wires every route of the service behind the shared middleware stack.
func New(downloads *download.DownloadHandlers, gatherer prometheus.Gatherer, logger *slog.Logger) http.Handler {
	router := http.NewServeMux()

	router.HandleFunc("POST /download", downloads.Resolve())
	router.HandleFunc("GET /download", downloads.Relay())
	router.HandleFunc("OPTIONS /download", downloads.Preflight())

	router.HandleFunc("GET /healthz", health.Health())
	router.Handle("GET /metrics", metrics.Handler(gatherer))
	router.Handle("GET /swagger/", httpSwagger.WrapHandler)

	return middleware.Chain(router,
		middleware.RequestID,
		middleware.Logger(logger),
		middleware.Recoverer,
		middleware.CORS,
	)
}
