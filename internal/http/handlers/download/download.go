package download

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/princekumarofficial/tiktok-downloader/internal/apperr"
	"github.com/princekumarofficial/tiktok-downloader/internal/http/middleware"
	"github.com/princekumarofficial/tiktok-downloader/internal/metrics"
	"github.com/princekumarofficial/tiktok-downloader/internal/services/relay"
	downloadTypes "github.com/princekumarofficial/tiktok-downloader/internal/types/download"
	"github.com/princekumarofficial/tiktok-downloader/internal/utils/response"
	"github.com/princekumarofficial/tiktok-downloader/internal/utils/tiktokurl"
)

const maxBodyBytes = 1 << 20

// Resolver is the part of the resolver service the handlers need.
type Resolver interface {
	Resolve(ctx context.Context, pageURL string) (*downloadTypes.ResolvedMedia, error)
}

// Relay is the part of the relay service the handlers need.
type Relay interface {
	Fetch(ctx context.Context, req downloadTypes.RelayRequest) (*relay.Media, error)
	CacheControl() string
}

type DownloadHandlers struct {
	resolver Resolver
	relay    Relay
	validate *validator.Validate
	metrics  *metrics.Metrics
}

// NewDownloadHandlers creates the handlers behind /download
func NewDownloadHandlers(resolverService Resolver, relayService Relay, m *metrics.Metrics) *DownloadHandlers {
	return &DownloadHandlers{
		resolver: resolverService,
		relay:    relayService,
		validate: tiktokurl.NewValidator(),
		metrics:  m,
	}
}

// Resolve resolves a TikTok link into direct media URLs
// @Summary Resolve a TikTok link
// @Description Validate a TikTok page URL and look up its title, thumbnail, author and media URLs
// @Tags download
// @Accept json
// @Produce json
// @Param request body downloadTypes.DownloadRequest true "TikTok page URL"
// @Success 200 {object} response.Response{data=downloadTypes.ResolvedMedia} "Video resolved"
// @Failure 400 {object} response.ErrorResponse "Invalid or missing URL"
// @Failure 500 {object} response.ErrorResponse "Upstream or internal failure"
// @Router /download [post]
func (h *DownloadHandlers) Resolve() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req downloadTypes.DownloadRequest

		err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req)
		if errors.Is(err, io.EOF) {
			h.fail(w, r, metrics.OperationResolve, apperr.InvalidInput("request body cannot be empty"))
			return
		} else if err != nil {
			h.fail(w, r, metrics.OperationResolve, apperr.InvalidInput("invalid request body"))
			return
		}
		req.URL = strings.TrimSpace(req.URL)

		if err := h.validate.Struct(req); err != nil {
			h.failValidation(w, r, metrics.OperationResolve, err, "invalid TikTok URL")
			return
		}

		media, err := h.resolver.Resolve(r.Context(), req.URL)
		if err != nil {
			h.fail(w, r, metrics.OperationResolve, err)
			return
		}

		h.metrics.ObserveRequest(metrics.OperationResolve, metrics.OutcomeSuccess)
		slog.Info("Video resolved",
			slog.String("request_id", requestID(r)),
			slog.String("title", media.Title))

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Video fetched successfully", media))
	}
}

// Relay streams a resolved media URL back as a file download
// @Summary Download a resolved video
// @Description Fetch the video bytes from a URL returned by POST /download and serve them as an attachment
// @Tags download
// @Produce video/mp4
// @Produce json
// @Param url query string true "Direct media URL"
// @Param filename query string false "File name for the saved video (default tiktok-video.mp4)"
// @Success 200 {file} binary "Video file"
// @Failure 400 {object} response.ErrorResponse "Missing or invalid media URL"
// @Failure 500 {object} response.ErrorResponse "Upstream or internal failure"
// @Router /download [get]
func (h *DownloadHandlers) Relay() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// GET patterns also match HEAD, which would buffer the whole video for nothing.
		if r.Method == http.MethodHead {
			w.Header().Set("Allow", middleware.AllowedMethods)
			response.WriteJSON(w, http.StatusMethodNotAllowed, response.ErrorResponse{Error: "method not allowed"})
			return
		}

		query := r.URL.Query()
		req := downloadTypes.RelayRequest{
			VideoURL: strings.TrimSpace(query.Get("url")),
			Filename: query.Get("filename"),
		}

		if err := h.validate.Struct(req); err != nil {
			h.failValidation(w, r, metrics.OperationRelay, err, "invalid video url")
			return
		}

		media, err := h.relay.Fetch(r.Context(), req)
		if err != nil {
			h.fail(w, r, metrics.OperationRelay, err)
			return
		}

		h.metrics.ObserveRequest(metrics.OperationRelay, metrics.OutcomeSuccess)

		header := w.Header()
		header.Set("Content-Type", relay.ContentType)
		header.Set("Content-Disposition", relay.ContentDisposition(media.Filename))
		header.Set("Content-Length", strconv.Itoa(len(media.Body)))
		header.Set("Cache-Control", h.relay.CacheControl())
		w.WriteHeader(http.StatusOK)

		if _, err := w.Write(media.Body); err != nil {
			slog.Warn("Client went away during relay",
				slog.String("request_id", requestID(r)),
				slog.String("error", err.Error()))
		}
	}
}

// Preflight answers CORS preflight requests
// @Summary CORS preflight
// @Tags download
// @Success 200 "Empty body with CORS headers"
// @Router /download [options]
func (h *DownloadHandlers) Preflight() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		middleware.SetCORSHeaders(w.Header())
		w.Header().Set("Access-Control-Max-Age", "86400")
		w.WriteHeader(http.StatusOK)
	}
}

func (h *DownloadHandlers) fail(w http.ResponseWriter, r *http.Request, operation string, err error) {
	appErr := apperr.From(err)
	h.metrics.ObserveRequest(operation, string(appErr.Kind))

	attrs := []any{
		slog.String("request_id", requestID(r)),
		slog.String("operation", operation),
		slog.String("kind", string(appErr.Kind)),
		slog.String("error", appErr.Error()),
	}
	if appErr.Kind == apperr.KindInvalidInput {
		slog.Warn("Rejected download request", attrs...)
	} else {
		slog.Error("Download request failed", attrs...)
	}

	response.WriteError(w, appErr)
}

func (h *DownloadHandlers) failValidation(w http.ResponseWriter, r *http.Request, operation string, err error, message string) {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		h.fail(w, r, operation, apperr.InvalidInput(message))
		return
	}

	h.metrics.ObserveRequest(operation, string(apperr.KindInvalidInput))
	slog.Warn("Rejected download request",
		slog.String("request_id", requestID(r)),
		slog.String("operation", operation),
		slog.String("error", err.Error()))

	resp := response.ValidationError(ve)
	resp.Error = message
	if ve[0].Tag() == "required" {
		resp.Error = "url is required"
	}
	response.WriteJSON(w, http.StatusBadRequest, resp)
}

func requestID(r *http.Request) string {
	id, _ := middleware.GetRequestIDFromContext(r.Context())
	return id
}
