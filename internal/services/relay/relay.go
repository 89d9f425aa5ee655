package relay

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/princekumarofficial/tiktok-downloader/internal/apperr"
	"github.com/princekumarofficial/tiktok-downloader/internal/config"
	"github.com/princekumarofficial/tiktok-downloader/internal/httpclient"
	"github.com/princekumarofficial/tiktok-downloader/internal/metrics"
	"github.com/princekumarofficial/tiktok-downloader/internal/types/download"
)

// ContentType is sent for every relayed body regardless of what the media host reports.
const ContentType = "video/mp4"

type Service struct {
	client          *http.Client
	userAgent       string
	timeout         time.Duration
	maxBytes        int64
	cacheMaxAge     time.Duration
	defaultFilename string
	allowPrivate    bool
	slots           *semaphore.Weighted
	metrics         *metrics.Metrics
}

// Media is a fully buffered video ready to be written to the client.
type Media struct {
	Filename string
	Body     []byte
}

// NewService creates a relay bounded by the configured size and concurrency limits
func NewService(cfg *config.Config, client *http.Client, m *metrics.Metrics) *Service {
	maxConcurrent := cfg.Relay.MaxConcurrent
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	defaultFilename := SanitizeFilename(cfg.Relay.DefaultFilename, "video.mp4")

	return &Service{
		client:          client,
		userAgent:       cfg.UserAgent,
		timeout:         cfg.Relay.Timeout,
		maxBytes:        cfg.Relay.MaxBytes,
		cacheMaxAge:     cfg.Relay.CacheMaxAge,
		defaultFilename: defaultFilename,
		allowPrivate:    cfg.Relay.AllowPrivateHosts,
		slots:           semaphore.NewWeighted(maxConcurrent),
		metrics:         m,
	}
}

// Fetch downloads the media at req.VideoURL into memory. At most
// relay.max_concurrent fetches hold a buffer at the same time; others wait
// for a slot until ctx ends or relay.timeout passes.
func (s *Service) Fetch(ctx context.Context, req download.RelayRequest) (*Media, error) {
	mediaURL, err := parseMediaURL(req.VideoURL, s.allowPrivate)
	if err != nil {
		return nil, err
	}
	filename := SanitizeFilename(req.Filename, s.defaultFilename)

	// relay.timeout covers the wait for a slot as well as the transfer.
	ctx, cancel := httpclient.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.slots.Acquire(ctx, 1); err != nil {
		return nil, apperr.Internal("too many downloads in progress", err)
	}
	defer s.slots.Release(1)

	s.metrics.RelayStarted()
	defer s.metrics.RelayFinished()

	body, err := s.fetch(ctx, mediaURL)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveRelayBytes(len(body))

	return &Media{Filename: filename, Body: body}, nil
}

func (s *Service) fetch(ctx context.Context, mediaURL string) ([]byte, error) {
	req, err := httpclient.NewGetRequest(ctx, mediaURL, s.userAgent)
	if err != nil {
		return nil, apperr.Internal("failed to build media request", err)
	}

	start := time.Now()
	defer func() { s.metrics.ObserveUpstream("media", time.Since(start)) }()

	resp, err := s.client.Do(req)
	if err != nil {
		if httpclient.IsTimeout(err) {
			return nil, apperr.UpstreamTimeout("media host timed out", err)
		}
		return nil, apperr.Internal("failed to download video", err)
	}
	defer resp.Body.Close()

	if !httpclient.IsSuccess(resp.StatusCode) {
		return nil, apperr.UpstreamFailure("failed to download video", resp.StatusCode, nil)
	}
	if s.maxBytes > 0 && resp.ContentLength > s.maxBytes {
		return nil, apperr.UpstreamFailure("video is too large", 0,
			fmt.Errorf("content length %d exceeds limit %d", resp.ContentLength, s.maxBytes))
	}

	reader := io.Reader(resp.Body)
	if s.maxBytes > 0 {
		reader = io.LimitReader(resp.Body, s.maxBytes+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		if httpclient.IsTimeout(err) {
			return nil, apperr.UpstreamTimeout("media host timed out", err)
		}
		return nil, apperr.Internal("failed to read video", err)
	}
	if s.maxBytes > 0 && int64(len(body)) > s.maxBytes {
		return nil, apperr.UpstreamFailure("video is too large", 0,
			fmt.Errorf("body exceeds limit %d", s.maxBytes))
	}

	return body, nil
}

// CacheControl is the Cache-Control value for relayed media.
func (s *Service) CacheControl() string {
	return fmt.Sprintf("public, max-age=%d", int64(s.cacheMaxAge.Seconds()))
}

func parseMediaURL(raw string, allowPrivate bool) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", apperr.InvalidInput("video url is required")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", apperr.InvalidInput("invalid video url")
	}
	if !allowPrivate && isPrivateHost(u.Hostname()) {
		return "", apperr.InvalidInput("video url points to a private address")
	}
	return u.String(), nil
}

// isPrivateHost reports whether host is localhost or a literal IP outside the
// public unicast range. Names are not resolved.
func isPrivateHost(host string) bool {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsMulticast()
}
