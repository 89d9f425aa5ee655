package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/princekumarofficial/tiktok-downloader/internal/apperr"
	"github.com/princekumarofficial/tiktok-downloader/internal/config"
	"github.com/princekumarofficial/tiktok-downloader/internal/httpclient"
	"github.com/princekumarofficial/tiktok-downloader/internal/metrics"
	"github.com/princekumarofficial/tiktok-downloader/internal/types/download"
	"github.com/princekumarofficial/tiktok-downloader/internal/utils/tiktokurl"
)

// DefaultTitle replaces an empty upstream title.
const DefaultTitle = "TikTok Video"

const maxEnvelopeBytes = 10 << 20

type Service struct {
	client    *http.Client
	endpoint  *url.URL
	userAgent string
	timeout   time.Duration
	metrics   *metrics.Metrics
}

// NewService creates a resolver talking to the configured metadata API
func NewService(cfg *config.Config, client *http.Client, m *metrics.Metrics) (*Service, error) {
	endpoint, err := url.Parse(cfg.Upstream.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream endpoint: %w", err)
	}
	if !endpoint.IsAbs() {
		return nil, fmt.Errorf("upstream endpoint must be absolute: %q", cfg.Upstream.Endpoint)
	}

	return &Service{
		client:    client,
		endpoint:  endpoint,
		userAgent: cfg.UserAgent,
		timeout:   cfg.Upstream.Timeout,
		metrics:   m,
	}, nil
}

// Resolve turns a TikTok page link into title, thumbnail and direct media URLs.
// Links failing validation are rejected before any outbound call.
func (s *Service) Resolve(ctx context.Context, pageURL string) (*download.ResolvedMedia, error) {
	pageURL = strings.TrimSpace(pageURL)
	if pageURL == "" {
		return nil, apperr.InvalidInput("url is required")
	}
	if !tiktokurl.IsValid(pageURL) {
		return nil, apperr.InvalidInput("invalid TikTok URL")
	}

	ctx, cancel := httpclient.WithTimeout(ctx, s.timeout)
	defer cancel()

	envelope, err := s.fetchMetadata(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	return s.toResolvedMedia(envelope.Data), nil
}

func (s *Service) metadataURL(pageURL string) string {
	u := *s.endpoint
	q := u.Query()
	q.Set("url", pageURL)
	u.RawQuery = q.Encode()
	return u.String()
}

func (s *Service) fetchMetadata(ctx context.Context, pageURL string) (*download.UpstreamMetadataResponse, error) {
	req, err := httpclient.NewGetRequest(ctx, s.metadataURL(pageURL), s.userAgent)
	if err != nil {
		return nil, apperr.Internal("failed to build metadata request", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := s.client.Do(req)
	s.metrics.ObserveUpstream("metadata", time.Since(start))
	if err != nil {
		if httpclient.IsTimeout(err) {
			return nil, apperr.UpstreamTimeout("metadata service timed out", err)
		}
		return nil, apperr.Internal("failed to reach metadata service", err)
	}
	defer resp.Body.Close()

	if !httpclient.IsSuccess(resp.StatusCode) {
		return nil, apperr.UpstreamFailure("failed to fetch video information", resp.StatusCode, nil)
	}

	var envelope download.UpstreamMetadataResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxEnvelopeBytes)).Decode(&envelope); err != nil {
		if httpclient.IsTimeout(err) {
			return nil, apperr.UpstreamTimeout("metadata service timed out", err)
		}
		return nil, apperr.Internal("invalid response from metadata service", err)
	}

	if envelope.Code != 0 || envelope.Data == nil {
		var cause error
		if envelope.Msg != "" {
			cause = errors.New(envelope.Msg)
		}
		return nil, apperr.UpstreamFailure("failed to fetch video information", 0, cause)
	}

	return &envelope, nil
}

func (s *Service) toResolvedMedia(data *download.UpstreamVideo) *download.ResolvedMedia {
	media := &download.ResolvedMedia{
		ID:             string(data.ID),
		Title:          data.Title,
		Thumbnail:      s.absolute(data.Cover),
		Description:    data.Title,
		DownloadURL:    s.absolute(data.Play),
		NoWatermarkURL: s.absolute(data.WMPlay),
		MusicURL:       s.absolute(data.Music),
	}
	if strings.TrimSpace(media.Title) == "" {
		media.Title = DefaultTitle
	}
	if data.Author != nil {
		media.Author = data.Author.Nickname
		media.AuthorUsername = data.Author.UniqueID
	}
	return media
}

// absolute resolves host-relative media paths against the metadata API host.
func (s *Service) absolute(ref string) string {
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil || u.IsAbs() {
		return ref
	}
	return s.endpoint.ResolveReference(u).String()
}
