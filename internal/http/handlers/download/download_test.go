package download

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/princekumarofficial/tiktok-downloader/internal/apperr"
	"github.com/princekumarofficial/tiktok-downloader/internal/metrics"
	"github.com/princekumarofficial/tiktok-downloader/internal/services/relay"
	downloadTypes "github.com/princekumarofficial/tiktok-downloader/internal/types/download"
)

type fakeResolver struct {
	calls []string
	media *downloadTypes.ResolvedMedia
	err   error
}

func (f *fakeResolver) Resolve(ctx context.Context, pageURL string) (*downloadTypes.ResolvedMedia, error) {
	f.calls = append(f.calls, pageURL)
	return f.media, f.err
}

type fakeRelay struct {
	calls []downloadTypes.RelayRequest
	media *relay.Media
	err   error
}

func (f *fakeRelay) Fetch(ctx context.Context, req downloadTypes.RelayRequest) (*relay.Media, error) {
	f.calls = append(f.calls, req)
	return f.media, f.err
}

func (f *fakeRelay) CacheControl() string {
	return "public, max-age=3600"
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestResolve_Success(t *testing.T) {
	resolver := &fakeResolver{media: &downloadTypes.ResolvedMedia{
		Title:          "Funny Cat",
		Thumbnail:      "http://x/thumb.jpg",
		Author:         "DemoUser",
		DownloadURL:    "http://x/wm.mp4",
		NoWatermarkURL: "http://x/nowm.mp4",
	}}
	h := NewDownloadHandlers(resolver, &fakeRelay{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/download", strings.NewReader(`{"url":" https://www.tiktok.com/@demo/video/123 "}`))
	w := httptest.NewRecorder()
	h.Resolve().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"https://www.tiktok.com/@demo/video/123"}, resolver.calls)

	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Video fetched successfully", body["message"])
	assert.Equal(t, map[string]interface{}{
		"title":          "Funny Cat",
		"thumbnail":      "http://x/thumb.jpg",
		"author":         "DemoUser",
		"downloadUrl":    "http://x/wm.mp4",
		"noWatermarkUrl": "http://x/nowm.mp4",
	}, body["data"])
}

func TestResolve_InvalidInput(t *testing.T) {
	cases := map[string]struct {
		body    string
		message string
	}{
		"empty body":   {"", "request body cannot be empty"},
		"broken json":  {"{", "invalid request body"},
		"missing url":  {`{}`, "url is required"},
		"not a url":    {`{"url":"not-a-url"}`, "invalid TikTok URL"},
		"other host":   {`{"url":"https://youtube.com/watch?v=1"}`, "invalid TikTok URL"},
		"wrong type":   {`{"url": 5}`, "invalid request body"},
		"blank string": {`{"url":"   "}`, "url is required"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			resolver := &fakeResolver{}
			h := NewDownloadHandlers(resolver, &fakeRelay{}, nil)

			w := httptest.NewRecorder()
			h.Resolve().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/download", strings.NewReader(tc.body)))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tc.message, decode(t, w)["error"])
			assert.Empty(t, resolver.calls)
		})
	}
}

func TestResolve_ServiceErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{apperr.UpstreamFailure("failed to fetch video information", 0, nil), http.StatusInternalServerError},
		{apperr.UpstreamTimeout("metadata service timed out", nil), http.StatusInternalServerError},
		{apperr.Internal("failed to reach metadata service", nil), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(string(apperr.KindOf(tc.err)), func(t *testing.T) {
			reg := prometheus.NewRegistry()
			m := metrics.New(reg)
			h := NewDownloadHandlers(&fakeResolver{err: tc.err}, &fakeRelay{}, m)

			w := httptest.NewRecorder()
			h.Resolve().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/download",
				strings.NewReader(`{"url":"https://vm.tiktok.com/ZM1/"}`)))

			assert.Equal(t, tc.status, w.Code)
			body := decode(t, w)
			assert.Equal(t, apperr.From(tc.err).Message, body["error"])
			assert.NotContains(t, body, "data")
			assert.NotContains(t, body, "success")

			count, err := testutil.GatherAndCount(reg, "tiktok_downloader_requests_total")
			require.NoError(t, err)
			assert.Equal(t, 1, count)
		})
	}
}

func TestRelay_Success(t *testing.T) {
	payload := []byte("0123456789")
	rl := &fakeRelay{media: &relay.Media{Filename: "Funny Cat.mp4", Body: payload}}
	h := NewDownloadHandlers(&fakeResolver{}, rl, nil)

	w := httptest.NewRecorder()
	h.Relay().ServeHTTP(w, httptest.NewRequest(http.MethodGet,
		"/download?url=http%3A%2F%2Fx%2Fnowm.mp4&filename=Funny%20Cat.mp4", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "video/mp4", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="Funny Cat.mp4"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "10", w.Header().Get("Content-Length"))
	assert.Equal(t, "public, max-age=3600", w.Header().Get("Cache-Control"))
	assert.Equal(t, payload, w.Body.Bytes())

	require.Len(t, rl.calls, 1)
	assert.Equal(t, downloadTypes.RelayRequest{VideoURL: "http://x/nowm.mp4", Filename: "Funny Cat.mp4"}, rl.calls[0])
}

func TestRelay_MissingURL(t *testing.T) {
	rl := &fakeRelay{}
	h := NewDownloadHandlers(&fakeResolver{}, rl, nil)

	for _, target := range []string{"/download", "/download?filename=a.mp4", "/download?url="} {
		w := httptest.NewRecorder()
		h.Relay().ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))

		assert.Equal(t, http.StatusBadRequest, w.Code, target)
		assert.Equal(t, "url is required", decode(t, w)["error"], target)
	}
	assert.Empty(t, rl.calls)
}

func TestRelay_MalformedURL(t *testing.T) {
	rl := &fakeRelay{}
	h := NewDownloadHandlers(&fakeResolver{}, rl, nil)

	w := httptest.NewRecorder()
	h.Relay().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/download?url=not-a-url", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid video url", decode(t, w)["error"])
	assert.Empty(t, rl.calls)
}

func TestRelay_UpstreamFailure(t *testing.T) {
	rl := &fakeRelay{err: apperr.UpstreamFailure("failed to download video", http.StatusForbidden, nil)}
	h := NewDownloadHandlers(&fakeResolver{}, rl, nil)

	w := httptest.NewRecorder()
	h.Relay().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/download?url=http%3A%2F%2Fx%2Fv.mp4", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	body := decode(t, w)
	assert.Equal(t, "failed to download video", body["error"])
	assert.Equal(t, "upstream status 403", body["details"])
}

func TestRelay_HeadIsRejected(t *testing.T) {
	rl := &fakeRelay{media: &relay.Media{Filename: "a.mp4", Body: []byte("x")}}
	h := NewDownloadHandlers(&fakeResolver{}, rl, nil)

	w := httptest.NewRecorder()
	h.Relay().ServeHTTP(w, httptest.NewRequest(http.MethodHead, "/download?url=http%3A%2F%2Fx%2Fv.mp4", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "POST, GET, OPTIONS", w.Header().Get("Allow"))
	assert.Empty(t, rl.calls)
}

func TestPreflight(t *testing.T) {
	h := NewDownloadHandlers(&fakeResolver{}, &fakeRelay{}, nil)

	w := httptest.NewRecorder()
	h.Preflight().ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/download", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.Bytes())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "POST, GET, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type", w.Header().Get("Access-Control-Allow-Headers"))
}
