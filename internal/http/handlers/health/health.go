package health

import (
	"net/http"

	"github.com/princekumarofficial/tiktok-downloader/internal/utils/response"
)

// Health reports that the process is up
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} response.Response
// @Router /healthz [get]
func Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusOK, response.RequestOK("ok", nil))
	}
}
