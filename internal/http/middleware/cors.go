package middleware

import "net/http"

const (
	AllowedMethods = "POST, GET, OPTIONS"
	AllowedHeaders = "Content-Type"
)

// SetCORSHeaders writes the permissive CORS headers used on every response.
func SetCORSHeaders(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", AllowedMethods)
	h.Set("Access-Control-Allow-Headers", AllowedHeaders)
	h.Set("Access-Control-Expose-Headers", "Content-Disposition, Content-Length, "+RequestIDHeader)
}

// CORS allows the page and the API to live on different origins
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		SetCORSHeaders(w.Header())
		next.ServeHTTP(w, r)
	})
}
