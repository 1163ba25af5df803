package server

import (
	"net/http"
	"strings"
)

// allowedMethods lists the methods each public endpoint answers.
func allowedMethods(path string) string {
	switch {
	case path == "/upload.php":
		return "POST"
	case path == "/videos.php":
		return "GET"
	case strings.HasPrefix(path, "/videos/"):
		return "GET, HEAD"
	default:
		return "GET, POST"
	}
}

// corsMiddleware lets browser pages on other origins call the receiver.
// Preflight requests are answered here and never reach the handlers.
func corsMiddleware(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", allowedMethods(r.URL.Path))
			h.Set("Access-Control-Allow-Headers", "Content-Type")
			if origin != "*" {
				h.Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
