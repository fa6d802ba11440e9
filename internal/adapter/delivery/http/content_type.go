package http

import (
	"mime"
	"net/http"

	"github.com/go-chi/render"
	"github.com/vadimbarashkov/shortlink/pkg/response"
)

// requireJSON rejects request bodies declared as anything other than JSON.
// A body without Content-Type is decoded as JSON.
func requireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "" {
			mediaType, _, err := mime.ParseMediaType(ct)
			if err != nil || mediaType != "application/json" {
				render.Status(r, http.StatusUnsupportedMediaType)
				render.JSON(w, r, response.UnsupportedMediaType)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}
