// Package http provides the HTTP delivery layer for the URL shortener service:
// routing, request validation and the mapping of use case errors to statuses.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/vadimbarashkov/shortlink/pkg/middleware/recoverer"
)

type routerOptions struct {
	auth     authUseCase
	verifier tokenVerifier
}

type Option func(*routerOptions)

// WithAuth mounts the login endpoint.
func WithAuth(auth authUseCase) Option {
	return func(o *routerOptions) {
		o.auth = auth
	}
}

// WithTokenVerifier identifies callers by their bearer token. Without it every
// caller is anonymous.
func WithTokenVerifier(verifier tokenVerifier) Option {
	return func(o *routerOptions) {
		o.verifier = verifier
	}
}

// NewRouter initializes and returns a new Chi router configured with middleware and routes for the URL shortener API.
func NewRouter(logger *httplog.Logger, links linkUseCase, redirects redirectUseCase, opts ...Option) *chi.Mux {
	var o routerOptions
	for _, opt := range opts {
		opt(&o)
	}

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"POST", "GET", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept", "Authorization"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(recoverer.New(logger.Logger))

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/swagger.yml"),
	))

	r.Get("/docs/swagger.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./docs/swagger.yml")
	})

	validate := newValidator()

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/ping", handlePing)

		r.Group(func(r chi.Router) {
			r.Use(requireJSON)

			r.Route("/shorten", func(r chi.Router) {
				if o.verifier != nil {
					r.Use(identify(o.verifier))
				}

				h := newLinkHandler(links, validate)

				r.Post("/", h.shorten)
				r.Get("/{shortID}/stats", h.stats)
			})

			if o.auth != nil {
				h := newAuthHandler(o.auth, validate)

				r.Post("/auth/login", h.login)
			}
		})
	})

	r.Get("/{shortID}", handleRedirect(redirects))

	return r
}
