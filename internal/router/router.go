package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/itchan-dev/postsweb/internal/metrics"
	mw "github.com/itchan-dev/postsweb/internal/middleware"
	"github.com/itchan-dev/postsweb/internal/setup"
	"github.com/itchan-dev/postsweb/internal/surface"
)

// New creates the chi router with all routes.
// Mutation POSTs share one bucket per session and a larger one per address.
func New(deps *setup.Dependencies) *chi.Mux {
	r := chi.NewRouter()
	h := deps.Handler

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(mw.PageHeaders{HTTPS: deps.Public.SecureCookies, CSP: mw.DefaultCSP}.Handler)

	r.NotFound(h.NotFoundHandler)

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())
	r.With(chimw.Compress(5)).Handle("/static/*",
		http.StripPrefix("/static/", http.FileServer(http.FS(deps.Static))))

	r.Group(func(r chi.Router) {
		r.Use(chimw.Compress(5))
		r.Use(deps.Sessions.Middleware)
		r.Use(mw.ClientHints(surface.ClientHint))
		r.Use(deps.Classifier.Middleware)
		r.Use(mw.GenerateCSRFToken(mw.CSRFConfig{SecureCookies: deps.Public.SecureCookies}))
		r.Use(mw.ValidateCSRFToken())

		mutation := r.With(
			mw.RateLimit(deps.Limiter, mw.GetSessionID),
			mw.RateLimit(deps.IPLimiter, mw.GetIP),
		)

		r.Get("/", h.IndexGetHandler)

		r.Get("/posts/new", h.NewPostGetHandler)
		mutation.Post("/posts/new", h.NewPostPostHandler)

		r.Get("/posts/{id}", h.PostGetHandler)
		r.Get("/posts/{id}/edit", h.EditPostGetHandler)
		mutation.Post("/posts/{id}/edit", h.EditPostPostHandler)
		r.Get("/posts/{id}/delete", h.DeleteGetHandler)
		mutation.Post("/posts/{id}/delete", h.DeletePostHandler)

		r.Post("/forms/{form}/cancel", h.FormCancelHandler)
		r.Post("/notifications/{id}/dismiss", h.DismissNotificationHandler)

		r.Route("/api", func(r chi.Router) {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins:   deps.Public.Server.CORSOrigins,
				AllowedMethods:   []string{"GET", "OPTIONS"},
				AllowedHeaders:   []string{"Accept", "Content-Type"},
				AllowCredentials: true,
				MaxAge:           300,
			}))
			r.Get("/notifications/current", h.CurrentNotificationHandler)
		})
	})

	return r
}
