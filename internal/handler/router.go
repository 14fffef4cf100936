package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	custommiddleware "github.com/mmeshcher/claimdesk/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(custommiddleware.Logger(h.logger))
	r.Use(custommiddleware.Recoverer(h.logger))
	if h.opts.Metrics != nil {
		r.Use(h.opts.Metrics.Middleware)
	}
	r.Use(custommiddleware.GzipMiddleware)

	authLimit := custommiddleware.RateLimit(h.opts.AuthRateLimit, h.opts.AuthRateBurst, h.logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(h.ensureStore)

		r.Get("/users/check", h.CheckUsersExist)
		r.Post("/claims", h.SubmitClaim)

		r.Group(func(r chi.Router) {
			r.Use(authLimit)

			r.Post("/admin/create", h.CreateAdmin)
			r.Post("/login", h.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)
			r.Use(h.authMiddleware.RequireAdmin)

			r.Get("/admin/session", h.AdminSession)
		})
	})

	if h.opts.Metrics != nil {
		r.Handle("/metrics", h.opts.Metrics.Handler())
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, errorResponse{Error: http.StatusText(http.StatusNotFound)})
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		render.Status(r, http.StatusMethodNotAllowed)
		render.JSON(w, r, errorResponse{Error: http.StatusText(http.StatusMethodNotAllowed)})
	})

	return r
}
