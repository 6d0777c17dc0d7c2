// SPDX-License-Identifier: MIT

package api

import (
	"net/http"

	"github.com/ManuGH/memed/internal/api/middleware"
	"github.com/ManuGH/memed/internal/health"
	"github.com/ManuGH/memed/internal/log"
	"github.com/ManuGH/memed/internal/web"
	"github.com/go-chi/chi/v5"
)

func (s *Server) routes() chi.Router {
	r := middleware.NewRouter(middleware.StackConfig{
		EnableCORS:     true,
		AllowedOrigins: s.cfg.AllowedOrigins,

		EnableSecurityHeaders: true,
		CSP:                   middleware.DefaultCSP,

		EnableMetrics:  true,
		TracingService: "memed-api",
		EnableLogging:  true,

		EnableRateLimit:  true,
		RateLimitEnabled: s.cfg.RateLimitEnabled,
		RateLimitRPM:     s.cfg.RateLimitRPM,
	})

	r.Get("/healthz", health.NewHealthHandler(s.hm))
	r.Get("/readyz", health.NewReadyHandler(s.hm))

	r.Get("/", s.handleIndex)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RenderRateLimit())
		r.Post("/meme", s.handleMeme)
	})
	r.Get("/sse", s.handleSSE)

	r.Get("/api/images", s.handleAPIImages)
	r.Get("/api/shared", s.handleAPIShared)
	r.Get("/api/history", s.handleAPIHistory)

	r.Handle("/static/*", http.StripPrefix("/static", s.secureFileServer()))

	if assets, err := web.Assets(); err == nil {
		r.Handle("/assets/*", http.StripPrefix("/assets", http.FileServer(http.FS(assets))))
	} else {
		logger := log.WithComponent("api")
		logger.Error().Err(err).Msg("failed to mount embedded assets")
	}

	return r
}
