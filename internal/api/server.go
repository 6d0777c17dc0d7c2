// SPDX-License-Identifier: MIT

// Package api provides the HTTP server for the meme service.
package api

import (
	"fmt"
	"html/template"
	"net/http"

	"github.com/ManuGH/memed/internal/cache"
	"github.com/ManuGH/memed/internal/config"
	"github.com/ManuGH/memed/internal/events"
	"github.com/ManuGH/memed/internal/gallery"
	"github.com/ManuGH/memed/internal/health"
	"github.com/ManuGH/memed/internal/meme"
	"github.com/ManuGH/memed/internal/web"
)

// Server is the HTTP API server for the meme service.
type Server struct {
	cfg     config.AppConfig
	fnt     *meme.Font
	broker  *events.Broker
	share   *gallery.Share
	history *gallery.HistoryStore // nil when history is disabled
	cache   cache.Cache
	hm      *health.Manager
	tmpl    *template.Template

	// suppress mutes the shared-dir watcher for filenames this server
	// announced itself. Optional.
	suppress func(name string)
}

// Deps carries the server's collaborators.
type Deps struct {
	Font     *meme.Font
	Broker   *events.Broker
	Share    *gallery.Share
	History  *gallery.HistoryStore
	Cache    cache.Cache
	Health   *health.Manager
	Suppress func(name string)
}

// New creates the API server.
func New(cfg config.AppConfig, deps Deps) (*Server, error) {
	if deps.Font == nil {
		return nil, fmt.Errorf("api: font is required")
	}
	if deps.Broker == nil {
		return nil, fmt.Errorf("api: broker is required")
	}
	if deps.Share == nil {
		return nil, fmt.Errorf("api: share is required")
	}
	if deps.Cache == nil {
		return nil, fmt.Errorf("api: cache is required")
	}
	if deps.Health == nil {
		deps.Health = health.NewManager(cfg.Version)
	}

	tmpl, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("api: parse templates: %w", err)
	}

	return &Server{
		cfg:      cfg,
		fnt:      deps.Font,
		broker:   deps.Broker,
		share:    deps.Share,
		history:  deps.History,
		cache:    deps.Cache,
		hm:       deps.Health,
		tmpl:     tmpl,
		suppress: deps.Suppress,
	}, nil
}

// HealthManager exposes the health manager for checker registration.
func (s *Server) HealthManager() *health.Manager {
	return s.hm
}

// Handler builds the fully wired HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.routes()
}
