package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/pinpoint/internal/presenter"
	"github.com/starford/pinpoint/internal/storage"
)

// RouterConfig collects what NewRouter mounts.
type RouterConfig struct {
	AuthEnabled bool
	Token       string
	// Events, if non-nil, is mounted at GET /events inside the auth group.
	Events http.Handler
	// Notify, if non-nil, is told about canvas changes.
	Notify Notifier
}

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(svc *presenter.Service, store storage.Provider, cfg RouterConfig) chi.Router {
	h := NewHandler(svc, cfg.Notify)
	ah := NewAssetHandler(store)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(cfg.AuthEnabled, cfg.Token))

	// Loaded deck.
	r.Get("/deck", h.GetDeck)
	r.Get("/deck/source", h.GetSource)
	r.Get("/slides/{n}", h.GetSlide)
	r.Get("/slides/{n}/command", h.GetCommand)
	r.Put("/canvas", h.PutCanvas)

	// Stateless tools.
	r.Post("/parse", h.Parse)
	r.Post("/resolve", h.Resolve)
	r.Post("/markup", h.Markup)

	// Background images.
	r.Get("/assets", ah.List)
	r.Post("/assets", ah.Upload)
	r.Get("/assets/*", ah.ServeFile)

	if cfg.Events != nil {
		r.Get("/events", cfg.Events.ServeHTTP)
	}

	return r
}
