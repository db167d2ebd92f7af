package server

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
)

func addRoutes(r chi.Router, logger *slog.Logger, deps Deps) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", handleSwaggerUI())

	r.Get("/api/catalogs", handleListCatalogs(deps.Catalogs))
	r.Get("/api/catalogs/{name}", handleGetCatalog(deps.Catalogs))

	// Admin catalog management: HTTP basic auth against a bcrypt hash.
	r.Route("/api/admin/catalogs", func(r chi.Router) {
		r.Use(adminAuthMiddleware(deps.Admin))
		r.Put("/{name}", handlePutCatalog(logger, deps.Catalogs))
		r.Delete("/{name}", handleDeleteCatalog(deps.Catalogs))
	})

	r.Post("/api/sessions", handleCreateSession(logger, deps.Catalogs, deps.Sessions))

	// Session routes: {sessionID} resolved by sessionMiddleware.
	r.Route("/api/sessions/{sessionID}", func(r chi.Router) {
		r.Use(sessionMiddleware(deps.Sessions))
		r.Get("/", handleGetSession())
		r.Delete("/", handleEndSession())
		r.Post("/position", handlePosition())
		r.Post("/answer", handleAnswer())
		r.Post("/dismiss", handleDismiss())
		r.Get("/objects/{objectID}", handleObjectInfo())
		r.Get("/events", handleEvents(logger, deps.Publisher))
		r.Get("/ws", handleSessionWS(logger, deps.Publisher))
	})

	if deps.SPADir != "" {
		if info, err := os.Stat(deps.SPADir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", deps.SPADir)
			r.NotFound(handleSPA(deps.SPADir))
		}
	}
}
