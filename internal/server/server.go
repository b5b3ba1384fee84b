// Package server exposes the planning application over HTTP.
package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"tandem-recipes/internal/app"
	"tandem-recipes/internal/location"
	"tandem-recipes/internal/planner"
)

// Service is the application surface the handlers call. It is satisfied by
// *app.App.
type Service interface {
	Plan(ctx context.Context, req planner.Request) (*planner.Response, error)
	SKUStatus(ctx context.Context) (*app.SKUStatusReport, error)
	IngestRecipeText(ctx context.Context, sourceFile, text string) (*app.IngestReport, error)
	RefreshPrices(ctx context.Context, postalCode string) (int, error)
	Clear(ctx context.Context) error
}

// Server is the HTTP front of the application.
type Server struct {
	service  Service
	resolver *location.Resolver
	logger   *zap.Logger
	router   chi.Router
}

// New creates a server with all routes mounted. adminSecret guards the
// destructive endpoints.
func New(service Service, resolver *location.Resolver, logger *zap.Logger, adminSecret string) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		service:  service,
		resolver: resolver,
		logger:   logger,
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(requestLogger(logger))

	r.Route("/api", func(r chi.Router) {
		r.Post("/plan", s.handlePlan)
		r.Get("/sku-status", s.handleSKUStatus)
		r.Post("/recipes", s.handleUploadRecipes)
		r.Post("/refresh-prices", s.handleRefreshPrices)
		r.Get("/location", s.handleLocation)

		r.Group(func(r chi.Router) {
			r.Use(adminOnly(adminSecret))
			r.Post("/clear", s.handleClear)
		})
	})

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
