package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/visual-search/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	// Create handlers
	productsHandler := handlers.NewProductsHandler(s.config, s.service, s.logger)
	searchHandler := handlers.NewSearchHandler(s.config, s.service, s.logger)
	configHandler := handlers.NewConfigHandler(s.config)

	// Health check
	s.router.Get("/api/health", handlers.HealthCheck)

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		// Search
		r.Post("/products/find-similar", searchHandler.FindSimilar)

		// Products
		r.Post("/upload-product", productsHandler.Upload)
		r.Get("/products", productsHandler.List)
		r.Get("/product/{id}", productsHandler.Get)
		r.Delete("/product/{id}", productsHandler.Delete)
		r.Get("/categories", productsHandler.Categories)

		// Config
		r.Get("/config", configHandler.Get)
	})
}
