package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-fuego/fuego"
	"github.com/go-fuego/fuego/option"
)

// Server represents the Fuego API server.
type Server struct {
	fuego *fuego.Server
	deps  *Dependencies
	port  int
}

// Dependencies contains all service dependencies.
type Dependencies struct {
	ReportsRepo ReportsRepository
}

// Config holds API server configuration.
type Config struct {
	Port        int
	Title       string
	Description string
	Version     string
}

// NewServer creates a new Fuego API server.
func NewServer(cfg *Config, deps *Dependencies) *Server {
	s := fuego.NewServer(
		fuego.WithAddr(fmt.Sprintf(":%d", cfg.Port)),
		fuego.WithEngineOptions(
			fuego.WithOpenAPIConfig(fuego.OpenAPIConfig{
				PrettyFormatJSON: true,
				JSONFilePath:     "openapi.json",
				SwaggerURL:       "/docs",
				SpecURL:          "/openapi.json",
				UIHandler: func(specURL string) http.Handler {
					return ScalarHandler(specURL, cfg.Title, cfg.Description)
				},
			}),
		),
	)

	// Set OpenAPI info
	s.OpenAPI.Description().Info.Title = cfg.Title
	s.OpenAPI.Description().Info.Description = cfg.Description
	s.OpenAPI.Description().Info.Version = cfg.Version

	// Add Chi middleware (Fuego is net/http compatible)
	fuego.Use(s, middleware.RequestID)
	fuego.Use(s, middleware.RealIP)
	fuego.Use(s, middleware.Logger)
	fuego.Use(s, middleware.Recoverer)

	// basic cors
	fuego.Use(s, cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	srv := &Server{
		fuego: s,
		deps:  deps,
		port:  cfg.Port,
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) registerRoutes() {
	// Health check
	fuego.Get(s.fuego, "/health", s.healthCheck,
		option.Summary("Health Check"),
		option.Description("Returns the health status of the API"),
		option.Tags("System"),
	)

	// Reports API
	reportsGroup := fuego.Group(s.fuego, "/api/v1/reports",
		option.Tags("Reports"),
	)

	fuego.Get(reportsGroup, "/top-products", s.getTopProducts,
		option.Summary("Top Products"),
		option.Description("Returns the most frequently mentioned terms/products"),
		option.Query("limit", "Maximum number of products to return (default: 10, max: 100)"),
	)

	fuego.Get(reportsGroup, "/visual-content", s.getVisualContent,
		option.Summary("Visual Content Report"),
		option.Description("Returns per-category image detection counts and average confidence"),
	)

	// Channels API
	fuego.Get(s.fuego, "/api/v1/channels/{name}/activity", s.getChannelActivity,
		option.Summary("Channel Activity"),
		option.Description("Returns daily posting activity for a specific channel"),
		option.Tags("Channels"),
	)

	// Search API
	fuego.Get(s.fuego, "/api/v1/search/messages", s.searchMessages,
		option.Summary("Search Messages"),
		option.Description("Searches for messages containing a specific keyword"),
		option.Tags("Search"),
		option.Query("q", "Keyword to search for (required)"),
		option.Query("limit", "Maximum number of results (default: 20, max: 100)"),
	)
}

// Start starts the API server.
func (s *Server) Start() error {
	return s.fuego.Run()
}

// Mux returns the underlying ServeMux for mounting additional routes.
func (s *Server) Mux() *http.ServeMux {
	return s.fuego.Mux
}
