// Package api provides HTTP handlers for the reporting REST API.
package api

import (
	"strconv"

	"github.com/go-fuego/fuego"
)

// ============================================================================
// Health
// ============================================================================

func (s *Server) healthCheck(c fuego.ContextNoBody) (HealthResponse, error) {
	return HealthResponse{
		Status:  "ok",
		Version: "dev",
	}, nil
}

// ============================================================================
// Reports Handlers
// ============================================================================

func (s *Server) getTopProducts(c fuego.ContextNoBody) (TopProductsResponse, error) {
	limit := parseIntWithDefault(c.QueryParam("limit"), 10)
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	products, err := s.deps.ReportsRepo.TopProducts(c.Context(), limit)
	if err != nil {
		return TopProductsResponse{}, fuego.InternalServerError{Detail: err.Error()}
	}

	return TopProductsResponse{
		Products: products,
		Total:    len(products),
	}, nil
}

func (s *Server) getVisualContent(c fuego.ContextNoBody) (VisualContentResponse, error) {
	stats, err := s.deps.ReportsRepo.GetVisualStats(c.Context())
	if err != nil {
		return VisualContentResponse{}, fuego.InternalServerError{Detail: err.Error()}
	}

	return VisualContentResponse{
		Categories: stats,
		Total:      len(stats),
	}, nil
}

// ============================================================================
// Channels Handlers
// ============================================================================

func (s *Server) getChannelActivity(c fuego.ContextNoBody) (ChannelActivityResponse, error) {
	name := c.PathParam("name")
	if name == "" {
		return ChannelActivityResponse{}, fuego.BadRequestError{Detail: "Channel name is required"}
	}

	activity, err := s.deps.ReportsRepo.GetChannelActivity(c.Context(), name)
	if err != nil {
		return ChannelActivityResponse{}, fuego.InternalServerError{Detail: err.Error()}
	}
	if len(activity) == 0 {
		return ChannelActivityResponse{}, fuego.NotFoundError{Detail: "Channel not found or no activity recorded"}
	}

	return ChannelActivityResponse{
		Channel:  name,
		Activity: activity,
		Total:    len(activity),
	}, nil
}

// ============================================================================
// Search Handlers
// ============================================================================

func (s *Server) searchMessages(c fuego.ContextNoBody) (SearchMessagesResponse, error) {
	query := c.QueryParam("q")
	if query == "" {
		return SearchMessagesResponse{}, fuego.BadRequestError{Detail: "q query parameter is required"}
	}

	limit := parseIntWithDefault(c.QueryParam("limit"), 20)
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	messages, err := s.deps.ReportsRepo.SearchMessages(c.Context(), query, limit)
	if err != nil {
		return SearchMessagesResponse{}, fuego.InternalServerError{Detail: err.Error()}
	}

	return SearchMessagesResponse{
		Query:    query,
		Messages: messages,
		Total:    len(messages),
	}, nil
}

// Helper to parse int with default
func parseIntWithDefault(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}
