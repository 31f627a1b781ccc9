package api

import (
	"github.com/medwatch/telegram-warehouse/internal/repository"
)

// HealthResponse is the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// TopProductsResponse wraps the top products report.
type TopProductsResponse struct {
	Products []repository.ProductMention `json:"products"`
	Total    int                         `json:"total"`
}

// ChannelActivityResponse wraps the activity report for one channel.
type ChannelActivityResponse struct {
	Channel  string                       `json:"channel"`
	Activity []repository.ChannelActivity `json:"activity"`
	Total    int                          `json:"total"`
}

// SearchMessagesResponse wraps keyword search results.
type SearchMessagesResponse struct {
	Query    string                     `json:"query"`
	Messages []repository.MessageResult `json:"messages"`
	Total    int                        `json:"total"`
}

// VisualContentResponse wraps per-category image detection statistics.
type VisualContentResponse struct {
	Categories []repository.VisualStat `json:"categories"`
	Total      int                     `json:"total"`
}
