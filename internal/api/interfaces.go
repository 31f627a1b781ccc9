package api

import (
	"context"

	"github.com/medwatch/telegram-warehouse/internal/repository"
)

// ReportsRepository defines the interface for report data access.
type ReportsRepository interface {
	TopProducts(ctx context.Context, limit int) ([]repository.ProductMention, error)
	GetChannelActivity(ctx context.Context, channel string) ([]repository.ChannelActivity, error)
	SearchMessages(ctx context.Context, keyword string, limit int) ([]repository.MessageResult, error)
	GetVisualStats(ctx context.Context) ([]repository.VisualStat, error)
}
