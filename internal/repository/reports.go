// Package repository provides read access to the warehouse tables.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ProductMention is a message text with its occurrence count.
type ProductMention struct {
	ProductName  string `json:"product_name"`
	MentionCount int    `json:"mention_count"`
}

// ChannelActivity is a per-day message count for one channel.
type ChannelActivity struct {
	Date         time.Time `json:"date"`
	MessageCount int       `json:"message_count"`
}

// MessageResult is a single row from a keyword search.
type MessageResult struct {
	MessageID   int64      `json:"message_id"`
	ChannelName string     `json:"channel_name"`
	MessageText *string    `json:"message_text"`
	MessageDate *time.Time `json:"message_date"`
}

// VisualStat aggregates image detections for one category.
type VisualStat struct {
	ImageCategory string  `json:"image_category"`
	TotalCount    int     `json:"total_count"`
	AvgConfidence float64 `json:"avg_confidence"`
}

// ReportsRepository provides access to analytical report data.
type ReportsRepository struct {
	pool *pgxpool.Pool
}

// NewReportsRepository creates a new ReportsRepository.
func NewReportsRepository(pool *pgxpool.Pool) *ReportsRepository {
	return &ReportsRepository{pool: pool}
}

// TopProducts returns the most frequently posted message texts.
func (r *ReportsRepository) TopProducts(ctx context.Context, limit int) ([]ProductMention, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT message_text, COUNT(*) AS mention_count
		FROM raw.telegram_messages
		WHERE message_text IS NOT NULL
		GROUP BY 1 ORDER BY 2 DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query top products: %w", err)
	}
	defer rows.Close()

	var mentions []ProductMention
	for rows.Next() {
		var m ProductMention
		if err := rows.Scan(&m.ProductName, &m.MentionCount); err != nil {
			return nil, fmt.Errorf("scan product mention: %w", err)
		}
		mentions = append(mentions, m)
	}
	return mentions, rows.Err()
}

// GetChannelActivity returns per-day posting counts for a channel, oldest first.
// An empty result means the channel has no recorded activity.
func (r *ReportsRepository) GetChannelActivity(ctx context.Context, channel string) ([]ChannelActivity, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT message_date::date AS day, COUNT(message_id) AS message_count
		FROM raw.telegram_messages
		WHERE channel_name = $1 AND message_date IS NOT NULL
		GROUP BY 1 ORDER BY 1 ASC
	`, channel)
	if err != nil {
		return nil, fmt.Errorf("query channel activity: %w", err)
	}
	defer rows.Close()

	var activity []ChannelActivity
	for rows.Next() {
		var a ChannelActivity
		if err := rows.Scan(&a.Date, &a.MessageCount); err != nil {
			return nil, fmt.Errorf("scan channel activity: %w", err)
		}
		activity = append(activity, a)
	}
	return activity, rows.Err()
}

// SearchMessages returns messages whose text contains the keyword,
// case-insensitive.
func (r *ReportsRepository) SearchMessages(ctx context.Context, keyword string, limit int) ([]MessageResult, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT message_id, channel_name, message_text, message_date
		FROM raw.telegram_messages
		WHERE message_text ILIKE $1
		ORDER BY message_date DESC NULLS LAST
		LIMIT $2
	`, likePattern(keyword), limit)
	if err != nil {
		return nil, fmt.Errorf("search messages: %w", err)
	}
	defer rows.Close()

	var results []MessageResult
	for rows.Next() {
		var m MessageResult
		if err := rows.Scan(&m.MessageID, &m.ChannelName, &m.MessageText, &m.MessageDate); err != nil {
			return nil, fmt.Errorf("scan message result: %w", err)
		}
		results = append(results, m)
	}
	return results, rows.Err()
}

// GetVisualStats returns per-category detection counts and average
// confidence rounded to 4 decimals.
func (r *ReportsRepository) GetVisualStats(ctx context.Context) ([]VisualStat, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT image_category, COUNT(*) AS total_count,
		       ROUND(AVG(confidence_score)::numeric, 4) AS avg_confidence
		FROM raw.image_detections
		GROUP BY 1 ORDER BY 1
	`)
	if err != nil {
		return nil, fmt.Errorf("query visual stats: %w", err)
	}
	defer rows.Close()

	var stats []VisualStat
	for rows.Next() {
		var s VisualStat
		if err := rows.Scan(&s.ImageCategory, &s.TotalCount, &s.AvgConfidence); err != nil {
			return nil, fmt.Errorf("scan visual stat: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// likePattern wraps a search keyword for use with ILIKE.
func likePattern(keyword string) string {
	return "%" + keyword + "%"
}
