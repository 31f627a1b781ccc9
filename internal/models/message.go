// Package models defines the data entities shared across the pipeline.
package models

import "time"

// Message is one Telegram post as it travels through the pipeline:
// captured by the collector, written to the lake, loaded into the warehouse.
// MessageID is the natural key; re-ingesting a known id is a no-op.
type Message struct {
	MessageID    int64      `json:"message_id"`
	ChannelName  string     `json:"channel_name"`
	ChannelTitle string     `json:"channel_title"`
	MessageDate  *time.Time `json:"message_date"`
	MessageText  *string    `json:"message_text"`
	HasMedia     bool       `json:"has_media"`
	ImagePath    *string    `json:"image_path"`
	Views        int        `json:"views"`
	Forwards     int        `json:"forwards"`
}
