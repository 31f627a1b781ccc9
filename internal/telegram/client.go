// Package telegram provides Telegram MTProto client wrapper.
package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gotd/td/telegram/downloader"
	"github.com/gotd/td/tg"

	"github.com/medwatch/telegram-warehouse/internal/logger"
)

// Client wraps gotgproto and provides the high-level operations the
// collector needs: resolve a channel, page its history, download photos.
// All API calls go through a FLOOD_WAIT-aware rate limiter.
type Client struct {
	manager     *Manager
	rateLimiter *RateLimiter
	log         *logger.Logger
}

// NewClient creates a new telegram client wrapper using the Manager.
func NewClient(manager *Manager) *Client {
	return &Client{
		manager:     manager,
		rateLimiter: DefaultRateLimiter(),
		log:         logger.Get(),
	}
}

// Close stops the client via the manager.
func (c *Client) Close() {
	if c.manager != nil {
		c.manager.Stop()
	}
}

// GetStatus returns the current status of the telegram client.
func (c *Client) GetStatus() Status {
	return c.manager.GetStatus()
}

// API returns the raw tg.Client for direct API calls.
func (c *Client) API() (*tg.Client, error) {
	proto := c.manager.GetClient()
	if proto == nil {
		return nil, fmt.Errorf("telegram client not authorized")
	}
	return proto.API(), nil
}

// ResolveChannel resolves channel username to Channel info.
// username can be with or without @ prefix.
func (c *Client) ResolveChannel(ctx context.Context, username string) (*Channel, error) {
	username = strings.TrimPrefix(username, "@")

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	c.log.Debug().Str("username", username).Msg("telegram: resolving channel username")
	api, err := c.API()
	if err != nil {
		return nil, err
	}

	resolved, err := api.ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{
		Username: username,
	})
	if err != nil {
		if wait := c.checkFloodWait(err); wait > 0 {
			c.log.Warn().Int("wait_seconds", wait).Msg("telegram: FLOOD_WAIT detected, updating rate limiter")
			c.rateLimiter.SetFloodWait(wait)
		}
		return nil, fmt.Errorf("resolve username %s: %w", username, err)
	}

	if len(resolved.Chats) == 0 {
		return nil, fmt.Errorf("channel not found: %s", username)
	}

	ch, ok := resolved.Chats[0].(*tg.Channel)
	if !ok {
		return nil, fmt.Errorf("not a channel: %s", username)
	}

	return &Channel{
		ID:         ch.ID,
		AccessHash: ch.AccessHash,
		Username:   username,
		Title:      ch.Title,
	}, nil
}

// GetMessages fetches messages from a channel.
// offsetID: start from this message id (0 = newest messages)
// limit: max number of messages to fetch (max 100 per api call)
func (c *Client) GetMessages(ctx context.Context, channel *Channel, offsetID int, limit int) ([]Message, error) {
	if limit > 100 {
		limit = 100 // telegram api limit
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	c.log.Debug().Int64("channel_id", channel.ID).Int("offset_id", offsetID).Int("limit", limit).Msg("telegram: fetching history")
	api, err := c.API()
	if err != nil {
		return nil, err
	}

	history, err := api.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
		Peer: &tg.InputPeerChannel{
			ChannelID:  channel.ID,
			AccessHash: channel.AccessHash,
		},
		OffsetID: offsetID,
		Limit:    limit,
	})
	if err != nil {
		if wait := c.checkFloodWait(err); wait > 0 {
			c.log.Warn().Int("wait_seconds", wait).Msg("telegram: FLOOD_WAIT detected in GetMessages, updating rate limiter")
			c.rateLimiter.SetFloodWait(wait)
		}
		return nil, fmt.Errorf("get history: %w", err)
	}

	return c.extractMessages(history, channel)
}

// DownloadPhoto downloads a message photo to destPath.
func (c *Client) DownloadPhoto(ctx context.Context, photo *Photo, destPath string) error {
	if photo == nil {
		return fmt.Errorf("no photo to download")
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return err
	}

	api, err := c.API()
	if err != nil {
		return err
	}

	loc := &tg.InputPhotoFileLocation{
		ID:            photo.ID,
		AccessHash:    photo.AccessHash,
		FileReference: photo.FileReference,
		ThumbSize:     photo.ThumbSize,
	}

	if _, err := downloader.NewDownloader().Download(api, loc).ToPath(ctx, destPath); err != nil {
		if wait := c.checkFloodWait(err); wait > 0 {
			c.rateLimiter.SetFloodWait(wait)
		}
		return fmt.Errorf("download photo %d: %w", photo.ID, err)
	}

	return nil
}

// extractMessages converts history response into our Message type
func (c *Client) extractMessages(history tg.MessagesMessagesClass, channel *Channel) ([]Message, error) {
	var rawMessages []tg.MessageClass

	switch h := history.(type) {
	case *tg.MessagesChannelMessages:
		rawMessages = h.Messages
	case *tg.MessagesMessages:
		rawMessages = h.Messages
	case *tg.MessagesMessagesSlice:
		rawMessages = h.Messages
	default:
		return nil, fmt.Errorf("unexpected history type: %T", history)
	}

	messages := make([]Message, 0, len(rawMessages))
	for _, raw := range rawMessages {
		if msg := c.parseMessage(raw, channel); msg != nil {
			messages = append(messages, *msg)
		}
	}

	return messages, nil
}

// parseMessage converts one raw api message, returning nil for service
// messages and other non-content entries.
func (c *Client) parseMessage(msg tg.MessageClass, channel *Channel) *Message {
	m, ok := msg.(*tg.Message)
	if !ok {
		return nil
	}

	return &Message{
		ID:        m.ID,
		ChannelID: channel.ID,
		Text:      m.Message,
		Date:      time.Unix(int64(m.Date), 0),
		Views:     m.Views,
		Forwards:  m.Forwards,
		Photo:     extractPhoto(m),
	}
}

// extractPhoto pulls a downloadable photo reference out of message media.
func extractPhoto(m *tg.Message) *Photo {
	media, ok := m.Media.(*tg.MessageMediaPhoto)
	if !ok {
		return nil
	}

	photo, ok := media.Photo.(*tg.Photo)
	if !ok {
		return nil
	}

	// the largest size is listed last
	thumb := ""
	for _, size := range photo.Sizes {
		switch s := size.(type) {
		case *tg.PhotoSize:
			thumb = s.Type
		case *tg.PhotoSizeProgressive:
			thumb = s.Type
		}
	}
	if thumb == "" {
		return nil
	}

	return &Photo{
		ID:            photo.ID,
		AccessHash:    photo.AccessHash,
		FileReference: photo.FileReference,
		ThumbSize:     thumb,
	}
}

// checkFloodWait checks if error is a FLOOD_WAIT error and returns wait seconds
func (c *Client) checkFloodWait(err error) int {
	if err == nil {
		return 0
	}

	// matching the error string avoids deep coupling to the gotd error types
	str := err.Error()
	if strings.Contains(str, "FLOOD_WAIT_") {
		var seconds int
		parts := strings.Split(str, "FLOOD_WAIT_")
		if len(parts) > 1 {
			numStr := strings.TrimSpace(parts[1])
			_, _ = fmt.Sscanf(numStr, "%d", &seconds)
			return seconds
		}
	}
	return 0
}
