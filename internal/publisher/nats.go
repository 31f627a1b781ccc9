// Package publisher emits pipeline events to NATS.
package publisher

import (
	"context"
	"fmt"

	"github.com/medwatch/telegram-warehouse/internal/pipeline"
)

// SubjectStageCompleted is the subject stage events are published to.
const SubjectStageCompleted = "pipeline.stage.completed"

// NATSClient interface to allow mocking
type NATSClient interface {
	Publish(ctx context.Context, subject string, data any) error
}

// NATSPublisher implements pipeline.EventPublisher over jetstream, so
// events land in the PIPELINE stream instead of fire-and-forget core NATS.
type NATSPublisher struct {
	conn NATSClient
}

// NewNATSPublisher creates a new publisher
func NewNATSPublisher(conn NATSClient) *NATSPublisher {
	return &NATSPublisher{conn: conn}
}

// PublishStageCompleted publishes a stage completion event.
func (p *NATSPublisher) PublishStageCompleted(ctx context.Context, event pipeline.StageEvent) error {
	if err := p.conn.Publish(ctx, SubjectStageCompleted, event); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	return nil
}
