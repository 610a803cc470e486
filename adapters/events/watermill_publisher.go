// Package events publishes audit notifications through Watermill.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/blockvault/blockvault/ports"
)

const (
	// TopicFileAnchored carries upload notarizations.
	TopicFileAnchored = "blockvault.file.anchored"

	// TopicShareCreated and TopicShareRevoked carry share audit events.
	TopicShareCreated = "blockvault.share.created"
	TopicShareRevoked = "blockvault.share.revoked"
)

// WatermillPublisher implements the EventPublisher interface using Watermill.
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher creates a new Watermill-backed publisher.
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{publisher: publisher}
}

func (p *WatermillPublisher) publish(topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// PublishFileAnchored publishes an upload notarization event.
func (p *WatermillPublisher) PublishFileAnchored(ctx context.Context, ev ports.FileAnchoredEvent) error {
	return p.publish(TopicFileAnchored, ev)
}

// PublishShareCreated publishes a share grant event.
func (p *WatermillPublisher) PublishShareCreated(ctx context.Context, ev ports.ShareEvent) error {
	return p.publish(TopicShareCreated, ev)
}

// PublishShareRevoked publishes a share revocation event.
func (p *WatermillPublisher) PublishShareRevoked(ctx context.Context, ev ports.ShareEvent) error {
	return p.publish(TopicShareRevoked, ev)
}

// NopPublisher drops all events; used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishFileAnchored(ctx context.Context, ev ports.FileAnchoredEvent) error {
	return nil
}

func (NopPublisher) PublishShareCreated(ctx context.Context, ev ports.ShareEvent) error { return nil }

func (NopPublisher) PublishShareRevoked(ctx context.Context, ev ports.ShareEvent) error { return nil }
