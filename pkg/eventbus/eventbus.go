// Package eventbus provides the messaging layer for record-change delivery
// and workflow-published custom events.
package eventbus

import (
	"context"

	"github.com/tenbase/tenbase/pkg/models"
)

// RecordChangeTopic carries record lifecycle change events between the
// platform's data layer and the workflow engine.
const RecordChangeTopic = "tenbase.record.changes"

// Metadata keys set on published messages.
const (
	MetadataKey       = "key"
	MetadataEventType = "event_type"
)

// EventHandler processes one record change event. Returning an error nacks
// the message.
type EventHandler func(ctx context.Context, event *models.RecordChangeEvent) error

// EventPublisher publishes events produced by the workflow subsystem.
type EventPublisher interface {
	// PublishRecordChange publishes a record lifecycle event on the
	// record-change topic.
	PublishRecordChange(ctx context.Context, key string, event *models.RecordChangeEvent) error

	// PublishCustom publishes a workflow-defined event on an arbitrary
	// topic. Used by rule actions that emit integration events.
	PublishCustom(ctx context.Context, topic, key, eventType string, payload map[string]any) error
}

// EventSubscriber consumes record change events.
type EventSubscriber interface {
	SubscribeRecordChanges(ctx context.Context, handler EventHandler) error
}

// EventBus combines publishing and subscribing over one transport.
type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
	GenerateID() string
}
