package eventbus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tenbase/tenbase/pkg/models"
)

// WatermillEventBus implements EventBus on any watermill publisher and
// subscriber pair (Kafka in production, GoChannel in tests).
type WatermillEventBus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
}

func NewWatermillEventBus(pub message.Publisher, sub message.Subscriber) *WatermillEventBus {
	return &WatermillEventBus{
		publisher:  pub,
		subscriber: sub,
	}
}

func (eb *WatermillEventBus) GenerateID() string {
	return watermill.NewULID()
}

func (eb *WatermillEventBus) PublishRecordChange(ctx context.Context, key string, event *models.RecordChangeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal record change event: %w", err)
	}

	msg := message.NewMessage("msg-"+eb.GenerateID(), payload)
	msg.Metadata.Set(MetadataKey, key)
	msg.Metadata.Set(MetadataEventType, string(event.ChangeType))
	msg.SetContext(ctx)

	return eb.publisher.Publish(RecordChangeTopic, msg)
}

func (eb *WatermillEventBus) PublishCustom(ctx context.Context, topic, key, eventType string, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	msg := message.NewMessage("msg-"+eb.GenerateID(), body)
	msg.Metadata.Set(MetadataKey, key)
	msg.Metadata.Set(MetadataEventType, eventType)
	msg.SetContext(ctx)

	return eb.publisher.Publish(topic, msg)
}

// SubscribeRecordChanges consumes the record-change topic and dispatches each
// event to the handler. Malformed payloads are nacked.
func (eb *WatermillEventBus) SubscribeRecordChanges(ctx context.Context, handler EventHandler) error {
	messages, err := eb.subscriber.Subscribe(ctx, RecordChangeTopic)
	if err != nil {
		return fmt.Errorf("failed to subscribe to record changes: %w", err)
	}

	go func() {
		for msg := range messages {
			var event models.RecordChangeEvent

			err := json.Unmarshal(msg.Payload, &event)
			if err != nil {
				msg.Nack()

				continue
			}

			err = handler(ctx, &event)
			if err != nil {
				msg.Nack()

				continue
			}

			msg.Ack()
		}
	}()

	return nil
}

func (eb *WatermillEventBus) Close() error {
	err := eb.publisher.Close()
	if err != nil {
		return err
	}

	return eb.subscriber.Close()
}
