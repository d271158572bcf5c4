package actions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tenbase/tenbase/pkg/eventbus"
	"github.com/tenbase/tenbase/pkg/workflow"
)

type publishEventConfig struct {
	Topic     string         `json:"topic"`
	EventType string         `json:"eventType,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// PublishEventHandler emits a custom event on the bus so external consumers
// can react to workflow activity.
type PublishEventHandler struct {
	logger    *slog.Logger
	publisher eventbus.EventPublisher
}

func NewPublishEventHandler(logger *slog.Logger, publisher eventbus.EventPublisher) *PublishEventHandler {
	return &PublishEventHandler{
		logger:    logger,
		publisher: publisher,
	}
}

func (h *PublishEventHandler) ActionTypeKey() string {
	return "PUBLISH_EVENT"
}

func (h *PublishEventHandler) Execute(ctx context.Context, actionCtx workflow.ActionContext, config string) (workflow.ActionResult, error) {
	var cfg publishEventConfig

	err := json.Unmarshal([]byte(config), &cfg)
	if err != nil {
		return workflow.Failed(fmt.Sprintf("invalid publish event config: %v", err)), nil
	}

	if strings.TrimSpace(cfg.Topic) == "" {
		return workflow.Failed("Event topic is required"), nil
	}

	eventType := cfg.EventType
	if eventType == "" {
		eventType = "workflow.custom.event"
	}

	payload := map[string]any{
		"tenantId":       actionCtx.TenantID,
		"collectionId":   actionCtx.CollectionID,
		"collectionName": actionCtx.CollectionName,
		"recordId":       actionCtx.RecordID,
		"workflowRuleId": actionCtx.WorkflowRuleID,
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
		"data":           cfg.Data,
		"recordData":     actionCtx.RecordData,
	}

	key := actionCtx.TenantID + ":" + actionCtx.CollectionID

	err = h.publisher.PublishCustom(ctx, cfg.Topic, key, eventType, payload)
	if err != nil {
		return workflow.Failed(fmt.Sprintf("Failed to publish event: %v", err)), nil
	}

	h.logger.InfoContext(ctx, "Custom event published",
		"topic", cfg.Topic, "event_type", eventType,
		"workflow_rule_id", actionCtx.WorkflowRuleID)

	return workflow.Successful(map[string]any{
		"topic":     cfg.Topic,
		"eventType": eventType,
	}), nil
}

func (h *PublishEventHandler) Validate(config string) error {
	var cfg publishEventConfig

	err := json.Unmarshal([]byte(config), &cfg)
	if err != nil {
		return fmt.Errorf("invalid config JSON: %w", err)
	}

	if strings.TrimSpace(cfg.Topic) == "" {
		return errors.New("config must contain 'topic'")
	}

	return nil
}
