package actions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/tenbase/tenbase/pkg/models"
	"github.com/tenbase/tenbase/pkg/persistence"
	"github.com/tenbase/tenbase/pkg/template"
	"github.com/tenbase/tenbase/pkg/workflow"
)

type sendNotificationConfig struct {
	UserID  string `json:"userId,omitempty"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Level   string `json:"level,omitempty"`
}

// SendNotificationHandler queues an in-app notification. Without an explicit
// target user the notification goes to the user who triggered the change.
type SendNotificationHandler struct {
	logger        *slog.Logger
	notifications persistence.NotificationRepository
}

func NewSendNotificationHandler(logger *slog.Logger, notifications persistence.NotificationRepository) *SendNotificationHandler {
	return &SendNotificationHandler{
		logger:        logger,
		notifications: notifications,
	}
}

func (h *SendNotificationHandler) ActionTypeKey() string {
	return "SEND_NOTIFICATION"
}

func (h *SendNotificationHandler) Execute(ctx context.Context, actionCtx workflow.ActionContext, config string) (workflow.ActionResult, error) {
	var cfg sendNotificationConfig

	err := json.Unmarshal([]byte(config), &cfg)
	if err != nil {
		return workflow.Failed(fmt.Sprintf("invalid notification config: %v", err)), nil
	}

	if strings.TrimSpace(cfg.Title) == "" {
		return workflow.Failed("Notification title is required"), nil
	}

	if strings.TrimSpace(cfg.Message) == "" {
		return workflow.Failed("Notification message is required"), nil
	}

	userID := cfg.UserID
	if userID == "" {
		userID = actionCtx.UserID
	}

	if userID == "" {
		return workflow.Failed("No target user for notification"), nil
	}

	level := strings.ToUpper(cfg.Level)

	switch level {
	case "INFO", "WARNING", "ERROR":
	default:
		level = "INFO"
	}

	scope := template.RecordData(actionCtx.TenantID, actionCtx.UserID, actionCtx.RecordID, actionCtx.RecordData, actionCtx.PreviousData)

	entry := &models.Notification{
		ID:       uuid.New().String(),
		TenantID: actionCtx.TenantID,
		UserID:   userID,
		Title:    renderOrRaw(cfg.Title, scope),
		Message:  renderOrRaw(cfg.Message, scope),
		Level:    level,
		Status:   models.StatusQueued,
	}

	err = h.notifications.SaveNotification(ctx, entry)
	if err != nil {
		return workflow.Failed(fmt.Sprintf("failed to queue notification: %v", err)), nil
	}

	h.logger.InfoContext(ctx, "Notification queued",
		"notification_id", entry.ID, "user_id", userID, "level", level)

	return workflow.Successful(map[string]any{
		"notificationId": entry.ID,
		"userId":         userID,
		"level":          level,
	}), nil
}

func (h *SendNotificationHandler) Validate(config string) error {
	var cfg sendNotificationConfig

	err := json.Unmarshal([]byte(config), &cfg)
	if err != nil {
		return fmt.Errorf("invalid config JSON: %w", err)
	}

	if cfg.Title == "" {
		return errors.New("config must contain 'title'")
	}

	if cfg.Message == "" {
		return errors.New("config must contain 'message'")
	}

	return nil
}
