package actions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tenbase/tenbase/pkg/template"
	"github.com/tenbase/tenbase/pkg/workflow"
)

type logMessageConfig struct {
	Message string `json:"message"`
	Level   string `json:"level,omitempty"`
}

// LogMessageHandler writes a templated line to the service log. Useful while
// developing or debugging a rule.
type LogMessageHandler struct {
	logger *slog.Logger
}

func NewLogMessageHandler(logger *slog.Logger) *LogMessageHandler {
	return &LogMessageHandler{logger: logger}
}

func (h *LogMessageHandler) ActionTypeKey() string {
	return "LOG_MESSAGE"
}

func (h *LogMessageHandler) Execute(ctx context.Context, actionCtx workflow.ActionContext, config string) (workflow.ActionResult, error) {
	var cfg logMessageConfig

	err := json.Unmarshal([]byte(config), &cfg)
	if err != nil {
		return workflow.Failed(fmt.Sprintf("invalid log message config: %v", err)), nil
	}

	if cfg.Message == "" {
		return workflow.Failed("Log message is required"), nil
	}

	level := strings.ToUpper(cfg.Level)

	switch level {
	case "DEBUG", "INFO", "WARNING", "ERROR":
	default:
		level = "INFO"
	}

	scope := template.RecordData(actionCtx.TenantID, actionCtx.UserID, actionCtx.RecordID, actionCtx.RecordData, actionCtx.PreviousData)
	message := renderOrRaw(cfg.Message, scope)

	attrs := []any{
		"workflow_rule_id", actionCtx.WorkflowRuleID,
		"record_id", actionCtx.RecordID,
		"tenant_id", actionCtx.TenantID,
	}

	switch level {
	case "DEBUG":
		h.logger.DebugContext(ctx, message, attrs...)
	case "WARNING":
		h.logger.WarnContext(ctx, message, attrs...)
	case "ERROR":
		h.logger.ErrorContext(ctx, message, attrs...)
	default:
		h.logger.InfoContext(ctx, message, attrs...)
	}

	return workflow.Successful(map[string]any{
		"message": message,
		"level":   level,
	}), nil
}

func (h *LogMessageHandler) Validate(config string) error {
	var cfg logMessageConfig

	err := json.Unmarshal([]byte(config), &cfg)
	if err != nil {
		return fmt.Errorf("invalid config JSON: %w", err)
	}

	if cfg.Message == "" {
		return errors.New("config must contain 'message'")
	}

	return nil
}
