package actions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tenbase/tenbase/pkg/models"
	"github.com/tenbase/tenbase/pkg/persistence"
	"github.com/tenbase/tenbase/pkg/services"
	"github.com/tenbase/tenbase/pkg/workflow"
)

type invokeScriptConfig struct {
	ScriptID string `json:"scriptId"`
}

// InvokeScriptHandler queues a server-side script for execution. The script
// runtime picks up queued execution logs out of band; the workflow only
// records the request.
type InvokeScriptHandler struct {
	logger     *slog.Logger
	scripts    services.ScriptService
	scriptLogs persistence.ScriptLogRepository
}

func NewInvokeScriptHandler(logger *slog.Logger, scripts services.ScriptService, scriptLogs persistence.ScriptLogRepository) *InvokeScriptHandler {
	return &InvokeScriptHandler{
		logger:     logger,
		scripts:    scripts,
		scriptLogs: scriptLogs,
	}
}

func (h *InvokeScriptHandler) ActionTypeKey() string {
	return "INVOKE_SCRIPT"
}

func (h *InvokeScriptHandler) Execute(ctx context.Context, actionCtx workflow.ActionContext, config string) (workflow.ActionResult, error) {
	var cfg invokeScriptConfig

	err := json.Unmarshal([]byte(config), &cfg)
	if err != nil {
		return workflow.Failed(fmt.Sprintf("invalid invoke script config: %v", err)), nil
	}

	if cfg.ScriptID == "" {
		return workflow.Failed("Script ID is required"), nil
	}

	script, err := h.scripts.FindScript(ctx, actionCtx.TenantID, cfg.ScriptID)
	if err != nil {
		return workflow.Failed("Script not found: " + cfg.ScriptID), nil
	}

	if !script.Active {
		return workflow.Failed("Script is inactive: " + script.Name), nil
	}

	executionLog := &models.ScriptExecutionLog{
		ID:          uuid.New().String(),
		TenantID:    actionCtx.TenantID,
		ScriptID:    script.ID,
		Status:      models.StatusQueued,
		TriggerType: "WORKFLOW",
		RecordID:    actionCtx.RecordID,
		LogOutput:   "Triggered by workflow rule: " + actionCtx.WorkflowRuleID,
	}

	err = h.scriptLogs.SaveScriptLog(ctx, executionLog)
	if err != nil {
		return workflow.Failed(fmt.Sprintf("failed to queue script execution: %v", err)), nil
	}

	h.logger.InfoContext(ctx, "Script execution queued",
		"script_id", script.ID, "script_name", script.Name,
		"workflow_rule_id", actionCtx.WorkflowRuleID)

	return workflow.Successful(map[string]any{
		"scriptId":       script.ID,
		"scriptName":     script.Name,
		"executionLogId": executionLog.ID,
		"status":         models.StatusQueued,
	}), nil
}

func (h *InvokeScriptHandler) Validate(config string) error {
	var cfg invokeScriptConfig

	err := json.Unmarshal([]byte(config), &cfg)
	if err != nil {
		return fmt.Errorf("invalid config JSON: %w", err)
	}

	if cfg.ScriptID == "" {
		return errors.New("config must contain 'scriptId'")
	}

	return nil
}
