package actions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tenbase/tenbase/pkg/persistence"
	"github.com/tenbase/tenbase/pkg/workflow"
)

type triggerFlowConfig struct {
	WorkflowRuleID string `json:"workflowRuleId"`
}

// TriggerFlowHandler fires another workflow rule against the current record.
// Chaining depth is bounded by workflow.MaxTriggerDepth and a rule can never
// trigger itself.
type TriggerFlowHandler struct {
	logger *slog.Logger
	rules  persistence.RuleRepository
	engine RuleEvaluator
}

func NewTriggerFlowHandler(logger *slog.Logger, rules persistence.RuleRepository, engine RuleEvaluator) *TriggerFlowHandler {
	return &TriggerFlowHandler{
		logger: logger,
		rules:  rules,
		engine: engine,
	}
}

func (h *TriggerFlowHandler) ActionTypeKey() string {
	return "TRIGGER_FLOW"
}

func (h *TriggerFlowHandler) Execute(ctx context.Context, actionCtx workflow.ActionContext, config string) (workflow.ActionResult, error) {
	var cfg triggerFlowConfig

	err := json.Unmarshal([]byte(config), &cfg)
	if err != nil {
		return workflow.Failed(fmt.Sprintf("invalid trigger flow config: %v", err)), nil
	}

	if cfg.WorkflowRuleID == "" {
		return workflow.Failed("Target workflow rule ID is required"), nil
	}

	if actionCtx.Depth >= workflow.MaxTriggerDepth {
		return workflow.Failed(fmt.Sprintf("Maximum trigger depth of %d exceeded", workflow.MaxTriggerDepth)), nil
	}

	if cfg.WorkflowRuleID == actionCtx.WorkflowRuleID {
		return workflow.Failed("Cannot trigger a workflow rule from itself"), nil
	}

	target, err := h.rules.FindRuleByID(ctx, cfg.WorkflowRuleID)
	if err != nil {
		return workflow.Failed("Target workflow rule not found: " + cfg.WorkflowRuleID), nil
	}

	if !target.Active {
		return workflow.Successful(map[string]any{
			"targetRuleId": target.ID,
			"status":       "SKIPPED",
			"reason":       "Target rule is inactive",
		}), nil
	}

	nestedCtx := actionCtx
	nestedCtx.Depth = actionCtx.Depth + 1

	h.logger.InfoContext(ctx, "Triggering chained workflow rule",
		"target_rule_id", target.ID, "target_rule_name", target.Name,
		"depth", nestedCtx.Depth)

	_, err = h.engine.EvaluateRule(ctx, target, nestedCtx)
	if err != nil {
		return workflow.Failed(fmt.Sprintf("Chained rule execution failed: %v", err)), nil
	}

	return workflow.Successful(map[string]any{
		"targetRuleId":   target.ID,
		"targetRuleName": target.Name,
		"depth":          nestedCtx.Depth,
		"status":         "EXECUTED",
	}), nil
}

func (h *TriggerFlowHandler) Validate(config string) error {
	var cfg triggerFlowConfig

	err := json.Unmarshal([]byte(config), &cfg)
	if err != nil {
		return fmt.Errorf("invalid config JSON: %w", err)
	}

	if cfg.WorkflowRuleID == "" {
		return errors.New("config must contain 'workflowRuleId'")
	}

	return nil
}
