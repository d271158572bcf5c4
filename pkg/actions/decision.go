package actions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tenbase/tenbase/pkg/formula"
	"github.com/tenbase/tenbase/pkg/workflow"
)

type branchAction struct {
	ActionType string          `json:"actionType"`
	Config     json.RawMessage `json:"config,omitempty"`
}

type decisionConfig struct {
	Condition    string         `json:"condition"`
	TrueActions  []branchAction `json:"trueActions,omitempty"`
	FalseActions []branchAction `json:"falseActions,omitempty"`
}

// DecisionHandler evaluates a boolean formula and runs one of two action
// branches against the same record context. Branch actions dispatch through
// the shared handler registry, so any registered action type can appear in a
// branch, including another decision.
type DecisionHandler struct {
	logger    *slog.Logger
	evaluator formula.Evaluator
	registry  *workflow.HandlerRegistry
}

func NewDecisionHandler(logger *slog.Logger, evaluator formula.Evaluator) *DecisionHandler {
	return &DecisionHandler{
		logger:    logger,
		evaluator: evaluator,
	}
}

// bind gives the handler access to the finished registry. Called once by
// NewRegistry after every handler is registered.
func (h *DecisionHandler) bind(registry *workflow.HandlerRegistry) {
	h.registry = registry
}

func (h *DecisionHandler) ActionTypeKey() string {
	return "DECISION"
}

func (h *DecisionHandler) Execute(ctx context.Context, actionCtx workflow.ActionContext, config string) (workflow.ActionResult, error) {
	var cfg decisionConfig

	err := json.Unmarshal([]byte(config), &cfg)
	if err != nil {
		return workflow.Failed(fmt.Sprintf("invalid decision config: %v", err)), nil
	}

	if cfg.Condition == "" {
		return workflow.Failed("Decision condition is required"), nil
	}

	conditionResult, err := h.evaluator.EvaluateBoolean(cfg.Condition, actionCtx.EvaluationScope())
	if err != nil {
		return workflow.Failed("Condition evaluation error: " + err.Error()), nil
	}

	branch := "false"
	branchActions := cfg.FalseActions

	if conditionResult {
		branch = "true"
		branchActions = cfg.TrueActions
	}

	h.logger.DebugContext(ctx, "Decision branch selected",
		"branch", branch, "actions", len(branchActions),
		"workflow_rule_id", actionCtx.WorkflowRuleID)

	actionsExecuted := 0
	actionResults := make([]map[string]any, 0, len(branchActions))
	nestedFailure := false

	for _, nested := range branchActions {
		handler, ok := h.registry.GetHandler(nested.ActionType)
		if !ok {
			h.logger.WarnContext(ctx, "No handler for branch action type",
				"action_type", nested.ActionType)
			actionResults = append(actionResults, map[string]any{
				"actionType": nested.ActionType,
				"status":     "SKIPPED",
			})

			continue
		}

		result, err := handler.Execute(ctx, actionCtx, string(nested.Config))
		if err != nil {
			result = workflow.Failed(err.Error())
		}

		// Dispatched actions count even when they fail.
		actionsExecuted++

		entry := map[string]any{
			"actionType": nested.ActionType,
			"status":     result.Status,
		}
		if result.ErrorMessage != "" {
			entry["errorMessage"] = result.ErrorMessage
		}

		actionResults = append(actionResults, entry)

		if !result.Success {
			nestedFailure = true

			h.logger.WarnContext(ctx, "Branch action failed, stopping branch",
				"action_type", nested.ActionType, "error", result.ErrorMessage)

			break
		}
	}

	outputData := map[string]any{
		"conditionResult": conditionResult,
		"branch":          branch,
		"actionsExecuted": actionsExecuted,
		"actionResults":   actionResults,
	}
	if nestedFailure {
		outputData["nestedFailure"] = true
	}

	return workflow.Successful(outputData), nil
}

func (h *DecisionHandler) Validate(config string) error {
	var cfg decisionConfig

	err := json.Unmarshal([]byte(config), &cfg)
	if err != nil {
		return fmt.Errorf("invalid config JSON: %w", err)
	}

	if cfg.Condition == "" {
		return errors.New("config must contain 'condition'")
	}

	if len(cfg.TrueActions) == 0 && len(cfg.FalseActions) == 0 {
		return errors.New("config must define at least one branch action")
	}

	for _, nested := range append(cfg.TrueActions, cfg.FalseActions...) {
		if nested.ActionType == "" {
			return errors.New("branch actions must name an actionType")
		}
	}

	return nil
}
