// Package workflow implements record-lifecycle rule evaluation: the handler
// registry, the evaluation engine, rule validation, and scheduled execution.
package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/tenbase/tenbase/pkg/formula"
	"github.com/tenbase/tenbase/pkg/lifecycle"
	"github.com/tenbase/tenbase/pkg/models"
	"github.com/tenbase/tenbase/pkg/persistence"
	"github.com/tenbase/tenbase/pkg/services"
)

// Engine evaluates workflow rules against record changes. One instance serves
// all tenants; per-call state travels in ActionContext.
type Engine struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	formula     formula.Evaluator
	collections services.CollectionService

	// Set after construction to break the handler/engine dependency loop:
	// handlers such as flow triggering call back into the engine.
	handlers       *HandlerRegistry
	lifecycleHooks *lifecycle.Registry
}

func NewEngine(
	logger *slog.Logger,
	persist persistence.Persistence,
	evaluator formula.Evaluator,
	collections services.CollectionService,
) *Engine {
	return &Engine{
		logger:      logger.With("module", "workflow"),
		persistence: persist,
		formula:     evaluator,
		collections: collections,
	}
}

// SetHandlerRegistry installs the action handler registry. Must be called
// before any evaluation.
func (e *Engine) SetHandlerRegistry(registry *HandlerRegistry) {
	e.handlers = registry
}

// SetLifecycleRegistry installs the system-collection lifecycle hooks.
// Optional; without it before-save evaluation skips the hook stage.
func (e *Engine) SetLifecycleRegistry(registry *lifecycle.Registry) {
	e.lifecycleHooks = registry
}

// BeforeSaveRequest is one synchronous before-save evaluation request.
type BeforeSaveRequest struct {
	TenantID       string
	CollectionID   string
	CollectionName string
	RecordID       string
	Data           map[string]any
	PreviousData   map[string]any
	ChangedFields  []string
	UserID         string
	ChangeType     string // CREATE, UPDATE, or DELETE
}

// EvaluateBeforeSave runs the synchronous before-save pipeline: the
// collection's lifecycle hook first, then the matching before-trigger rules in
// execution order. Validation errors from the hook short-circuit the pipeline;
// rules are never consulted for a rejected record. The returned field updates
// are handed back to the caller uncommitted; the engine never writes records.
func (e *Engine) EvaluateBeforeSave(ctx context.Context, req BeforeSaveRequest) (*BeforeSaveOutcome, error) {
	outcome := &BeforeSaveOutcome{FieldUpdates: make(map[string]any)}

	data := make(map[string]any, len(req.Data))
	for key, value := range req.Data {
		data[key] = value
	}

	hookResult := e.runLifecycleHook(ctx, req, data)
	if hookResult.Blocked() {
		for _, verr := range hookResult.ValidationErrors {
			outcome.Errors = append(outcome.Errors, ValidationError{Field: verr.Field, Message: verr.Message})
		}

		e.logger.InfoContext(ctx, "Lifecycle hook rejected record",
			"collection", req.CollectionName, "record_id", req.RecordID, "errors", len(outcome.Errors))

		return outcome, nil
	}

	for field, value := range hookResult.FieldUpdates {
		outcome.FieldUpdates[field] = value
		data[field] = value
	}

	triggerType, err := beforeTriggerType(req.ChangeType)
	if err != nil {
		return nil, err
	}

	rules, err := e.persistence.FindActiveRules(ctx, req.TenantID, req.CollectionID, triggerType)
	if err != nil {
		return nil, fmt.Errorf("failed to load workflow rules: %w", err)
	}

	for _, rule := range rules {
		outcome.RulesEvaluated++

		if triggerType == models.TriggerBeforeUpdate && !matchesTriggerFields(rule.TriggerFields, req.ChangedFields, true) {
			e.logger.DebugContext(ctx, "Trigger fields rejected record for rule",
				"rule", rule.Name, "record_id", req.RecordID)

			continue
		}

		if !e.filterPasses(ctx, rule, data) {
			continue
		}

		actionCtx := ActionContext{
			TenantID:       req.TenantID,
			CollectionID:   req.CollectionID,
			CollectionName: req.CollectionName,
			RecordID:       req.RecordID,
			UserID:         orSystem(req.UserID),
			TriggerType:    string(triggerType),
			RecordData:     data,
			PreviousData:   req.PreviousData,
			ChangedFields:  req.ChangedFields,
			ResolvedData:   map[string]any{},
		}

		run := e.runRuleActions(ctx, rule, actionCtx, false)
		outcome.ActionsExecuted += run.actionsExecuted

		for field, value := range run.fieldUpdates {
			outcome.FieldUpdates[field] = value
			data[field] = value
		}

		e.saveExecutionLog(ctx, rule, actionCtx, run)
	}

	e.logger.InfoContext(ctx, "Before-save evaluation complete",
		"tenant_id", req.TenantID, "collection", req.CollectionName,
		"rules_evaluated", outcome.RulesEvaluated,
		"actions_executed", outcome.ActionsExecuted,
		"field_updates", len(outcome.FieldUpdates))

	return outcome, nil
}

// Evaluate runs the asynchronous after-save pipeline for a committed record
// change: every active rule matching the event's tenant, collection, and
// trigger type is evaluated in execution order. Rule failures are recorded in
// the audit trail and never propagate back to the event source.
func (e *Engine) Evaluate(ctx context.Context, event *models.RecordChangeEvent) error {
	triggerType := afterTriggerType(event.ChangeType)

	collection, err := e.collections.FindCollectionByName(ctx, event.TenantID, event.CollectionName)
	if err != nil {
		e.logger.WarnContext(ctx, "Collection not found for workflow evaluation, skipping",
			"collection", event.CollectionName, "error", err)

		return nil
	}

	e.runAfterLifecycleHook(ctx, event)

	rules, err := e.findMatchingRules(ctx, event.TenantID, collection.ID, triggerType)
	if err != nil {
		return fmt.Errorf("failed to load workflow rules: %w", err)
	}

	if len(rules) == 0 {
		e.logger.DebugContext(ctx, "No matching workflow rules",
			"tenant_id", event.TenantID, "collection", event.CollectionName, "trigger", triggerType)

		return nil
	}

	e.logger.InfoContext(ctx, "Evaluating workflow rules",
		"count", len(rules), "collection", event.CollectionName,
		"trigger", triggerType, "record_id", event.RecordID)

	for _, rule := range rules {
		// Each rule sees its own copy of the record data; DELETE events
		// carry no data at all.
		data := make(map[string]any, len(event.Data))
		for key, value := range event.Data {
			data[key] = value
		}

		actionCtx := ActionContext{
			TenantID:       event.TenantID,
			CollectionID:   collection.ID,
			CollectionName: event.CollectionName,
			RecordID:       event.RecordID,
			UserID:         orSystem(event.UserID),
			TriggerType:    string(triggerType),
			RecordData:     data,
			PreviousData:   event.PreviousData,
			ChangedFields:  event.ChangedFields,
			ResolvedData:   map[string]any{},
		}

		_, err := e.EvaluateRule(ctx, rule, actionCtx)
		if err != nil {
			e.logger.ErrorContext(ctx, "Rule evaluation failed",
				"rule", rule.Name, "error", err)
		}
	}

	return nil
}

// RuleOutcome summarizes one rule evaluation.
type RuleOutcome struct {
	Fired           bool
	Status          string
	ActionsExecuted int
	FieldUpdates    map[string]any
	ErrorMessage    string
}

// EvaluateRule evaluates a single rule against the given context: trigger
// fields, then the filter formula, then the action sequence with per-action
// retry. It is the re-entry point flow-triggering actions use, so nested
// firings share one pipeline.
func (e *Engine) EvaluateRule(ctx context.Context, rule *models.WorkflowRule, actionCtx ActionContext) (*RuleOutcome, error) {
	isUpdate := actionCtx.TriggerType == string(models.TriggerAfterUpdate) ||
		actionCtx.TriggerType == string(models.TriggerBeforeUpdate)

	if !matchesTriggerFields(rule.TriggerFields, actionCtx.ChangedFields, isUpdate) {
		e.logger.DebugContext(ctx, "Trigger fields rejected record for rule",
			"rule", rule.Name, "record_id", actionCtx.RecordID)

		return &RuleOutcome{Fired: false, Status: "SKIPPED"}, nil
	}

	if rule.FilterFormula != "" {
		passes, err := e.formula.EvaluateBoolean(rule.FilterFormula, actionCtx.EvaluationScope())
		if err != nil {
			e.logger.WarnContext(ctx, "Error evaluating filter formula",
				"rule", rule.Name, "error", err)
			e.saveExecutionLog(ctx, rule, actionCtx, ruleRun{
				status:       models.StatusFailure,
				errorMessage: "Filter formula error: " + err.Error(),
			})

			return &RuleOutcome{Fired: false, Status: models.StatusFailure, ErrorMessage: err.Error()}, nil
		}

		if !passes {
			e.logger.DebugContext(ctx, "Filter formula rejected record",
				"rule", rule.Name, "record_id", actionCtx.RecordID)

			return &RuleOutcome{Fired: false, Status: "SKIPPED"}, nil
		}
	}

	if len(rule.ActiveActions()) == 0 {
		e.logger.DebugContext(ctx, "Rule has no active actions, skipping", "rule", rule.Name)

		return &RuleOutcome{Fired: false, Status: "SKIPPED"}, nil
	}

	run := e.runRuleActions(ctx, rule, actionCtx, true)
	e.saveExecutionLog(ctx, rule, actionCtx, run)

	e.logger.InfoContext(ctx, "Workflow rule completed",
		"rule", rule.Name, "status", run.status,
		"actions", run.actionsExecuted, "duration_ms", run.duration.Milliseconds())

	return &RuleOutcome{
		Fired:           true,
		Status:          run.status,
		ActionsExecuted: run.actionsExecuted,
		FieldUpdates:    run.fieldUpdates,
		ErrorMessage:    run.errorMessage,
	}, nil
}

// ExecuteScheduledRule runs a scheduled rule's actions without a record
// context. Trigger fields and filter formulas do not apply.
func (e *Engine) ExecuteScheduledRule(ctx context.Context, rule *models.WorkflowRule) error {
	if len(rule.ActiveActions()) == 0 {
		e.logger.DebugContext(ctx, "Scheduled rule has no active actions, skipping", "rule", rule.Name)

		return nil
	}

	collectionName := ""

	collection, err := e.collections.FindCollection(ctx, rule.TenantID, rule.CollectionID)
	if err == nil {
		collectionName = collection.Name
	}

	actionCtx := ActionContext{
		TenantID:       rule.TenantID,
		CollectionID:   rule.CollectionID,
		CollectionName: collectionName,
		UserID:         "system",
		TriggerType:    string(models.TriggerScheduled),
		RecordData:     map[string]any{},
		ResolvedData:   map[string]any{},
	}

	run := e.runRuleActions(ctx, rule, actionCtx, true)
	e.saveExecutionLog(ctx, rule, actionCtx, run)

	e.logger.InfoContext(ctx, "Scheduled rule completed",
		"rule", rule.Name, "status", run.status,
		"actions", run.actionsExecuted, "duration_ms", run.duration.Milliseconds())

	if run.status == models.StatusFailure {
		return fmt.Errorf("scheduled rule %s failed: %s", rule.Name, run.errorMessage)
	}

	return nil
}

// ExecuteManualRule runs a rule on demand for a specific record, outside any
// lifecycle event. recordID may be empty. Returns the execution log ID, or
// an empty string when the rule has no active actions.
func (e *Engine) ExecuteManualRule(ctx context.Context, rule *models.WorkflowRule, recordID, userID string) (string, error) {
	if len(rule.ActiveActions()) == 0 {
		e.logger.DebugContext(ctx, "Rule has no active actions, skipping manual execution", "rule", rule.Name)

		return "", nil
	}

	if userID == "" {
		userID = "system"
	}

	collectionName := ""

	collection, err := e.collections.FindCollection(ctx, rule.TenantID, rule.CollectionID)
	if err == nil {
		collectionName = collection.Name
	}

	actionCtx := ActionContext{
		TenantID:       rule.TenantID,
		CollectionID:   rule.CollectionID,
		CollectionName: collectionName,
		RecordID:       recordID,
		UserID:         userID,
		TriggerType:    "MANUAL",
		RecordData:     map[string]any{},
		ResolvedData:   map[string]any{},
	}

	run := e.runRuleActions(ctx, rule, actionCtx, false)
	e.saveExecutionLog(ctx, rule, actionCtx, run)

	e.logger.InfoContext(ctx, "Manual rule execution completed",
		"rule", rule.Name, "user_id", userID, "status", run.status,
		"actions", run.actionsExecuted, "duration_ms", run.duration.Milliseconds())

	return run.executionLogID, nil
}

type ruleRun struct {
	actionsExecuted int
	fieldUpdates    map[string]any
	status          string
	errorMessage    string
	duration        time.Duration
	executionLogID  string
}

// runRuleActions executes a rule's active actions in order, folding field
// updates and resolved outputs forward so later actions see earlier results.
// Actions without a registered handler are skipped without counting.
func (e *Engine) runRuleActions(ctx context.Context, rule *models.WorkflowRule, actionCtx ActionContext, withRetry bool) ruleRun {
	start := time.Now()
	run := ruleRun{
		fieldUpdates:   make(map[string]any),
		status:         models.StatusSuccess,
		executionLogID: uuid.NewString(),
	}

	actionCtx.WorkflowRuleID = rule.ID

	for _, action := range rule.ActiveActions() {
		handler, registered := e.handlers.GetHandler(action.ActionType)
		if !registered {
			e.logger.ErrorContext(ctx, "No handler registered for action type",
				"action_type", action.ActionType, "rule", rule.Name)

			continue
		}

		var result ActionResult
		if withRetry {
			result = e.executeActionWithRetry(ctx, handler, action, rule, actionCtx, run.executionLogID)
		} else {
			result = e.executeAction(ctx, handler, action, actionCtx)
			e.saveActionLog(ctx, run.executionLogID, action, actionCtx, result, 1)
		}

		run.actionsExecuted++

		if result.Success {
			for field, value := range result.UpdatedFields() {
				run.fieldUpdates[field] = value
				actionCtx.RecordData[field] = value
			}

			if name, ok := result.OutputData["responseVariable"].(string); ok && name != "" {
				actionCtx = actionCtx.WithResolved(name, result.OutputData["responseData"])
			}

			continue
		}

		run.errorMessage = fmt.Sprintf("Action '%s' failed: %s", action.ActionType, result.ErrorMessage)

		if rule.StopOnError() {
			run.status = models.StatusFailure

			e.logger.ErrorContext(ctx, "Workflow rule stopped on error",
				"rule", rule.Name, "action_type", action.ActionType, "error", result.ErrorMessage)

			break
		}

		run.status = models.StatusPartialFailure

		e.logger.WarnContext(ctx, "Workflow rule continuing despite error",
			"rule", rule.Name, "action_type", action.ActionType, "error", result.ErrorMessage)
	}

	run.duration = time.Since(start)

	return run
}

// executeActionWithRetry retries a failed action per its retry settings,
// logging every attempt. Waits honor context cancellation.
func (e *Engine) executeActionWithRetry(ctx context.Context, handler ActionHandler, action models.WorkflowAction, rule *models.WorkflowRule, actionCtx ActionContext, executionLogID string) ActionResult {
	maxAttempts := 1 + max(0, action.RetryCount)
	delay := time.Duration(max(1, action.RetryDelaySeconds)) * time.Second
	exponential := action.RetryBackoff == models.RetryBackoffExponential

	var result ActionResult

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result = e.executeAction(ctx, handler, action, actionCtx)
		e.saveActionLog(ctx, executionLogID, action, actionCtx, result, attempt)

		if result.Success {
			if attempt > 1 {
				e.logger.InfoContext(ctx, "Action succeeded after retry",
					"action_type", action.ActionType, "rule", rule.Name, "attempt", attempt)
			}

			return result
		}

		if attempt == maxAttempts {
			break
		}

		wait := delay
		if exponential {
			wait = delay << (attempt - 1)
		}

		e.logger.InfoContext(ctx, "Action failed, retrying",
			"action_type", action.ActionType, "rule", rule.Name,
			"attempt", attempt, "max_attempts", maxAttempts,
			"wait", wait, "error", result.ErrorMessage)

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			e.logger.WarnContext(ctx, "Retry wait cancelled",
				"action_type", action.ActionType, "rule", rule.Name)

			return result
		}
	}

	if maxAttempts > 1 {
		e.logger.ErrorContext(ctx, "Action failed after all attempts",
			"action_type", action.ActionType, "rule", rule.Name,
			"attempts", maxAttempts, "error", result.ErrorMessage)
	}

	return result
}

// executeAction invokes one handler, converting panics into failed results so
// a broken handler cannot abort the firing.
func (e *Engine) executeAction(ctx context.Context, handler ActionHandler, action models.WorkflowAction, actionCtx ActionContext) (result ActionResult) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.ErrorContext(ctx, "Action handler panicked",
				"action_type", action.ActionType, "panic", r)
			result = Failed(fmt.Sprintf("action handler panicked: %v", r))
		}
	}()

	start := time.Now()

	result, err := handler.Execute(ctx, actionCtx, action.Config)
	if err != nil {
		result = Failed(err.Error())
	}

	result.Duration = time.Since(start)

	return result
}

// runLifecycleHook invokes the collection's before-hook when one is
// registered. Hook panics are swallowed and treated as a no-op result;
// hook-reported validation errors still block the save.
// runAfterLifecycleHook dispatches the committed change to the collection's
// after-hook. After-hooks are observational; a panicking hook is logged and
// never disturbs rule evaluation.
func (e *Engine) runAfterLifecycleHook(ctx context.Context, event *models.RecordChangeEvent) {
	if e.lifecycleHooks == nil {
		return
	}

	handler, registered := e.lifecycleHooks.GetHandler(event.CollectionName)
	if !registered {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.ErrorContext(ctx, "Lifecycle after-hook panicked",
				"collection", event.CollectionName, "panic", r)
		}
	}()

	switch event.ChangeType {
	case models.ChangeCreated:
		handler.AfterCreate(ctx, event.RecordID, event.Data, event.TenantID)
	case models.ChangeUpdated:
		handler.AfterUpdate(ctx, event.RecordID, event.Data, event.PreviousData, event.TenantID)
	case models.ChangeDeleted:
		handler.AfterDelete(ctx, event.RecordID, event.PreviousData, event.TenantID)
	}
}

func (e *Engine) runLifecycleHook(ctx context.Context, req BeforeSaveRequest, data map[string]any) (result lifecycle.BeforeSaveResult) {
	if e.lifecycleHooks == nil {
		return lifecycle.Ok()
	}

	handler, registered := e.lifecycleHooks.GetHandler(req.CollectionName)
	if !registered {
		return lifecycle.Ok()
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.ErrorContext(ctx, "Lifecycle hook panicked",
				"collection", req.CollectionName, "panic", r)
			result = lifecycle.Ok()
		}
	}()

	switch req.ChangeType {
	case "CREATE":
		return handler.BeforeCreate(ctx, data, req.TenantID)
	case "UPDATE":
		return handler.BeforeUpdate(ctx, req.RecordID, data, req.PreviousData, req.TenantID)
	default:
		return lifecycle.Ok()
	}
}

func (e *Engine) filterPasses(ctx context.Context, rule *models.WorkflowRule, data map[string]any) bool {
	if rule.FilterFormula == "" {
		return true
	}

	passes, err := e.formula.EvaluateBoolean(rule.FilterFormula, data)
	if err != nil {
		e.logger.WarnContext(ctx, "Error evaluating filter formula",
			"rule", rule.Name, "error", err)

		return false
	}

	return passes
}

// findMatchingRules loads rules for the trigger, merging in combined
// create-or-update rules for create and update events.
func (e *Engine) findMatchingRules(ctx context.Context, tenantID, collectionID string, triggerType models.TriggerType) ([]*models.WorkflowRule, error) {
	rules, err := e.persistence.FindActiveRules(ctx, tenantID, collectionID, triggerType)
	if err != nil {
		return nil, err
	}

	if triggerType != models.TriggerAfterCreate && triggerType != models.TriggerAfterUpdate {
		return rules, nil
	}

	combined, err := e.persistence.FindActiveRules(ctx, tenantID, collectionID, models.TriggerAfterCreateOrUpdate)
	if err != nil {
		return nil, err
	}

	if len(combined) == 0 {
		return rules, nil
	}

	merged := append(rules, combined...)
	slices.SortStableFunc(merged, func(a, b *models.WorkflowRule) int {
		return a.ExecutionOrder - b.ExecutionOrder
	})

	return merged, nil
}

func (e *Engine) saveExecutionLog(ctx context.Context, rule *models.WorkflowRule, actionCtx ActionContext, run ruleRun) {
	entry := &models.WorkflowExecutionLog{
		ID:              run.executionLogID,
		TenantID:        rule.TenantID,
		WorkflowRuleID:  rule.ID,
		RecordID:        actionCtx.RecordID,
		TriggerType:     actionCtx.TriggerType,
		Status:          run.status,
		ActionsExecuted: run.actionsExecuted,
		ErrorMessage:    run.errorMessage,
		DurationMs:      int(run.duration.Milliseconds()),
		ExecutedAt:      time.Now().UTC(),
	}

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	err := e.persistence.SaveExecutionLog(ctx, entry)
	if err != nil {
		e.logger.ErrorContext(ctx, "Failed to save execution log",
			"rule", rule.Name, "error", err)
	}
}

func (e *Engine) saveActionLog(ctx context.Context, executionLogID string, action models.WorkflowAction, actionCtx ActionContext, result ActionResult, attempt int) {
	status := models.StatusSuccess
	if !result.Success {
		status = models.StatusFailure
	}

	entry := &models.WorkflowActionLog{
		ID:             uuid.NewString(),
		ExecutionLogID: executionLogID,
		ActionID:       action.ID,
		ActionType:     action.ActionType,
		Status:         status,
		ErrorMessage:   result.ErrorMessage,
		DurationMs:     int(result.Duration.Milliseconds()),
		AttemptNumber:  attempt,
		ExecutedAt:     time.Now().UTC(),
	}

	inputSnapshot, err := json.Marshal(map[string]any{
		"actionConfig":   action.Config,
		"recordId":       actionCtx.RecordID,
		"collectionName": actionCtx.CollectionName,
	})
	if err == nil {
		entry.InputSnapshot = string(inputSnapshot)
	}

	if len(result.OutputData) > 0 {
		outputSnapshot, err := json.Marshal(result.OutputData)
		if err == nil {
			entry.OutputSnapshot = string(outputSnapshot)
		} else {
			e.logger.WarnContext(ctx, "Failed to serialize action output", "error", err)
		}
	}

	err = e.persistence.SaveActionLog(ctx, entry)
	if err != nil {
		e.logger.ErrorContext(ctx, "Failed to save action log",
			"action_type", action.ActionType, "error", err)
	}
}

func beforeTriggerType(changeType string) (models.TriggerType, error) {
	switch changeType {
	case "CREATE":
		return models.TriggerBeforeCreate, nil
	case "UPDATE":
		return models.TriggerBeforeUpdate, nil
	case "DELETE":
		return models.TriggerBeforeDelete, nil
	default:
		return "", fmt.Errorf("unknown change type: %s", changeType)
	}
}

func afterTriggerType(changeType models.ChangeType) models.TriggerType {
	switch changeType {
	case models.ChangeCreated:
		return models.TriggerAfterCreate
	case models.ChangeUpdated:
		return models.TriggerAfterUpdate
	case models.ChangeDeleted:
		return models.TriggerAfterDelete
	default:
		return models.TriggerAfterUpdate
	}
}

// matchesTriggerFields reports whether a rule with trigger fields should fire
// for the given changed fields. Trigger fields only constrain updates; rules
// without trigger fields match everything.
func matchesTriggerFields(triggerFields, changedFields []string, isUpdate bool) bool {
	if len(triggerFields) == 0 {
		return true
	}

	if !isUpdate {
		return true
	}

	for _, field := range triggerFields {
		if slices.Contains(changedFields, field) {
			return true
		}
	}

	return false
}

func orSystem(userID string) string {
	if userID == "" {
		return "system"
	}

	return userID
}
