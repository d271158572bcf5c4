package workflow

import (
	"maps"
	"time"
)

// MaxTriggerDepth bounds rule-to-rule chaining. A rule fired at depth
// MaxTriggerDepth cannot trigger further rules.
const MaxTriggerDepth = 5

// ActionContext carries the record state and execution scope into each action
// of a rule firing. It is copied, not shared, when a firing spawns nested
// firings, so the chaining depth travels with the call and never leaks
// between concurrent evaluations.
type ActionContext struct {
	TenantID       string
	CollectionID   string
	CollectionName string
	RecordID       string
	UserID         string
	TriggerType    string

	// WorkflowRuleID is the rule currently firing. Empty until the engine
	// enters a rule's action loop.
	WorkflowRuleID string

	// RecordData is the record as it stands at this point of the firing,
	// including field updates applied by earlier actions.
	RecordData map[string]any

	// PreviousData is the record state before the change, nil for creates.
	PreviousData map[string]any

	// ChangedFields lists the fields the triggering update touched. Empty
	// for creates and deletes.
	ChangedFields []string

	// ResolvedData accumulates named outputs of earlier actions in the same
	// firing (for example an HTTP callout's response bound to a variable).
	ResolvedData map[string]any

	// Depth is the rule-chaining depth of this firing. Zero for firings
	// started by a record change; incremented for each flow-triggered hop.
	Depth int
}

// WithResolved returns a copy of the context with value bound under name in
// the resolved scope. The receiver is not modified.
func (c ActionContext) WithResolved(name string, value any) ActionContext {
	resolved := make(map[string]any, len(c.ResolvedData)+1)
	maps.Copy(resolved, c.ResolvedData)
	resolved[name] = value
	c.ResolvedData = resolved

	return c
}

// EvaluationScope builds the data map formulas and templates evaluate
// against: record fields at the top level, plus reserved entries for the
// previous state and resolved action outputs.
func (c ActionContext) EvaluationScope() map[string]any {
	scope := make(map[string]any, len(c.RecordData)+4)
	maps.Copy(scope, c.RecordData)

	scope["_previous"] = c.PreviousData
	scope["_resolved"] = c.ResolvedData
	scope["_recordId"] = c.RecordID
	scope["_tenantId"] = c.TenantID

	return scope
}

// ActionResult is the outcome of one action execution. Field updates
// produced by an action travel in OutputData under the "updatedFields" key.
type ActionResult struct {
	Success      bool
	Status       string
	ErrorMessage string
	OutputData   map[string]any
	Duration     time.Duration
}

// UpdatedFields extracts the field updates from the result's output data.
// Returns nil when the action produced none.
func (r ActionResult) UpdatedFields() map[string]any {
	updates, _ := r.OutputData["updatedFields"].(map[string]any)

	return updates
}

// Successful builds a success result with optional output data.
func Successful(outputData map[string]any) ActionResult {
	return ActionResult{
		Success:    true,
		Status:     "SUCCESS",
		OutputData: outputData,
	}
}

// Failed builds a failure result with the given message.
func Failed(message string) ActionResult {
	return ActionResult{
		Success:      false,
		Status:       "FAILURE",
		ErrorMessage: message,
	}
}

// Skipped builds a success result marked as skipped, used when an action
// declines to run rather than failing.
func Skipped(outputData map[string]any) ActionResult {
	return ActionResult{
		Success:    true,
		Status:     "SKIPPED",
		OutputData: outputData,
	}
}
