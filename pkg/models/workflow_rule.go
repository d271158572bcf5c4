// Package models defines the core domain models for record-lifecycle automation.
package models

import "time"

// TriggerType identifies the lifecycle moment a workflow rule is scoped to.
type TriggerType string

const (
	TriggerBeforeCreate TriggerType = "BEFORE_CREATE"
	TriggerBeforeUpdate TriggerType = "BEFORE_UPDATE"
	TriggerBeforeDelete TriggerType = "BEFORE_DELETE"
	TriggerAfterCreate  TriggerType = "AFTER_CREATE"
	TriggerAfterUpdate  TriggerType = "AFTER_UPDATE"
	TriggerAfterDelete  TriggerType = "AFTER_DELETE"
	TriggerScheduled    TriggerType = "SCHEDULED"

	// TriggerAfterCreateOrUpdate matches both create and update changes.
	TriggerAfterCreateOrUpdate TriggerType = "AFTER_CREATE_OR_UPDATE"
)

// Error handling modes for a rule's action sequence.
const (
	StopOnError     = "STOP_ON_ERROR"
	ContinueOnError = "CONTINUE_ON_ERROR"
)

// Retry backoff strategies for a single action.
const (
	RetryBackoffFixed       = "FIXED"
	RetryBackoffExponential = "EXPONENTIAL"
)

// WorkflowRule is a tenant-configured, condition-gated, ordered list of
// actions bound to one collection and one trigger type. Rules are authored
// through configuration tooling and are read-only to the engine.
type WorkflowRule struct {
	ID             string           `json:"id"`
	TenantID       string           `json:"tenant_id"       validate:"required"`
	CollectionID   string           `json:"collection_id"   validate:"required"`
	Name           string           `json:"name"            validate:"required,min=3"`
	Description    string           `json:"description"`
	Active         bool             `json:"active"`
	TriggerType    TriggerType      `json:"trigger_type"    validate:"required"`
	TriggerFields  []string         `json:"trigger_fields,omitempty"`
	FilterFormula  string           `json:"filter_formula,omitempty"`
	ExecutionOrder int              `json:"execution_order"`
	ErrorHandling  string           `json:"error_handling,omitempty"`
	Actions        []WorkflowAction `json:"actions"`

	// Scheduling, only meaningful for SCHEDULED rules.
	CronExpression   string     `json:"cron_expression,omitempty"`
	Timezone         string     `json:"timezone,omitempty"`
	LastScheduledRun *time.Time `json:"last_scheduled_run,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WorkflowAction is one step of a rule: a stable action-type key plus an
// opaque JSON configuration owned and parsed by the matching handler.
type WorkflowAction struct {
	ID             string `json:"id"`
	ActionType     string `json:"action_type" validate:"required"`
	Config         string `json:"config"`
	Active         bool   `json:"active"`
	ExecutionOrder int    `json:"execution_order"`

	// Retry applies to asynchronous (after-event and scheduled) execution.
	RetryCount        int    `json:"retry_count,omitempty"`
	RetryDelaySeconds int    `json:"retry_delay_seconds,omitempty"`
	RetryBackoff      string `json:"retry_backoff,omitempty"`
}

// StopOnError reports whether the rule halts its remaining actions when one
// fails. The default mode is CONTINUE_ON_ERROR.
func (r *WorkflowRule) StopOnError() bool {
	return r.ErrorHandling == StopOnError
}

// ActiveActions returns the rule's active actions in stored execution order.
// Ties on execution order keep insertion order.
func (r *WorkflowRule) ActiveActions() []WorkflowAction {
	active := make([]WorkflowAction, 0, len(r.Actions))

	for _, action := range r.Actions {
		if action.Active {
			active = append(active, action)
		}
	}

	// Stable insertion sort; action lists are short.
	for i := 1; i < len(active); i++ {
		for j := i; j > 0 && active[j].ExecutionOrder < active[j-1].ExecutionOrder; j-- {
			active[j], active[j-1] = active[j-1], active[j]
		}
	}

	return active
}
