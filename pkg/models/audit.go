package models

import "time"

// Execution statuses recorded in audit rows.
const (
	StatusExecuting      = "EXECUTING"
	StatusSuccess        = "SUCCESS"
	StatusFailure        = "FAILURE"
	StatusPartialFailure = "PARTIAL_FAILURE"
	StatusQueued         = "QUEUED"
)

// WorkflowExecutionLog is the append-only audit row for one rule firing.
// Never mutated after the firing completes.
type WorkflowExecutionLog struct {
	ID              string    `json:"id"`
	TenantID        string    `json:"tenant_id"`
	WorkflowRuleID  string    `json:"workflow_rule_id"`
	RecordID        string    `json:"record_id,omitempty"`
	TriggerType     string    `json:"trigger_type"`
	Status          string    `json:"status"`
	ActionsExecuted int       `json:"actions_executed"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	DurationMs      int       `json:"duration_ms"`
	ExecutedAt      time.Time `json:"executed_at"`
}

// WorkflowActionLog is the append-only audit row for one action attempt
// within a rule firing. Retried actions produce one row per attempt.
type WorkflowActionLog struct {
	ID             string    `json:"id"`
	ExecutionLogID string    `json:"execution_log_id"`
	ActionID       string    `json:"action_id"`
	ActionType     string    `json:"action_type"`
	Status         string    `json:"status"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	DurationMs     int       `json:"duration_ms"`
	AttemptNumber  int       `json:"attempt_number"`
	InputSnapshot  string    `json:"input_snapshot,omitempty"`
	OutputSnapshot string    `json:"output_snapshot,omitempty"`
	ExecutedAt     time.Time `json:"executed_at"`
}

// EmailLog is a queued outbound email awaiting async delivery.
type EmailLog struct {
	ID             string    `json:"id"`
	TenantID       string    `json:"tenant_id"`
	RecipientEmail string    `json:"recipient_email"`
	Subject        string    `json:"subject"`
	Status         string    `json:"status"`
	Source         string    `json:"source"`
	SourceID       string    `json:"source_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// ScriptExecutionLog is a queued script invocation awaiting async execution.
type ScriptExecutionLog struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	ScriptID    string    `json:"script_id"`
	Status      string    `json:"status"`
	TriggerType string    `json:"trigger_type"`
	RecordID    string    `json:"record_id,omitempty"`
	LogOutput   string    `json:"log_output,omitempty"`
	ExecutedAt  time.Time `json:"executed_at"`
}

// Notification is an in-app notification queued for a user.
type Notification struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Level     string    `json:"level"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
