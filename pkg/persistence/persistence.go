// Package persistence provides the storage abstraction consumed by the
// workflow engine: the rule store and the append-only audit sinks.
package persistence

import (
	"context"

	"github.com/tenbase/tenbase/pkg/models"
)

// RuleRepository is the read-only rule store consumed by the engine.
type RuleRepository interface {
	// FindActiveRules returns active rules scoped to (tenant, collection,
	// trigger type) ordered by execution order ascending. Ties keep stored
	// insertion order. An empty result is not an error.
	FindActiveRules(ctx context.Context, tenantID, collectionID string, triggerType models.TriggerType) ([]*models.WorkflowRule, error)

	// FindRuleByID returns the rule or ErrRuleNotFound.
	FindRuleByID(ctx context.Context, id string) (*models.WorkflowRule, error)

	// FindScheduledRules returns all active SCHEDULED rules.
	FindScheduledRules(ctx context.Context) ([]*models.WorkflowRule, error)

	// MarkScheduledRun records the last scheduled execution time of a rule.
	MarkScheduledRun(ctx context.Context, ruleID string, runAt int64) error
}

// ExecutionLogRepository is the append-only sink for rule-firing audit rows.
type ExecutionLogRepository interface {
	SaveExecutionLog(ctx context.Context, entry *models.WorkflowExecutionLog) error
}

// ActionLogRepository is the append-only sink for per-action audit rows.
type ActionLogRepository interface {
	SaveActionLog(ctx context.Context, entry *models.WorkflowActionLog) error
}

// EmailLogRepository queues outbound emails for async delivery.
type EmailLogRepository interface {
	SaveEmailLog(ctx context.Context, entry *models.EmailLog) error
}

// ScriptLogRepository queues script invocations for async execution.
type ScriptLogRepository interface {
	SaveScriptLog(ctx context.Context, entry *models.ScriptExecutionLog) error
}

// NotificationRepository queues in-app notifications.
type NotificationRepository interface {
	SaveNotification(ctx context.Context, entry *models.Notification) error
}

// Persistence aggregates every repository the workflow subsystem needs.
type Persistence interface {
	RuleRepository
	ExecutionLogRepository
	ActionLogRepository
	EmailLogRepository
	ScriptLogRepository
	NotificationRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
