package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/tenbase/tenbase/pkg/models"
)

// AuditLogRepository writes the append-only audit rows produced by rule
// firings: execution logs, per-action logs, and the queued side-effect rows
// (emails, script runs, notifications).
type AuditLogRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewAuditLogRepository(db *sql.DB, logger *slog.Logger) *AuditLogRepository {
	return &AuditLogRepository{
		db:     db,
		logger: logger.With("module", "postgresql"),
	}
}

func (r *AuditLogRepository) SaveExecutionLog(ctx context.Context, entry *models.WorkflowExecutionLog) error {
	query := `INSERT INTO workflow_execution_logs
		(id, tenant_id, workflow_rule_id, record_id, trigger_type, status,
		 actions_executed, error_message, duration_ms, executed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.TenantID, entry.WorkflowRuleID, nullString(entry.RecordID),
		entry.TriggerType, entry.Status, entry.ActionsExecuted,
		nullString(entry.ErrorMessage), entry.DurationMs, entry.ExecutedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save execution log: %w", err)
	}

	return nil
}

func (r *AuditLogRepository) SaveActionLog(ctx context.Context, entry *models.WorkflowActionLog) error {
	query := `INSERT INTO workflow_action_logs
		(id, execution_log_id, action_id, action_type, status, error_message,
		 duration_ms, attempt_number, input_snapshot, output_snapshot, executed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.ExecutionLogID, entry.ActionID, entry.ActionType,
		entry.Status, nullString(entry.ErrorMessage), entry.DurationMs,
		entry.AttemptNumber, nullString(entry.InputSnapshot),
		nullString(entry.OutputSnapshot), entry.ExecutedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save action log: %w", err)
	}

	return nil
}

func (r *AuditLogRepository) SaveEmailLog(ctx context.Context, entry *models.EmailLog) error {
	query := `INSERT INTO email_logs
		(id, tenant_id, recipient_email, subject, status, source, source_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.TenantID, entry.RecipientEmail, entry.Subject,
		entry.Status, entry.Source, nullString(entry.SourceID), entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save email log: %w", err)
	}

	return nil
}

func (r *AuditLogRepository) SaveScriptLog(ctx context.Context, entry *models.ScriptExecutionLog) error {
	query := `INSERT INTO script_execution_logs
		(id, tenant_id, script_id, status, trigger_type, record_id, log_output, executed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.TenantID, entry.ScriptID, entry.Status,
		nullString(entry.TriggerType), nullString(entry.RecordID),
		nullString(entry.LogOutput), entry.ExecutedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save script execution log: %w", err)
	}

	return nil
}

func (r *AuditLogRepository) SaveNotification(ctx context.Context, entry *models.Notification) error {
	query := `INSERT INTO notifications
		(id, tenant_id, user_id, title, message, level, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.TenantID, entry.UserID, entry.Title, entry.Message,
		entry.Level, entry.Status, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}

	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
