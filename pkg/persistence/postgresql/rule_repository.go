package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tenbase/tenbase/pkg/models"
	"github.com/tenbase/tenbase/pkg/persistence"
)

const ruleColumns = `id, tenant_id, collection_id, name, description, active,
	trigger_type, trigger_fields, filter_formula, execution_order,
	error_handling, actions, cron_expression, timezone, last_scheduled_run,
	created_at, updated_at`

// RuleRepository reads workflow rules from PostgreSQL.
type RuleRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewRuleRepository(db *sql.DB, logger *slog.Logger) *RuleRepository {
	return &RuleRepository{
		db:     db,
		logger: logger.With("module", "postgresql"),
	}
}

// FindActiveRules returns active rules scoped to (tenant, collection, trigger
// type) ordered by execution order ascending.
func (r *RuleRepository) FindActiveRules(ctx context.Context, tenantID, collectionID string, triggerType models.TriggerType) ([]*models.WorkflowRule, error) {
	query := `SELECT ` + ruleColumns + `
		FROM workflow_rules
		WHERE tenant_id = $1 AND collection_id = $2 AND trigger_type = $3 AND active = true
		ORDER BY execution_order ASC, created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, tenantID, collectionID, string(triggerType))
	if err != nil {
		return nil, fmt.Errorf("failed to query workflow rules: %w", err)
	}
	defer rows.Close()

	return scanRules(rows)
}

// FindRuleByID returns the rule or persistence.ErrRuleNotFound.
func (r *RuleRepository) FindRuleByID(ctx context.Context, id string) (*models.WorkflowRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM workflow_rules WHERE id = $1`

	rule, err := scanRule(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrRuleNotFound
		}

		return nil, fmt.Errorf("failed to query workflow rule: %w", err)
	}

	return rule, nil
}

// FindScheduledRules returns all active SCHEDULED rules across tenants.
func (r *RuleRepository) FindScheduledRules(ctx context.Context) ([]*models.WorkflowRule, error) {
	query := `SELECT ` + ruleColumns + `
		FROM workflow_rules
		WHERE trigger_type = $1 AND active = true
		ORDER BY tenant_id ASC, execution_order ASC`

	rows, err := r.db.QueryContext(ctx, query, string(models.TriggerScheduled))
	if err != nil {
		return nil, fmt.Errorf("failed to query scheduled rules: %w", err)
	}
	defer rows.Close()

	return scanRules(rows)
}

// MarkScheduledRun records the last scheduled execution time of a rule.
func (r *RuleRepository) MarkScheduledRun(ctx context.Context, ruleID string, runAt int64) error {
	query := `UPDATE workflow_rules SET last_scheduled_run = $2 WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, ruleID, time.Unix(runAt, 0).UTC())
	if err != nil {
		return fmt.Errorf("failed to mark scheduled run: %w", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRule(row rowScanner) (*models.WorkflowRule, error) {
	var (
		rule             models.WorkflowRule
		description      sql.NullString
		triggerFields    []byte
		filterFormula    sql.NullString
		errorHandling    sql.NullString
		actions          []byte
		cronExpression   sql.NullString
		timezone         sql.NullString
		lastScheduledRun sql.NullTime
	)

	err := row.Scan(
		&rule.ID, &rule.TenantID, &rule.CollectionID, &rule.Name, &description,
		&rule.Active, &rule.TriggerType, &triggerFields, &filterFormula,
		&rule.ExecutionOrder, &errorHandling, &actions, &cronExpression,
		&timezone, &lastScheduledRun, &rule.CreatedAt, &rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rule.Description = description.String
	rule.FilterFormula = filterFormula.String
	rule.ErrorHandling = errorHandling.String
	rule.CronExpression = cronExpression.String
	rule.Timezone = timezone.String

	if lastScheduledRun.Valid {
		runAt := lastScheduledRun.Time
		rule.LastScheduledRun = &runAt
	}

	if len(triggerFields) > 0 {
		err = json.Unmarshal(triggerFields, &rule.TriggerFields)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal trigger fields: %w", err)
		}
	}

	if len(actions) > 0 {
		err = json.Unmarshal(actions, &rule.Actions)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal actions: %w", err)
		}
	}

	return &rule, nil
}

func scanRules(rows *sql.Rows) ([]*models.WorkflowRule, error) {
	var rules []*models.WorkflowRule

	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow rule: %w", err)
		}

		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate workflow rules: %w", err)
	}

	return rules, nil
}
