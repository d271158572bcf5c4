package postgresql_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/tenbase/tenbase/pkg/models"
	"github.com/tenbase/tenbase/pkg/persistence"
	"github.com/tenbase/tenbase/pkg/persistence/postgresql"
	"github.com/tenbase/tenbase/pkg/services"
)

var postgresContainer *postgres.PostgresContainer

func dropDb(ctx context.Context, t *testing.T, databaseURL string) {
	t.Helper()

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	for _, table := range []string{
		"records", "email_templates", "scripts", "collections",
		"notifications", "script_execution_logs", "email_logs",
		"workflow_action_logs", "workflow_execution_logs", "workflow_rules",
		"schema_migrations",
	} {
		_, err = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE")
		require.NoError(t, err)
	}

	err = db.Close()
	require.NoError(t, err)
}

func setupTestDB(t *testing.T) (*postgresql.Persistence, context.Context, string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	if postgresContainer == nil || !postgresContainer.IsRunning() {
		var err error

		postgresContainer, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("tenbase_test"),
			postgres.WithUsername("tenbase"),
			postgres.WithPassword("tenbase"),
			postgres.BasicWaitStrategies(),
		)
		require.NoError(t, err)
	}

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	dropDb(ctx, t, databaseURL)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	persist, err := postgresql.NewPersistence(ctx, logger, databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		dropDb(ctx, t, databaseURL)

		err = persist.Close(ctx)
		require.NoError(t, err)

		cancel()
	})

	return persist, ctx, databaseURL
}

func insertRule(ctx context.Context, t *testing.T, db *sql.DB, rule *models.WorkflowRule) {
	t.Helper()

	actions, err := json.Marshal(rule.Actions)
	require.NoError(t, err)

	triggerFields, err := json.Marshal(rule.TriggerFields)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `INSERT INTO workflow_rules
		(id, tenant_id, collection_id, name, active, trigger_type,
		 trigger_fields, filter_formula, execution_order, error_handling, actions)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		rule.ID, rule.TenantID, rule.CollectionID, rule.Name, rule.Active,
		string(rule.TriggerType), triggerFields, rule.FilterFormula,
		rule.ExecutionOrder, rule.ErrorHandling, actions,
	)
	require.NoError(t, err)
}

func openDB(t *testing.T, databaseURL string) *sql.DB {
	t.Helper()

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		err := db.Close()
		require.NoError(t, err)
	})

	return db
}

func TestNewPersistence_Migrations(t *testing.T) {
	_, ctx, databaseURL := setupTestDB(t)

	db := openDB(t, databaseURL)

	for _, table := range []string{"workflow_rules", "workflow_execution_logs", "collections", "records", "schema_migrations"} {
		var exists bool

		err := db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT FROM information_schema.tables WHERE table_name = $1)`, table).
			Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, "%s table should exist", table)
	}

	var version int

	err := db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, 4, version)
}

func TestNewPersistence_HealthCheck(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	err := p.HealthCheck(ctx)
	assert.NoError(t, err)
}

func TestRuleRepository_FindActiveRules(t *testing.T) {
	p, ctx, databaseURL := setupTestDB(t)
	db := openDB(t, databaseURL)

	insertRule(ctx, t, db, &models.WorkflowRule{
		ID: "rule-second", TenantID: "tenant-1", CollectionID: "col-1",
		Name: "second", Active: true, TriggerType: models.TriggerAfterUpdate,
		ExecutionOrder: 20,
		Actions:        []models.WorkflowAction{{ID: "a-1", ActionType: "LOG_MESSAGE", Config: `{"message":"x"}`, Active: true}},
	})
	insertRule(ctx, t, db, &models.WorkflowRule{
		ID: "rule-first", TenantID: "tenant-1", CollectionID: "col-1",
		Name: "first", Active: true, TriggerType: models.TriggerAfterUpdate,
		ExecutionOrder: 10,
		TriggerFields:  []string{"status"},
		FilterFormula:  `status == "SHIPPED"`,
	})
	insertRule(ctx, t, db, &models.WorkflowRule{
		ID: "rule-inactive", TenantID: "tenant-1", CollectionID: "col-1",
		Name: "inactive", Active: false, TriggerType: models.TriggerAfterUpdate,
	})
	insertRule(ctx, t, db, &models.WorkflowRule{
		ID: "rule-other-tenant", TenantID: "tenant-2", CollectionID: "col-1",
		Name: "other", Active: true, TriggerType: models.TriggerAfterUpdate,
	})

	rules, err := p.FindActiveRules(ctx, "tenant-1", "col-1", models.TriggerAfterUpdate)
	require.NoError(t, err)

	require.Len(t, rules, 2)
	assert.Equal(t, "rule-first", rules[0].ID)
	assert.Equal(t, "rule-second", rules[1].ID)
	assert.Equal(t, []string{"status"}, rules[0].TriggerFields)
	assert.Equal(t, `status == "SHIPPED"`, rules[0].FilterFormula)

	require.Len(t, rules[1].Actions, 1)
	assert.Equal(t, "LOG_MESSAGE", rules[1].Actions[0].ActionType)
	assert.True(t, rules[1].Actions[0].Active)
}

func TestRuleRepository_FindRuleByID(t *testing.T) {
	p, ctx, databaseURL := setupTestDB(t)
	db := openDB(t, databaseURL)

	insertRule(ctx, t, db, &models.WorkflowRule{
		ID: "rule-1", TenantID: "tenant-1", CollectionID: "col-1",
		Name: "lookup", Active: true, TriggerType: models.TriggerAfterCreate,
	})

	rule, err := p.FindRuleByID(ctx, "rule-1")
	require.NoError(t, err)
	assert.Equal(t, "lookup", rule.Name)

	_, err = p.FindRuleByID(ctx, "ghost")
	assert.ErrorIs(t, err, persistence.ErrRuleNotFound)
}

func TestRuleRepository_ScheduledRules(t *testing.T) {
	p, ctx, databaseURL := setupTestDB(t)
	db := openDB(t, databaseURL)

	insertRule(ctx, t, db, &models.WorkflowRule{
		ID: "rule-sched", TenantID: "tenant-1", CollectionID: "col-1",
		Name: "nightly", Active: true, TriggerType: models.TriggerScheduled,
	})
	insertRule(ctx, t, db, &models.WorkflowRule{
		ID: "rule-event", TenantID: "tenant-1", CollectionID: "col-1",
		Name: "event", Active: true, TriggerType: models.TriggerAfterCreate,
	})

	rules, err := p.FindScheduledRules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "rule-sched", rules[0].ID)
	assert.Nil(t, rules[0].LastScheduledRun)

	runAt := time.Now().UTC().Truncate(time.Second)

	err = p.MarkScheduledRun(ctx, "rule-sched", runAt.Unix())
	require.NoError(t, err)

	rule, err := p.FindRuleByID(ctx, "rule-sched")
	require.NoError(t, err)
	require.NotNil(t, rule.LastScheduledRun)
	assert.Equal(t, runAt.Unix(), rule.LastScheduledRun.Unix())
}

func TestAuditLogRepository_Saves(t *testing.T) {
	p, ctx, databaseURL := setupTestDB(t)
	db := openDB(t, databaseURL)

	now := time.Now().UTC()
	executionLogID := uuid.New().String()

	err := p.SaveExecutionLog(ctx, &models.WorkflowExecutionLog{
		ID: executionLogID, TenantID: "tenant-1", WorkflowRuleID: "rule-1",
		RecordID: "rec-1", TriggerType: "AFTER_UPDATE",
		Status: models.StatusSuccess, ActionsExecuted: 2, DurationMs: 12,
		ExecutedAt: now,
	})
	require.NoError(t, err)

	err = p.SaveActionLog(ctx, &models.WorkflowActionLog{
		ID: uuid.New().String(), ExecutionLogID: executionLogID,
		ActionID: "action-1", ActionType: "LOG_MESSAGE",
		Status: models.StatusSuccess, AttemptNumber: 1, ExecutedAt: now,
	})
	require.NoError(t, err)

	err = p.SaveEmailLog(ctx, &models.EmailLog{
		ID: uuid.New().String(), TenantID: "tenant-1",
		RecipientEmail: "ops@example.com", Subject: "Order shipped",
		Status: models.StatusQueued, Source: "WORKFLOW", SourceID: "rule-1",
		CreatedAt: now,
	})
	require.NoError(t, err)

	err = p.SaveScriptLog(ctx, &models.ScriptExecutionLog{
		ID: uuid.New().String(), TenantID: "tenant-1", ScriptID: "script-1",
		Status: models.StatusQueued, TriggerType: "WORKFLOW", RecordID: "rec-1",
		ExecutedAt: now,
	})
	require.NoError(t, err)

	err = p.SaveNotification(ctx, &models.Notification{
		ID: uuid.New().String(), TenantID: "tenant-1", UserID: "user-1",
		Title: "Heads up", Message: "rule fired", Level: "INFO",
		Status: models.StatusQueued, CreatedAt: now,
	})
	require.NoError(t, err)

	for table, want := range map[string]int{
		"workflow_execution_logs": 1,
		"workflow_action_logs":    1,
		"email_logs":              1,
		"script_execution_logs":   1,
		"notifications":           1,
	} {
		var count int

		err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, want, count, table)
	}
}

func TestPlatformRepository_Collections(t *testing.T) {
	p, ctx, databaseURL := setupTestDB(t)
	db := openDB(t, databaseURL)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	repo := postgresql.NewPlatformRepository(p.DB(), logger)

	_, err := db.ExecContext(ctx,
		`INSERT INTO collections (id, tenant_id, name, label) VALUES ($1, $2, $3, $4)`,
		"col-1", "tenant-1", "orders", "Orders")
	require.NoError(t, err)

	collection, err := repo.FindCollection(ctx, "tenant-1", "col-1")
	require.NoError(t, err)
	assert.Equal(t, "orders", collection.Name)
	assert.Equal(t, "Orders", collection.Label)

	byName, err := repo.FindCollectionByName(ctx, "tenant-1", "orders")
	require.NoError(t, err)
	assert.Equal(t, "col-1", byName.ID)

	_, err = repo.FindCollection(ctx, "tenant-2", "col-1")
	assert.ErrorIs(t, err, services.ErrCollectionNotFound)
}

func TestPlatformRepository_RecordLifecycle(t *testing.T) {
	p, ctx, databaseURL := setupTestDB(t)
	db := openDB(t, databaseURL)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	repo := postgresql.NewPlatformRepository(p.DB(), logger)

	id, err := repo.CreateRecord(ctx, "tenant-1", "col-1", map[string]any{
		"status": "OPEN",
		"total":  10.5,
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	err = repo.UpdateRecord(ctx, "tenant-1", "col-1", id, map[string]any{"status": "SHIPPED"})
	require.NoError(t, err)

	var raw []byte

	err = db.QueryRowContext(ctx, "SELECT data FROM records WHERE id = $1", id).Scan(&raw)
	require.NoError(t, err)

	var data map[string]any

	require.NoError(t, json.Unmarshal(raw, &data))
	assert.Equal(t, "SHIPPED", data["status"])
	assert.InDelta(t, 10.5, data["total"], 0.001)

	err = repo.UpdateRecord(ctx, "tenant-1", "col-1", "ghost", map[string]any{"x": 1})
	assert.ErrorIs(t, err, services.ErrRecordNotFound)

	err = repo.DeleteRecord(ctx, "tenant-1", "col-1", id)
	require.NoError(t, err)

	err = repo.DeleteRecord(ctx, "tenant-1", "col-1", id)
	assert.ErrorIs(t, err, services.ErrRecordNotFound)
}

func TestPlatformRepository_ScriptsAndTemplates(t *testing.T) {
	p, ctx, databaseURL := setupTestDB(t)
	db := openDB(t, databaseURL)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	repo := postgresql.NewPlatformRepository(p.DB(), logger)

	_, err := db.ExecContext(ctx,
		`INSERT INTO scripts (id, tenant_id, name, active) VALUES ($1, $2, $3, $4)`,
		"script-1", "tenant-1", "recalculate totals", true)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx,
		`INSERT INTO email_templates (id, tenant_id, name, subject, body_html) VALUES ($1, $2, $3, $4, $5)`,
		"tpl-1", "tenant-1", "shipped", "Your order", "<p>On its way</p>")
	require.NoError(t, err)

	script, err := repo.FindScript(ctx, "tenant-1", "script-1")
	require.NoError(t, err)
	assert.Equal(t, "recalculate totals", script.Name)
	assert.True(t, script.Active)

	_, err = repo.FindScript(ctx, "tenant-1", "ghost")
	assert.ErrorIs(t, err, services.ErrScriptNotFound)

	template, err := repo.FindTemplate(ctx, "tenant-1", "tpl-1")
	require.NoError(t, err)
	assert.Equal(t, "Your order", template.Subject)
	assert.Equal(t, "<p>On its way</p>", template.BodyHTML)

	_, err = repo.FindTemplate(ctx, "tenant-1", "ghost")
	assert.ErrorIs(t, err, services.ErrTemplateNotFound)
}
