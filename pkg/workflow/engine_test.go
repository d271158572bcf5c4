package workflow

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenbase/tenbase/pkg/formula"
	"github.com/tenbase/tenbase/pkg/lifecycle"
	"github.com/tenbase/tenbase/pkg/models"
	"github.com/tenbase/tenbase/pkg/persistence/memory"
	"github.com/tenbase/tenbase/pkg/services"
)

func testLogger(_ *testing.T) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

type stubCollections struct {
	collections map[string]*models.Collection
}

func (s *stubCollections) FindCollection(_ context.Context, _, collectionID string) (*models.Collection, error) {
	collection, ok := s.collections[collectionID]
	if !ok {
		return nil, services.ErrCollectionNotFound
	}

	return collection, nil
}

func (s *stubCollections) FindCollectionByName(_ context.Context, _, name string) (*models.Collection, error) {
	for _, collection := range s.collections {
		if collection.Name == name {
			return collection, nil
		}
	}

	return nil, services.ErrCollectionNotFound
}

// stubHandler is a scriptable action handler for engine tests.
type stubHandler struct {
	key      string
	results  []ActionResult
	err      error
	executed []ActionContext
}

func (s *stubHandler) ActionTypeKey() string {
	return s.key
}

func (s *stubHandler) Execute(_ context.Context, actionCtx ActionContext, _ string) (ActionResult, error) {
	s.executed = append(s.executed, actionCtx)

	if s.err != nil {
		return ActionResult{}, s.err
	}

	index := len(s.executed) - 1
	if index >= len(s.results) {
		index = len(s.results) - 1
	}

	return s.results[index], nil
}

func (s *stubHandler) Validate(_ string) error {
	return nil
}

type engineFixture struct {
	engine  *Engine
	store   *memory.Persistence
	handler *stubHandler
}

func newEngineFixture(t *testing.T, handlers ...ActionHandler) *engineFixture {
	t.Helper()

	logger := testLogger(t)
	store := memory.NewPersistence()
	collections := &stubCollections{collections: map[string]*models.Collection{
		"col-1": {ID: "col-1", TenantID: "tenant-1", Name: "orders"},
	}}

	handler := &stubHandler{
		key:     "TEST_ACTION",
		results: []ActionResult{Successful(nil)},
	}

	all := append([]ActionHandler{handler}, handlers...)

	engine := NewEngine(logger, store, formula.NewExprEvaluator(), collections)
	engine.SetHandlerRegistry(NewHandlerRegistry(logger, all))

	return &engineFixture{engine: engine, store: store, handler: handler}
}

func activeAction(actionType string) models.WorkflowAction {
	return models.WorkflowAction{
		ID:         "action-1",
		ActionType: actionType,
		Config:     "{}",
		Active:     true,
	}
}

func baseRule(id string, triggerType models.TriggerType) *models.WorkflowRule {
	return &models.WorkflowRule{
		ID:           id,
		TenantID:     "tenant-1",
		CollectionID: "col-1",
		Name:         "rule " + id,
		Active:       true,
		TriggerType:  triggerType,
		Actions:      []models.WorkflowAction{activeAction("TEST_ACTION")},
	}
}

func beforeSaveRequest(changeType string) BeforeSaveRequest {
	return BeforeSaveRequest{
		TenantID:       "tenant-1",
		CollectionID:   "col-1",
		CollectionName: "orders",
		RecordID:       "rec-1",
		Data:           map[string]any{"status": "OPEN", "total": 10.0},
		ChangeType:     changeType,
	}
}

func TestEvaluateBeforeSave_AppliesFieldUpdates(t *testing.T) {
	fix := newEngineFixture(t)
	fix.handler.results = []ActionResult{
		Successful(map[string]any{"updatedFields": map[string]any{"status": "REVIEWED"}}),
	}

	fix.store.SaveRule(baseRule("rule-1", models.TriggerBeforeCreate))

	outcome, err := fix.engine.EvaluateBeforeSave(context.Background(), beforeSaveRequest("CREATE"))
	require.NoError(t, err)

	assert.Equal(t, 1, outcome.RulesEvaluated)
	assert.Equal(t, 1, outcome.ActionsExecuted)
	assert.Equal(t, "REVIEWED", outcome.FieldUpdates["status"])
	assert.Empty(t, outcome.Errors)

	require.Len(t, fix.store.ExecutionLogs(), 1)
	assert.Equal(t, models.StatusSuccess, fix.store.ExecutionLogs()[0].Status)
}

func TestEvaluateBeforeSave_LaterRuleSeesEarlierUpdates(t *testing.T) {
	fix := newEngineFixture(t)
	fix.handler.results = []ActionResult{
		Successful(map[string]any{"updatedFields": map[string]any{"status": "FIRST"}}),
		Successful(map[string]any{"updatedFields": map[string]any{"status": "SECOND", "flag": true}}),
	}

	ruleA := baseRule("rule-a", models.TriggerBeforeCreate)
	ruleA.ExecutionOrder = 1
	ruleB := baseRule("rule-b", models.TriggerBeforeCreate)
	ruleB.ExecutionOrder = 2
	// Only fires when the first rule already rewrote the status.
	ruleB.FilterFormula = `status == "FIRST"`

	fix.store.SaveRule(ruleA)
	fix.store.SaveRule(ruleB)

	outcome, err := fix.engine.EvaluateBeforeSave(context.Background(), beforeSaveRequest("CREATE"))
	require.NoError(t, err)

	assert.Equal(t, 2, outcome.RulesEvaluated)
	assert.Equal(t, 2, outcome.ActionsExecuted)
	assert.Equal(t, "SECOND", outcome.FieldUpdates["status"])
	assert.Equal(t, true, outcome.FieldUpdates["flag"])
}

func TestEvaluateBeforeSave_TriggerFieldsOnlyConstrainUpdates(t *testing.T) {
	fix := newEngineFixture(t)

	rule := baseRule("rule-1", models.TriggerBeforeUpdate)
	rule.TriggerFields = []string{"email"}
	fix.store.SaveRule(rule)

	req := beforeSaveRequest("UPDATE")
	req.ChangedFields = []string{"status"}

	outcome, err := fix.engine.EvaluateBeforeSave(context.Background(), req)
	require.NoError(t, err)

	// Counted as evaluated even though the trigger fields rejected it.
	assert.Equal(t, 1, outcome.RulesEvaluated)
	assert.Equal(t, 0, outcome.ActionsExecuted)
	assert.Empty(t, fix.handler.executed)

	req.ChangedFields = []string{"email", "status"}

	outcome, err = fix.engine.EvaluateBeforeSave(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.ActionsExecuted)
}

func TestEvaluateBeforeSave_FilterErrorSkipsActions(t *testing.T) {
	fix := newEngineFixture(t)

	rule := baseRule("rule-1", models.TriggerBeforeCreate)
	rule.FilterFormula = "status =="
	fix.store.SaveRule(rule)

	outcome, err := fix.engine.EvaluateBeforeSave(context.Background(), beforeSaveRequest("CREATE"))
	require.NoError(t, err)

	assert.Equal(t, 1, outcome.RulesEvaluated)
	assert.Equal(t, 0, outcome.ActionsExecuted)
	assert.Empty(t, fix.handler.executed)
}

func TestEvaluateBeforeSave_UnknownHandlerIsNoOp(t *testing.T) {
	fix := newEngineFixture(t)

	rule := baseRule("rule-1", models.TriggerBeforeCreate)
	rule.Actions = []models.WorkflowAction{activeAction("NOT_REGISTERED")}
	fix.store.SaveRule(rule)

	outcome, err := fix.engine.EvaluateBeforeSave(context.Background(), beforeSaveRequest("CREATE"))
	require.NoError(t, err)

	assert.Equal(t, 1, outcome.RulesEvaluated)
	assert.Equal(t, 0, outcome.ActionsExecuted)
	assert.Empty(t, outcome.Errors)
}

func TestEvaluateBeforeSave_LifecycleValidationShortCircuits(t *testing.T) {
	fix := newEngineFixture(t)
	fix.engine.SetLifecycleRegistry(lifecycle.NewRegistry(testLogger(t), []lifecycle.Handler{
		lifecycle.NewUsersHandler(testLogger(t)),
	}))

	fix.store.SaveRule(baseRule("rule-1", models.TriggerBeforeCreate))

	req := BeforeSaveRequest{
		TenantID:       "tenant-1",
		CollectionID:   "col-1",
		CollectionName: "users",
		RecordID:       "user-1",
		Data:           map[string]any{"email": "not-an-email"},
		ChangeType:     "CREATE",
	}

	outcome, err := fix.engine.EvaluateBeforeSave(context.Background(), req)
	require.NoError(t, err)

	require.NotEmpty(t, outcome.Errors)
	assert.Equal(t, "email", outcome.Errors[0].Field)

	// Rules are never consulted for a rejected record.
	assert.Equal(t, 0, outcome.RulesEvaluated)
	assert.Empty(t, fix.handler.executed)
}

func TestEvaluateBeforeSave_LifecycleDefaultsReachRuleFilters(t *testing.T) {
	fix := newEngineFixture(t)
	fix.engine.SetLifecycleRegistry(lifecycle.NewRegistry(testLogger(t), []lifecycle.Handler{
		lifecycle.NewUsersHandler(testLogger(t)),
	}))

	rule := baseRule("rule-1", models.TriggerBeforeCreate)
	rule.CollectionID = "col-users"
	rule.FilterFormula = `status == "ACTIVE"`
	fix.store.SaveRule(rule)

	req := BeforeSaveRequest{
		TenantID:       "tenant-1",
		CollectionID:   "col-users",
		CollectionName: "users",
		RecordID:       "user-1",
		Data:           map[string]any{"email": "jane@example.com"},
		ChangeType:     "CREATE",
	}

	outcome, err := fix.engine.EvaluateBeforeSave(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "ACTIVE", outcome.FieldUpdates["status"])
	assert.Equal(t, 1, outcome.ActionsExecuted)
}

func TestEvaluateBeforeSave_UnknownChangeType(t *testing.T) {
	fix := newEngineFixture(t)

	_, err := fix.engine.EvaluateBeforeSave(context.Background(), beforeSaveRequest("UPSERT"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown change type")
}

func TestEvaluateRule_StopOnError(t *testing.T) {
	failing := &stubHandler{key: "FAILING", results: []ActionResult{Failed("boom")}}
	fix := newEngineFixture(t, failing)

	rule := baseRule("rule-1", models.TriggerAfterUpdate)
	rule.ErrorHandling = models.StopOnError
	rule.Actions = []models.WorkflowAction{
		{ID: "a1", ActionType: "FAILING", Config: "{}", Active: true},
		{ID: "a2", ActionType: "TEST_ACTION", Config: "{}", Active: true},
	}

	actionCtx := ActionContext{
		TenantID:     "tenant-1",
		CollectionID: "col-1",
		RecordID:     "rec-1",
		TriggerType:  string(models.TriggerAfterUpdate),
		RecordData:   map[string]any{},
	}

	outcome, err := fix.engine.EvaluateRule(context.Background(), rule, actionCtx)
	require.NoError(t, err)

	assert.True(t, outcome.Fired)
	assert.Equal(t, models.StatusFailure, outcome.Status)
	assert.Contains(t, outcome.ErrorMessage, "boom")
	assert.Empty(t, fix.handler.executed)
}

func TestEvaluateRule_ContinueOnErrorIsPartialFailure(t *testing.T) {
	failing := &stubHandler{key: "FAILING", results: []ActionResult{Failed("boom")}}
	fix := newEngineFixture(t, failing)

	rule := baseRule("rule-1", models.TriggerAfterUpdate)
	rule.Actions = []models.WorkflowAction{
		{ID: "a1", ActionType: "FAILING", Config: "{}", Active: true},
		{ID: "a2", ActionType: "TEST_ACTION", Config: "{}", Active: true},
	}

	actionCtx := ActionContext{
		TenantID:    "tenant-1",
		RecordID:    "rec-1",
		TriggerType: string(models.TriggerAfterUpdate),
		RecordData:  map[string]any{},
	}

	outcome, err := fix.engine.EvaluateRule(context.Background(), rule, actionCtx)
	require.NoError(t, err)

	assert.Equal(t, models.StatusPartialFailure, outcome.Status)
	assert.Equal(t, 2, outcome.ActionsExecuted)
	require.Len(t, fix.handler.executed, 1)
}

func TestEvaluateRule_RetriesFailedAction(t *testing.T) {
	flaky := &stubHandler{
		key:     "FLAKY",
		results: []ActionResult{Failed("transient"), Successful(nil)},
	}
	fix := newEngineFixture(t, flaky)

	rule := baseRule("rule-1", models.TriggerAfterCreate)
	rule.Actions = []models.WorkflowAction{
		{ID: "a1", ActionType: "FLAKY", Config: "{}", Active: true, RetryCount: 1},
	}

	actionCtx := ActionContext{
		TenantID:    "tenant-1",
		RecordID:    "rec-1",
		TriggerType: string(models.TriggerAfterCreate),
		RecordData:  map[string]any{},
	}

	outcome, err := fix.engine.EvaluateRule(context.Background(), rule, actionCtx)
	require.NoError(t, err)

	assert.Equal(t, models.StatusSuccess, outcome.Status)
	require.Len(t, flaky.executed, 2)

	// One action log row per attempt.
	logs := fix.store.ActionLogs()
	require.Len(t, logs, 2)
	assert.Equal(t, 1, logs[0].AttemptNumber)
	assert.Equal(t, 2, logs[1].AttemptNumber)
	assert.Equal(t, models.StatusFailure, logs[0].Status)
	assert.Equal(t, models.StatusSuccess, logs[1].Status)
}

func TestEvaluateRule_FilterErrorRecordsFailureLog(t *testing.T) {
	fix := newEngineFixture(t)

	rule := baseRule("rule-1", models.TriggerAfterUpdate)
	rule.FilterFormula = "total >"

	actionCtx := ActionContext{
		TenantID:    "tenant-1",
		RecordID:    "rec-1",
		TriggerType: string(models.TriggerAfterUpdate),
		RecordData:  map[string]any{"total": 5},
	}

	outcome, err := fix.engine.EvaluateRule(context.Background(), rule, actionCtx)
	require.NoError(t, err)

	assert.False(t, outcome.Fired)
	assert.Equal(t, models.StatusFailure, outcome.Status)

	logs := fix.store.ExecutionLogs()
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0].ErrorMessage, "Filter formula error")
}

func TestEvaluateRule_PanicBecomesFailure(t *testing.T) {
	panicking := &panicHandler{}
	fix := newEngineFixture(t, panicking)

	rule := baseRule("rule-1", models.TriggerAfterCreate)
	rule.ErrorHandling = models.StopOnError
	rule.Actions = []models.WorkflowAction{
		{ID: "a1", ActionType: "PANIC", Config: "{}", Active: true},
	}

	actionCtx := ActionContext{
		TenantID:    "tenant-1",
		RecordID:    "rec-1",
		TriggerType: string(models.TriggerAfterCreate),
		RecordData:  map[string]any{},
	}

	outcome, err := fix.engine.EvaluateRule(context.Background(), rule, actionCtx)
	require.NoError(t, err)

	assert.Equal(t, models.StatusFailure, outcome.Status)
	assert.Contains(t, outcome.ErrorMessage, "panicked")
}

type panicHandler struct{}

func (p *panicHandler) ActionTypeKey() string { return "PANIC" }

func (p *panicHandler) Execute(_ context.Context, _ ActionContext, _ string) (ActionResult, error) {
	panic("handler bug")
}

func (p *panicHandler) Validate(_ string) error { return nil }

func TestEvaluate_MergesCombinedTrigger(t *testing.T) {
	fix := newEngineFixture(t)

	updateRule := baseRule("rule-update", models.TriggerAfterUpdate)
	updateRule.ExecutionOrder = 2
	combinedRule := baseRule("rule-combined", models.TriggerAfterCreateOrUpdate)
	combinedRule.ExecutionOrder = 1

	fix.store.SaveRule(updateRule)
	fix.store.SaveRule(combinedRule)

	event := &models.RecordChangeEvent{
		EventID:        "evt-1",
		TenantID:       "tenant-1",
		CollectionName: "orders",
		RecordID:       "rec-1",
		ChangeType:     models.ChangeUpdated,
		Data:           map[string]any{"status": "OPEN"},
	}

	err := fix.engine.Evaluate(context.Background(), event)
	require.NoError(t, err)

	require.Len(t, fix.handler.executed, 2)
	assert.Equal(t, "rule-combined", fix.handler.executed[0].WorkflowRuleID)
	assert.Equal(t, "rule-update", fix.handler.executed[1].WorkflowRuleID)
}

// recordingLifecycleHandler captures after-hook invocations for one
// collection.
type recordingLifecycleHandler struct {
	collection   string
	afterCalls   []string
	panicOnAfter bool
}

func (h *recordingLifecycleHandler) CollectionName() string {
	return h.collection
}

func (h *recordingLifecycleHandler) BeforeCreate(_ context.Context, _ map[string]any, _ string) lifecycle.BeforeSaveResult {
	return lifecycle.Ok()
}

func (h *recordingLifecycleHandler) BeforeUpdate(_ context.Context, _ string, _, _ map[string]any, _ string) lifecycle.BeforeSaveResult {
	return lifecycle.Ok()
}

func (h *recordingLifecycleHandler) AfterCreate(_ context.Context, recordID string, _ map[string]any, _ string) {
	if h.panicOnAfter {
		panic("after hook exploded")
	}

	h.afterCalls = append(h.afterCalls, "create:"+recordID)
}

func (h *recordingLifecycleHandler) AfterUpdate(_ context.Context, recordID string, _, _ map[string]any, _ string) {
	if h.panicOnAfter {
		panic("after hook exploded")
	}

	h.afterCalls = append(h.afterCalls, "update:"+recordID)
}

func (h *recordingLifecycleHandler) AfterDelete(_ context.Context, recordID string, _ map[string]any, _ string) {
	if h.panicOnAfter {
		panic("after hook exploded")
	}

	h.afterCalls = append(h.afterCalls, "delete:"+recordID)
}

func TestEvaluate_InvokesAfterLifecycleHook(t *testing.T) {
	fix := newEngineFixture(t)

	hook := &recordingLifecycleHandler{collection: "orders"}
	fix.engine.SetLifecycleRegistry(lifecycle.NewRegistry(testLogger(t), []lifecycle.Handler{hook}))

	fix.store.SaveRule(baseRule("rule-1", models.TriggerAfterUpdate))

	event := &models.RecordChangeEvent{
		EventID:        "evt-1",
		TenantID:       "tenant-1",
		CollectionName: "orders",
		RecordID:       "rec-1",
		ChangeType:     models.ChangeUpdated,
		Data:           map[string]any{"status": "SHIPPED"},
	}

	err := fix.engine.Evaluate(context.Background(), event)
	require.NoError(t, err)

	assert.Equal(t, []string{"update:rec-1"}, hook.afterCalls)
	require.Len(t, fix.handler.executed, 1)
}

func TestEvaluate_AfterLifecycleHookPanicIsContained(t *testing.T) {
	fix := newEngineFixture(t)

	hook := &recordingLifecycleHandler{collection: "orders", panicOnAfter: true}
	fix.engine.SetLifecycleRegistry(lifecycle.NewRegistry(testLogger(t), []lifecycle.Handler{hook}))

	fix.store.SaveRule(baseRule("rule-1", models.TriggerAfterCreate))

	event := &models.RecordChangeEvent{
		EventID:        "evt-2",
		TenantID:       "tenant-1",
		CollectionName: "orders",
		RecordID:       "rec-2",
		ChangeType:     models.ChangeCreated,
		Data:           map[string]any{"status": "OPEN"},
	}

	err := fix.engine.Evaluate(context.Background(), event)
	require.NoError(t, err)

	// Rule evaluation proceeds despite the hook panic.
	require.Len(t, fix.handler.executed, 1)
}

func TestEvaluate_DeleteEventWithoutDataToleratesFieldUpdates(t *testing.T) {
	fix := newEngineFixture(t)
	fix.handler.results = []ActionResult{
		Successful(map[string]any{"updatedFields": map[string]any{"archived": true}}),
	}

	rule := baseRule("rule-1", models.TriggerAfterDelete)
	fix.store.SaveRule(rule)

	event := &models.RecordChangeEvent{
		EventID:        "evt-1",
		TenantID:       "tenant-1",
		CollectionName: "orders",
		RecordID:       "rec-1",
		ChangeType:     models.ChangeDeleted,
		Data:           nil,
	}

	err := fix.engine.Evaluate(context.Background(), event)
	require.NoError(t, err)

	require.Len(t, fix.handler.executed, 1)
	require.Len(t, fix.store.ExecutionLogs(), 1)
	assert.Equal(t, models.StatusSuccess, fix.store.ExecutionLogs()[0].Status)
}

func TestEvaluate_UnknownCollectionIsSkipped(t *testing.T) {
	fix := newEngineFixture(t)

	event := &models.RecordChangeEvent{
		EventID:        "evt-1",
		TenantID:       "tenant-1",
		CollectionName: "ghosts",
		RecordID:       "rec-1",
		ChangeType:     models.ChangeCreated,
	}

	err := fix.engine.Evaluate(context.Background(), event)
	require.NoError(t, err)
	assert.Empty(t, fix.handler.executed)
}

func TestExecuteScheduledRule(t *testing.T) {
	fix := newEngineFixture(t)

	rule := baseRule("rule-1", models.TriggerScheduled)
	rule.CronExpression = "0 * * * *"

	err := fix.engine.ExecuteScheduledRule(context.Background(), rule)
	require.NoError(t, err)

	require.Len(t, fix.handler.executed, 1)
	assert.Equal(t, "system", fix.handler.executed[0].UserID)
	assert.Equal(t, string(models.TriggerScheduled), fix.handler.executed[0].TriggerType)

	logs := fix.store.ExecutionLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, models.StatusSuccess, logs[0].Status)
}

func TestExecuteScheduledRule_FailurePropagates(t *testing.T) {
	failing := &stubHandler{key: "FAILING", err: errors.New("downstream unavailable")}
	fix := newEngineFixture(t, failing)

	rule := baseRule("rule-1", models.TriggerScheduled)
	rule.ErrorHandling = models.StopOnError
	rule.Actions = []models.WorkflowAction{
		{ID: "a1", ActionType: "FAILING", Config: "{}", Active: true},
	}

	err := fix.engine.ExecuteScheduledRule(context.Background(), rule)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "downstream unavailable")
}

func TestExecuteManualRule(t *testing.T) {
	fix := newEngineFixture(t)

	rule := baseRule("rule-1", models.TriggerAfterUpdate)

	logID, err := fix.engine.ExecuteManualRule(context.Background(), rule, "rec-1", "user-1")
	require.NoError(t, err)
	require.NotEmpty(t, logID)

	require.Len(t, fix.handler.executed, 1)
	assert.Equal(t, "user-1", fix.handler.executed[0].UserID)
	assert.Equal(t, "rec-1", fix.handler.executed[0].RecordID)
	assert.Equal(t, "MANUAL", fix.handler.executed[0].TriggerType)

	logs := fix.store.ExecutionLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, logID, logs[0].ID)
	assert.Equal(t, "MANUAL", logs[0].TriggerType)
	assert.Equal(t, models.StatusSuccess, logs[0].Status)
}

func TestExecuteManualRule_DefaultsUserAndSkipsWhenInactive(t *testing.T) {
	fix := newEngineFixture(t)

	rule := baseRule("rule-1", models.TriggerAfterUpdate)

	_, err := fix.engine.ExecuteManualRule(context.Background(), rule, "rec-1", "")
	require.NoError(t, err)
	require.Len(t, fix.handler.executed, 1)
	assert.Equal(t, "system", fix.handler.executed[0].UserID)

	idle := baseRule("rule-2", models.TriggerAfterUpdate)
	idle.Actions = nil

	logID, err := fix.engine.ExecuteManualRule(context.Background(), idle, "rec-1", "user-1")
	require.NoError(t, err)
	assert.Empty(t, logID)
	assert.Len(t, fix.store.ExecutionLogs(), 1)
}

func TestMatchesTriggerFields(t *testing.T) {
	tests := []struct {
		name          string
		triggerFields []string
		changedFields []string
		isUpdate      bool
		want          bool
	}{
		{"no trigger fields matches all", nil, []string{"a"}, true, true},
		{"create ignores trigger fields", []string{"email"}, nil, false, true},
		{"update with overlap", []string{"email"}, []string{"email", "name"}, true, true},
		{"update without overlap", []string{"email"}, []string{"name"}, true, false},
		{"update with empty changed fields", []string{"email"}, nil, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchesTriggerFields(tt.triggerFields, tt.changedFields, tt.isUpdate))
		})
	}
}
