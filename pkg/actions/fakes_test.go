package actions

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/tenbase/tenbase/pkg/models"
	"github.com/tenbase/tenbase/pkg/services"
	"github.com/tenbase/tenbase/pkg/workflow"
)

func testLogger(_ *testing.T) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testActionContext() workflow.ActionContext {
	return workflow.ActionContext{
		TenantID:       "tenant-1",
		CollectionID:   "col-1",
		CollectionName: "orders",
		RecordID:       "rec-1",
		UserID:         "user-1",
		TriggerType:    "AFTER_UPDATE",
		WorkflowRuleID: "rule-1",
		RecordData: map[string]any{
			"status": "SHIPPED",
			"total":  120.5,
		},
	}
}

type fakeCollectionService struct {
	collections map[string]*models.Collection
}

func (f *fakeCollectionService) FindCollection(_ context.Context, _, collectionID string) (*models.Collection, error) {
	collection, ok := f.collections[collectionID]
	if !ok {
		return nil, services.ErrCollectionNotFound
	}

	return collection, nil
}

func (f *fakeCollectionService) FindCollectionByName(_ context.Context, _, name string) (*models.Collection, error) {
	for _, collection := range f.collections {
		if collection.Name == name {
			return collection, nil
		}
	}

	return nil, services.ErrCollectionNotFound
}

type recordCall struct {
	Op           string
	CollectionID string
	RecordID     string
	Data         map[string]any
}

type fakeRecordService struct {
	calls  []recordCall
	nextID string
	err    error
}

func (f *fakeRecordService) CreateRecord(_ context.Context, _, collectionID string, data map[string]any) (string, error) {
	f.calls = append(f.calls, recordCall{Op: "CREATE", CollectionID: collectionID, Data: data})

	if f.err != nil {
		return "", f.err
	}

	if f.nextID == "" {
		return "new-record", nil
	}

	return f.nextID, nil
}

func (f *fakeRecordService) UpdateRecord(_ context.Context, _, collectionID, recordID string, updates map[string]any) error {
	f.calls = append(f.calls, recordCall{Op: "UPDATE", CollectionID: collectionID, RecordID: recordID, Data: updates})

	return f.err
}

func (f *fakeRecordService) DeleteRecord(_ context.Context, _, collectionID, recordID string) error {
	f.calls = append(f.calls, recordCall{Op: "DELETE", CollectionID: collectionID, RecordID: recordID})

	return f.err
}

type fakeScriptService struct {
	scripts map[string]*models.Script
}

func (f *fakeScriptService) FindScript(_ context.Context, _, scriptID string) (*models.Script, error) {
	script, ok := f.scripts[scriptID]
	if !ok {
		return nil, services.ErrScriptNotFound
	}

	return script, nil
}

type fakeTemplateService struct {
	templates map[string]*models.EmailTemplate
}

func (f *fakeTemplateService) FindTemplate(_ context.Context, _, templateID string) (*models.EmailTemplate, error) {
	template, ok := f.templates[templateID]
	if !ok {
		return nil, services.ErrTemplateNotFound
	}

	return template, nil
}

type publishedEvent struct {
	Topic     string
	Key       string
	EventType string
	Payload   map[string]any
}

type fakePublisher struct {
	events []publishedEvent
	err    error
}

func (f *fakePublisher) PublishRecordChange(_ context.Context, key string, event *models.RecordChangeEvent) error {
	f.events = append(f.events, publishedEvent{Topic: "record-changes", Key: key, EventType: string(event.ChangeType)})

	return f.err
}

func (f *fakePublisher) PublishCustom(_ context.Context, topic, key, eventType string, payload map[string]any) error {
	f.events = append(f.events, publishedEvent{Topic: topic, Key: key, EventType: eventType, Payload: payload})

	return f.err
}

type evaluatedRule struct {
	RuleID string
	Depth  int
}

type fakeEngine struct {
	evaluated []evaluatedRule
	err       error
}

func (f *fakeEngine) EvaluateRule(_ context.Context, rule *models.WorkflowRule, actionCtx workflow.ActionContext) (*workflow.RuleOutcome, error) {
	f.evaluated = append(f.evaluated, evaluatedRule{RuleID: rule.ID, Depth: actionCtx.Depth})

	if f.err != nil {
		return nil, f.err
	}

	return &workflow.RuleOutcome{Fired: true, Status: models.StatusSuccess}, nil
}
