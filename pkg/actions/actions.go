// Package actions provides the built-in workflow action handlers and the
// registry builder that wires them to their collaborators.
package actions

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/tenbase/tenbase/pkg/eventbus"
	"github.com/tenbase/tenbase/pkg/formula"
	"github.com/tenbase/tenbase/pkg/models"
	"github.com/tenbase/tenbase/pkg/persistence"
	"github.com/tenbase/tenbase/pkg/services"
	"github.com/tenbase/tenbase/pkg/workflow"
)

// DefaultHTTPTimeout bounds outbound HTTP calls made by action handlers.
const DefaultHTTPTimeout = 30 * time.Second

// RuleEvaluator is the slice of the workflow engine that flow-triggering
// actions re-enter.
type RuleEvaluator interface {
	EvaluateRule(ctx context.Context, rule *models.WorkflowRule, actionCtx workflow.ActionContext) (*workflow.RuleOutcome, error)
}

// Deps bundles the collaborators the built-in handlers need. Optional fields
// may stay nil; the registry only includes handlers whose dependencies are
// present.
type Deps struct {
	Logger        *slog.Logger
	Formula       formula.Evaluator
	Collections   services.CollectionService
	Records       services.RecordService
	Scripts       services.ScriptService
	Templates     services.EmailTemplateService
	Publisher     eventbus.EventPublisher
	Rules         persistence.RuleRepository
	EmailLogs     persistence.EmailLogRepository
	ScriptLogs    persistence.ScriptLogRepository
	Notifications persistence.NotificationRepository
	Engine        RuleEvaluator
	HTTPClient    *http.Client
}

// NewRegistry builds the handler registry with every built-in action type.
// The decision handler is bound to the finished registry afterwards so its
// branch actions dispatch through the same table.
func NewRegistry(deps Deps) *workflow.HandlerRegistry {
	logger := deps.Logger.With("module", "actions")

	httpClient := deps.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}

	decision := NewDecisionHandler(logger, deps.Formula)

	registry := workflow.NewHandlerRegistry(logger, []workflow.ActionHandler{
		NewFieldUpdateHandler(logger),
		NewCreateRecordHandler(logger, deps.Collections, deps.Records),
		NewUpdateRecordHandler(logger, deps.Collections, deps.Records),
		NewDeleteRecordHandler(logger, deps.Collections, deps.Records),
		NewEmailAlertHandler(logger, deps.Templates, deps.EmailLogs),
		NewHTTPCalloutHandler(logger, httpClient),
		NewOutboundMessageHandler(logger, httpClient),
		NewInvokeScriptHandler(logger, deps.Scripts, deps.ScriptLogs),
		NewPublishEventHandler(logger, deps.Publisher),
		NewSendNotificationHandler(logger, deps.Notifications),
		NewLogMessageHandler(logger),
		decision,
		NewTriggerFlowHandler(logger, deps.Rules, deps.Engine),
	})

	decision.bind(registry)

	return registry
}
