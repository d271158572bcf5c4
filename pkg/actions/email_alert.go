package actions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tenbase/tenbase/pkg/models"
	"github.com/tenbase/tenbase/pkg/persistence"
	"github.com/tenbase/tenbase/pkg/services"
	"github.com/tenbase/tenbase/pkg/template"
	"github.com/tenbase/tenbase/pkg/workflow"
)

type emailAlertConfig struct {
	To         string `json:"to"`
	Subject    string `json:"subject,omitempty"`
	Body       string `json:"body,omitempty"`
	TemplateID string `json:"templateId,omitempty"`
}

// EmailAlertHandler queues an email for asynchronous delivery. When a
// template id is configured the template's subject and body are used, falling
// back to the inline config when the template cannot be loaded. Subject and
// recipient render against the record before queueing.
type EmailAlertHandler struct {
	logger    *slog.Logger
	templates services.EmailTemplateService
	emailLogs persistence.EmailLogRepository
}

func NewEmailAlertHandler(logger *slog.Logger, templates services.EmailTemplateService, emailLogs persistence.EmailLogRepository) *EmailAlertHandler {
	return &EmailAlertHandler{
		logger:    logger,
		templates: templates,
		emailLogs: emailLogs,
	}
}

func (h *EmailAlertHandler) ActionTypeKey() string {
	return "EMAIL_ALERT"
}

func (h *EmailAlertHandler) Execute(ctx context.Context, actionCtx workflow.ActionContext, config string) (workflow.ActionResult, error) {
	var cfg emailAlertConfig

	err := json.Unmarshal([]byte(config), &cfg)
	if err != nil {
		return workflow.Failed(fmt.Sprintf("invalid email alert config: %v", err)), nil
	}

	subject := cfg.Subject

	if cfg.TemplateID != "" {
		tmpl, err := h.templates.FindTemplate(ctx, actionCtx.TenantID, cfg.TemplateID)
		if err != nil {
			h.logger.WarnContext(ctx, "Failed to load email template, using inline subject",
				"template_id", cfg.TemplateID, "error", err)
		} else {
			subject = tmpl.Subject
		}
	}

	if strings.TrimSpace(cfg.To) == "" {
		return workflow.Failed("Email 'to' address is required"), nil
	}

	if strings.TrimSpace(subject) == "" {
		return workflow.Failed("Email 'subject' is required"), nil
	}

	scope := template.RecordData(actionCtx.TenantID, actionCtx.UserID, actionCtx.RecordID,
		actionCtx.RecordData, actionCtx.PreviousData)

	to := renderOrRaw(cfg.To, scope)
	subject = renderOrRaw(subject, scope)

	entry := &models.EmailLog{
		ID:             uuid.NewString(),
		TenantID:       actionCtx.TenantID,
		RecipientEmail: to,
		Subject:        subject,
		Status:         models.StatusQueued,
		Source:         "WORKFLOW",
		SourceID:       actionCtx.WorkflowRuleID,
		CreatedAt:      time.Now().UTC(),
	}

	err = h.emailLogs.SaveEmailLog(ctx, entry)
	if err != nil {
		return workflow.Failed(fmt.Sprintf("Failed to queue email: %v", err)), nil
	}

	h.logger.InfoContext(ctx, "Email alert queued",
		"to", to, "subject", subject, "workflow_rule_id", actionCtx.WorkflowRuleID)

	return workflow.Successful(map[string]any{
		"emailLogId": entry.ID,
		"to":         to,
		"subject":    subject,
		"status":     models.StatusQueued,
	}), nil
}

func (h *EmailAlertHandler) Validate(config string) error {
	var cfg emailAlertConfig

	err := json.Unmarshal([]byte(config), &cfg)
	if err != nil {
		return fmt.Errorf("invalid config JSON: %w", err)
	}

	if cfg.To == "" {
		return errors.New("config must contain 'to' email address")
	}

	if cfg.TemplateID == "" && cfg.Subject == "" {
		return errors.New("config must contain 'subject' when no templateId is provided")
	}

	return nil
}

// renderOrRaw renders a template expression, falling back to the raw string
// when rendering fails so a bad template degrades instead of dropping the
// email.
func renderOrRaw(input string, scope map[string]any) string {
	rendered, err := template.Render(input, scope)
	if err != nil {
		return input
	}

	return rendered
}
