package actions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tenbase/tenbase/pkg/workflow"
)

// maxWebhookResponseSize caps the captured webhook response body.
const maxWebhookResponseSize = 10_000

type outboundMessageConfig struct {
	URL          string            `json:"url"`
	Method       string            `json:"method,omitempty"`
	Headers      map[string]string `json:"headers,omitempty"`
	BodyTemplate string            `json:"bodyTemplate,omitempty"`
}

// OutboundMessageHandler sends a webhook request. Without a body template the
// triggering record travels as the default payload. Unlike HTTP_CALLOUT the
// response is only captured for the audit trail, never bound to a variable.
type OutboundMessageHandler struct {
	logger *slog.Logger
	client *http.Client
}

func NewOutboundMessageHandler(logger *slog.Logger, client *http.Client) *OutboundMessageHandler {
	return &OutboundMessageHandler{
		logger: logger,
		client: client,
	}
}

func (h *OutboundMessageHandler) ActionTypeKey() string {
	return "OUTBOUND_MESSAGE"
}

func (h *OutboundMessageHandler) Execute(ctx context.Context, actionCtx workflow.ActionContext, config string) (workflow.ActionResult, error) {
	var cfg outboundMessageConfig

	err := json.Unmarshal([]byte(config), &cfg)
	if err != nil {
		return workflow.Failed(fmt.Sprintf("invalid outbound message config: %v", err)), nil
	}

	if strings.TrimSpace(cfg.URL) == "" {
		return workflow.Failed("URL is required for outbound message"), nil
	}

	method := strings.ToUpper(cfg.Method)
	if method == "" {
		method = http.MethodPost
	}

	if !allowedMethods[method] {
		return workflow.Failed("Invalid HTTP method: " + cfg.Method), nil
	}

	body := cfg.BodyTemplate
	if body == "" {
		payload, err := json.Marshal(map[string]any{
			"recordId":       actionCtx.RecordID,
			"collectionId":   actionCtx.CollectionID,
			"collectionName": actionCtx.CollectionName,
			"data":           actionCtx.RecordData,
			"workflowRuleId": actionCtx.WorkflowRuleID,
		})
		if err != nil {
			return workflow.Failed(fmt.Sprintf("failed to build payload: %v", err)), nil
		}

		body = string(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, cfg.URL, strings.NewReader(body))
	if err != nil {
		return workflow.Failed(fmt.Sprintf("failed to build request: %v", err)), nil
	}

	for key, value := range cfg.Headers {
		req.Header.Set(key, value)
	}

	if req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	h.logger.InfoContext(ctx, "Outbound message",
		"method", method, "url", cfg.URL, "workflow_rule_id", actionCtx.WorkflowRuleID)

	resp, err := h.client.Do(req)
	if err != nil {
		return workflow.Failed(fmt.Sprintf("Outbound message failed: %v", err)), nil
	}
	defer resp.Body.Close()

	responseBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxWebhookResponseSize))
	if err != nil {
		return workflow.Failed(fmt.Sprintf("failed to read response: %v", err)), nil
	}

	outputData := map[string]any{
		"statusCode": resp.StatusCode,
		"url":        cfg.URL,
		"method":     method,
	}

	if len(responseBytes) > 0 {
		outputData["responseBody"] = string(responseBytes)
	}

	h.logger.InfoContext(ctx, "Outbound message completed",
		"url", cfg.URL, "status", resp.StatusCode)

	return workflow.Successful(outputData), nil
}

func (h *OutboundMessageHandler) Validate(config string) error {
	var cfg outboundMessageConfig

	err := json.Unmarshal([]byte(config), &cfg)
	if err != nil {
		return fmt.Errorf("invalid config JSON: %w", err)
	}

	if cfg.URL == "" {
		return errors.New("config must contain 'url'")
	}

	if cfg.Method != "" && !allowedMethods[strings.ToUpper(cfg.Method)] {
		return fmt.Errorf("invalid HTTP method: %s", cfg.Method)
	}

	return nil
}
